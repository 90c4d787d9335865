package commands

import (
	"fmt"

	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/pkg/llmfactory"
	"github.com/effective-security/academix/pkg/webutil"
	"github.com/effective-security/academix/vectorstore"
	"github.com/effective-security/academix/vectorstore/api"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

func newVectorStoreCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectorstore",
		Short: "Vector store service of the academic library",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the vector search service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(config.SectionVectorStore)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			n, err := s.Len(ctx)
			if err != nil {
				return err
			}
			logger.KV(xlog.INFO,
				"status", "starting",
				"service", "vectorstore",
				"addr", cfg.VectorStore.Addr(),
				"index", s.Index().Name(),
				"documents", n)
			return webutil.Serve(ctx, cfg.VectorStore.Addr(), api.New(s).Router())
		},
	}

	insert := &cobra.Command{
		Use:   "insert <pdf>...",
		Short: "Split, embed and add the PDF books to the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(config.SectionVectorStore)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			for _, path := range args {
				n, err := s.InsertPDF(ctx, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks added\n", path, n)
			}
			return s.Save()
		},
	}

	cmd.AddCommand(serve, insert)
	return cmd
}

// openStore returns the store over the configured index, with the saved
// memory index loaded
func openStore(cfg *config.Config) (*vectorstore.Store, error) {
	factory, err := llmfactory.Load(cfg.LLM)
	if err != nil {
		return nil, err
	}
	embedder, err := factory.Embedder()
	if err != nil {
		return nil, err
	}

	var s *vectorstore.Store
	switch cfg.VectorStore.Index {
	case config.IndexRedis:
		client, err := newRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		s = vectorstore.New(embedder, vectorstore.NewRedisIndex(client, cfg.Redis.Prefix))
	default:
		s = vectorstore.New(embedder, vectorstore.NewMemoryIndex(), vectorstore.WithDir(cfg.VectorStore.Path))
	}

	if err = s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}
