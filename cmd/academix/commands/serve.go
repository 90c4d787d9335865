package commands

import (
	"github.com/effective-security/academix/callbacks"
	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/server"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

func newServeCmd(f *flags) *cobra.Command {
	var timeout = server.DefaultTimeout
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AI API server",
		Long: `Start the AI API server with the math, research and document agents.

The agents use the remote tools configured by the keys in the
environment, and the vector service at VS_API_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(config.SectionServer)
			if err != nil {
				return err
			}

			scratchpad := callbacks.NewScratchpad(callbacks.ModeDefault)
			cb := callbacks.NewFanout(callbacks.NewPackageLogger(logger), scratchpad)
			b, err := f.newBuilder(cfg, server.WithCallback(cb))
			if err != nil {
				return err
			}

			srv := server.New(b,
				server.WithTimeout(timeout),
				server.WithScratchpad(scratchpad),
				server.WithCORS(cfg.Server.CORS),
			)

			ctx, stop := signalContext(cmd)
			defer stop()

			logger.KV(xlog.INFO, "status", "starting", "service", "api", "addr", cfg.Server.Addr())
			return srv.Serve(ctx, cfg.Server.Addr())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Timeout of an agent run")
	return cmd
}
