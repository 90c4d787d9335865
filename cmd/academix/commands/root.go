// Package commands provides the CLI commands of academix.
package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/pkg/llmfactory"
	"github.com/effective-security/academix/server"
	"github.com/effective-security/academix/toolkits/documents"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "cmd")

// Version is set at build time
var Version = "0.1.0"

// flags are the global flags of the commands
type flags struct {
	config     string
	envFiles   []string
	logLevel   string
	structures string
}

// NewRootCmd returns the root command with the subcommands
func NewRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "academix",
		Short: "Academix - AI agents for math and research",
		Long: `Academix runs the ReAct agents for mathematical tasks, research
and academic documents, the AI API, the vector store service and the
Discord bots.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogs(f.logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&f.config, "config", "c", "", "Path to the YAML configuration")
	root.PersistentFlags().StringSliceVar(&f.envFiles, "env", nil, "Env files to load, .env by default")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARNING|ERROR)")
	root.PersistentFlags().StringVar(&f.structures, "structures", "", "YAML file with the document structures")

	root.AddCommand(
		newServeCmd(f),
		newVectorStoreCmd(f),
		newDiscordCmd(f),
		newAskCmd(f),
		newDocumentCmd(f),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogs(level string) error {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	switch strings.ToUpper(level) {
	case "DEBUG":
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	case "INFO", "":
		xlog.SetGlobalLogLevel(xlog.INFO)
	case "WARNING", "WARN":
		xlog.SetGlobalLogLevel(xlog.WARNING)
	case "ERROR":
		xlog.SetGlobalLogLevel(xlog.ERROR)
	default:
		return errors.Errorf("invalid log level: %s", level)
	}
	return nil
}

// loadConfig loads and validates the section of the configuration
func (f *flags) loadConfig(section string) (*config.Config, error) {
	cfg, err := config.Load(f.config, f.envFiles...)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(section); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadStructures returns the document structures from the file,
// or the default ones
func (f *flags) loadStructures() ([]*documents.Structure, error) {
	if f.structures == "" {
		return documents.Structures(), nil
	}
	r, err := os.Open(f.structures)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()
	return documents.LoadStructures(r)
}

// newBuilder returns the agents builder of the configuration
func (f *flags) newBuilder(cfg *config.Config, opts ...server.BuilderOption) (*server.Builder, error) {
	factory, err := llmfactory.Load(cfg.LLM)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load llm config")
	}
	structures, err := f.loadStructures()
	if err != nil {
		return nil, err
	}
	opts = append([]server.BuilderOption{server.WithStructures(structures)}, opts...)
	return server.NewBuilder(factory, cfg, opts...), nil
}

func newRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}
	return redis.NewClient(opts), nil
}

// signalContext returns the context cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
