package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/callbacks"
	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/pkg/console"
	"github.com/effective-security/academix/server"
	"github.com/effective-security/academix/stream"
	"github.com/spf13/cobra"
)

type askFlags struct {
	research bool
	verbose  bool
	trace    bool
	timeout  time.Duration
}

func newAskCmd(f *flags) *cobra.Command {
	af := &askFlags{timeout: server.DefaultTimeout}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Run the agent locally and print the answer",
		Example: `  academix ask "What is the derivative of x^2?"
  academix ask --research --verbose "Who proved the four color theorem?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(config.SectionServer)
			if err != nil {
				return err
			}
			var bopts []server.BuilderOption
			if af.trace {
				mode := callbacks.ModeDefault
				if af.verbose {
					mode = callbacks.ModeVerbose
				}
				bopts = append(bopts, server.WithCallback(callbacks.NewPrinter(cmd.ErrOrStderr(), mode)))
			}
			b, err := f.newBuilder(cfg, bopts...)
			if err != nil {
				return err
			}

			var a agent.Invoker
			if af.research {
				a, err = b.ResearchAgent()
			} else {
				a, err = b.MainAgent()
			}
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, af.timeout)
			defer cancel()
			ctx, _ = chatmodel.EnsureChatContext(ctx, chatmodel.SourceCLI)

			out := cmd.OutOrStdout()
			var opts []agent.InvokeOption
			if af.verbose {
				opts = append(opts, agent.WithStream(stream.New(stream.WithVerbose(out), stream.WithDiscard())))
			}

			answer, err := a.Invoke(ctx, strings.Join(args, " "), opts...)
			if err != nil {
				if ctx.Err() == context.DeadlineExceeded {
					return server.ErrTimeout
				}
				return err
			}
			console.Bold(out, "Answer:")
			fmt.Fprintln(out, answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&af.research, "research", false, "Use the research agent")
	cmd.Flags().BoolVarP(&af.verbose, "verbose", "v", false, "Print the agent workflow")
	cmd.Flags().BoolVar(&af.trace, "trace", false, "Print the agent and tool events to stderr")
	cmd.Flags().DurationVar(&af.timeout, "timeout", af.timeout, "Timeout of the run")
	return cmd
}
