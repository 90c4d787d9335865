package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/server"
	"github.com/spf13/cobra"
)

func newDocumentCmd(f *flags) *cobra.Command {
	var timeout = server.DefaultTimeout
	var list bool
	cmd := &cobra.Command{
		Use:   "document <structure> <requirements>",
		Short: "Write a document draft with the given structure",
		Example: `  academix document --list
  academix document Exercise "Prove that the square root of 2 is irrational"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				structures, err := f.loadStructures()
				if err != nil {
					return err
				}
				for _, s := range structures {
					fmt.Fprintf(out, "%s: %s\n", s.Name, s.Description)
				}
				return nil
			}

			cfg, err := f.loadConfig(config.SectionServer)
			if err != nil {
				return err
			}
			b, err := f.newBuilder(cfg)
			if err != nil {
				return err
			}
			dt, err := b.DocumentTool()
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			doc, err := dt.Write(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, doc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List the document structures")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Timeout of the run")
	return cmd
}
