package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "rmqtopo",
		Short:         "Build, render and declare rabbitmq topology layouts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "topology.yaml", "topology description file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every declaration")

	root.AddCommand(newGraphCmd(opts), newDeclareCmd(opts))
	return root
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
