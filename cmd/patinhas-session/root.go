package main

import (
	"github.com/spf13/cobra"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "patinhas-session",
		Short: "Inspect the marketplace session router",
		Long: `patinhas-session evaluates redirect rules, inspects the persisted role
flags and runs a scripted session against the in-process identity backend.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log router activity to stdout")

	cmd.AddCommand(
		newDecideCmd(opts),
		newFlagsCmd(opts),
		newDemoCmd(opts),
	)

	return cmd
}

func (o *rootOptions) logger() auth.Logger {
	if o.verbose {
		return auth.DefaultLogger()
	}
	return quietLogger{}
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}
