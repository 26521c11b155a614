package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "tomlfmt",
		Short:        "tomlfmt",
		SilenceUsage: true,
		Long:         `CLI for inspecting and reformatting TOML v0.4.0 documents.`,
	}

	verbose bool
	log     = logrus.StandardLogger()
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level scan/parse tracing")
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	})
}
