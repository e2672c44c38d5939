package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dedupstore/dedupstore/cmd"
	"github.com/dedupstore/dedupstore/internal/logging"
)

var rootCommand = &cobra.Command{
	Use:           "dedupstore",
	Short:         "Content-addressed chunk deduplication and hydration",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
		level, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return errors.Errorf("invalid log level: %s", rootConfiguration.logLevel)
		}
		logging.RootLogger = logging.New(level)
		return nil
	},
}

var rootConfiguration struct {
	help     bool
	logLevel string
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "Log level (disabled|error|warn|info|debug)")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		dedupeCommand,
		hydrateCommand,
		verifyCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmd.Fatal(err)
	}
	os.Exit(0)
}
