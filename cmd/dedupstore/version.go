package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dedupstore/dedupstore/cmd"
	"github.com/dedupstore/dedupstore/internal/version"
)

func versionMain(command *cobra.Command, arguments []string) error {
	fmt.Println(version.String)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run:   cmd.Mainify(versionMain),
}
