package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of a3d3-chat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "a3d3-chat %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
