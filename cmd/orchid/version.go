package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awalsh128/orchid/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the orchid version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orchid %s\n", version.Get())
	},
}
