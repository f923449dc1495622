package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "dittodrive",
		Short:        "Multi-tenant file indexing service",
		Long:         "DittoDrive organizes per-user file trees with public/private visibility\nand asynchronous thumbnail generation for image uploads.",
		SilenceUsage: true,
	}

	root.AddCommand(serveCommand(), versionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
