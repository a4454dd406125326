package main

import (
	"os"

	"github.com/spf13/cobra"

	"vendorflow/internal/interfaces/cli/migrate"
	"vendorflow/internal/interfaces/cli/server"
	"vendorflow/internal/interfaces/cli/worker"
)

// @title Vendorflow API
// @version 1.0
// @description Vendor sourcing pipeline: discovery, verification, outreach, quotes and selection.
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:   "vendorflow",
		Short: "Vendorflow - vendor sourcing for maintenance tickets",
		Long:  `Vendorflow finds, verifies and emails vendors for a maintenance ticket, parses their quotes and ranks them.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
