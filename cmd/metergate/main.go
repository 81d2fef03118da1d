package main

import (
	"os"

	"github.com/spf13/cobra"

	"metergate/internal/interfaces/cli/migrate"
	"metergate/internal/interfaces/cli/server"
	"metergate/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "metergate",
		Short: "Metergate - usage quota and feature gating service",
		Long:  `Metergate meters per-tenant usage, enforces plan limits, and alerts on approaching quota exhaustion.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
