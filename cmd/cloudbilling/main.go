package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/admin"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/migrate"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cloudbilling",
		Short:        "Cloud Billing - recurring billing for provisioned servers",
		Long:         `Cloud Billing provisions servers per subscription, bills them on their cycle and keeps invoices in sync with the invoicing provider.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
		migrate.NewCommand(),
		admin.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
