package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledgerdoc/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ledgerdoc",
	Short: "ledgerdoc - financial rollups and PDF exports for purchase orders and invoices",
	Long: `ledgerdoc computes the derived financial values of purchase orders and invoices
(cost breakdown, sale totals, VAT and net profit) and exports records as
multi-page, print-ready PDF documents.

Records, clients and company profiles are read from a YAML fixture file or
from Firestore, depending on STORE_BACKEND.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("ledgerdoc executed")

		fmt.Println("Welcome to ledgerdoc!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
