package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dgitools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "dgitools",
	Short: "DGI compliance tools - Moroccan payment-delay declarations",
	Long: `DGI compliance tools compute the legal payment delays and late-payment
penalties of Moroccan tax law (Article 78-2/78-3, Law 69-21) and export
DGI payment-delay declarations.

The penalty engine derives, for each invoice: the statutory due date,
the overdue duration in whole calendar months ("tout mois entamé est
décompté entièrement"), the tiered penalty rate, and the penalty amount,
with suspension for disputed invoices and suppliers under Article 690
procedures.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("DGI compliance tools executed")

		fmt.Println("DGI compliance tools")
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
