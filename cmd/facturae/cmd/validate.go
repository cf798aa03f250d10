package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae/internal/export"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <invoice.json>",
	Short: "Check an invoice description without rendering a file",
	Long: `Validate a JSON invoice description: required fields, discount and
charge consistency, and totals computation. Precision warnings are
printed; with --strict they fail the validation.

Examples:
  facturae validate invoice.json
  facturae validate invoice.json --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat precision warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inv, err := loadInvoice(args[0])
	if err != nil {
		return err
	}

	exporter := &export.Exporter{Strict: validateStrict}
	res, err := exporter.Export(inv)
	if err != nil {
		return fmt.Errorf("invalid: %w", err)
	}

	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("valid: total %s %s\n", res.Totals.InvoiceAmount.StringFixed(2), inv.Currency)
	return nil
}
