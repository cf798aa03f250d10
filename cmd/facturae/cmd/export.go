package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rezonia/facturae/internal/export"
	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/server"
)

var (
	exportOutput   string
	exportStrict   bool
	exportUnsigned bool
)

var exportCmd = &cobra.Command{
	Use:   "export <invoice.json>",
	Short: "Render an invoice description as FacturaE XML",
	Long: `Render a JSON invoice description as a FacturaE XML document.

When signing credentials are configured the output is a signed .xsig
document; pass --unsigned to skip signing even with credentials set.

Examples:
  facturae export invoice.json -o invoice.xsig
  facturae export invoice.json --unsigned
  facturae export invoice.json --strict -o invoice.xsig`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportStrict, "strict", false, "Treat precision warnings as errors")
	exportCmd.Flags().BoolVar(&exportUnsigned, "unsigned", false, "Skip signing")
}

func runExport(cmd *cobra.Command, args []string) error {
	inv, err := loadInvoice(args[0])
	if err != nil {
		return err
	}

	exporter := &export.Exporter{Strict: exportStrict}
	if !exportUnsigned {
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		if signer != nil {
			exporter.Signer = signer
		}
	}

	res, err := exporter.Export(inv)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		log.Warn().Str("field", w.Field).Msg("precision loss: " + w.String())
	}

	if exportOutput == "" {
		fmt.Println(res.XML)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(res.XML), 0o644); err != nil {
		return err
	}
	log.Info().Str("file", exportOutput).Msg("invoice written")
	return nil
}

// loadInvoice reads a JSON invoice description from disk and converts
// it into a model invoice.
func loadInvoice(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var req server.InvoiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return req.ToInvoice()
}
