package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae/internal/face"
)

var (
	sendEmail   string
	sendStaging bool
	sendTimeout time.Duration
	queryNumber string
)

var sendCmd = &cobra.Command{
	Use:   "send <invoice.xsig>",
	Short: "Submit a signed invoice to FACe",
	Long: `Submit a signed invoice document to the FACe web service, or query
the status of a previous submission.

FACe authenticates with the same certificate used for signing, so the
certificate flags are required.

Examples:
  facturae send invoice.xsig --email billing@example.com
  facturae send invoice.xsig --email billing@example.com --staging
  facturae send --query 202600012345`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendEmail, "email", "", "Notification email address")
	sendCmd.Flags().BoolVar(&sendStaging, "staging", false, "Use the FACe staging endpoint")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", time.Minute, "Request timeout")
	sendCmd.Flags().StringVar(&queryNumber, "query", "", "Query the status of a registry number instead of sending")
}

func runSend(cmd *cobra.Command, args []string) error {
	signer, err := loadSigner()
	if err != nil {
		return err
	}
	if signer == nil {
		return fmt.Errorf("FACe requires a certificate: set --cert/--key or --pkcs12")
	}

	opts := []face.Option{face.WithTimeout(sendTimeout)}
	if sendStaging {
		opts = append(opts, face.WithEndpoint(face.StagingEndpoint))
	}
	client := face.NewClient(signer.Certificate(), opts...)

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	if queryNumber != "" {
		status, err := client.QueryInvoice(ctx, queryNumber)
		if err != nil {
			return err
		}
		fmt.Printf("registry:    %s\n", status.RegistryNumber)
		fmt.Printf("tramitation: %s %s\n", status.TramitationCode, status.TramitationDesc)
		if status.CancellationCode != "" {
			fmt.Printf("cancellation: %s %s\n", status.CancellationCode, status.CancellationDesc)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("an invoice file is required unless --query is set")
	}
	if sendEmail == "" {
		return fmt.Errorf("--email is required")
	}

	document, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	result, err := client.SendInvoice(ctx, sendEmail, filepath.Base(args[0]), document)
	if err != nil {
		return err
	}

	fmt.Printf("submitted: registry %s\n", result.RegistryNumber)
	if result.CSV != "" {
		fmt.Printf("csv: %s\n", result.CSV)
	}
	return nil
}
