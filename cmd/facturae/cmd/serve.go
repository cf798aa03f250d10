package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae/internal/export"
	"github.com/rezonia/facturae/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	serverStrict bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for rendering invoices.

The API provides:
  - POST /api/v1/invoices/render    - JSON description to FacturaE XML
  - POST /api/v1/invoices/validate  - Validate a JSON description
  - POST /api/v1/invoices/verify    - Verify a signed document
  - GET  /health                    - Health check

Examples:
  facturae serve
  facturae serve --address :8080 --cert cert.pem --key key.pem
  facturae serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().BoolVar(&serverStrict, "strict", false, "Treat precision warnings as errors")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	signer, err := loadSigner()
	if err != nil {
		return err
	}

	config := &server.Config{
		Address:      serverAddr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Strict:       serverStrict,
		Debug:        serverDebug,
	}

	// A typed nil signer must not reach the exporter as a non-nil
	// interface.
	var exportSigner export.Signer
	if signer != nil {
		exportSigner = signer
	}

	srv := server.NewServer(config, exportSigner)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s\n", serverAddr)
	if signer != nil {
		fmt.Println("Signing enabled")
	} else {
		fmt.Println("Signing disabled (no credentials)")
	}

	return srv.Run()
}
