package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rezonia/facturae/internal/logger"
	"github.com/rezonia/facturae/internal/sign"
)

var (
	version = "1.0.0"

	// Global flags
	verbose    bool
	certFile   string
	keyFile    string
	keyPass    string
	pkcs12File string
	pkcs12Pass string
)

var rootCmd = &cobra.Command{
	Use:   "facturae",
	Short: "Create, sign and submit Spanish FacturaE invoices",
	Long: `facturae builds FacturaE XML documents from JSON invoice
descriptions, signs them with a fiscal certificate and submits them to
FACe.

Examples:
  # Render an unsigned invoice
  facturae export invoice.json --unsigned -o invoice.xml

  # Render and sign with a PEM pair
  facturae export invoice.json --cert cert.pem --key key.pem -o invoice.xsig

  # Validate without producing a file
  facturae validate invoice.json

  # Submit a signed invoice
  facturae send invoice.xsig --email billing@example.com

  # Start the HTTP API
  facturae serve --address :8080`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&certFile, "cert", "", "PEM certificate file (env: FACTURAE_CERT)")
	rootCmd.PersistentFlags().StringVar(&keyFile, "key", "", "PEM private key file (env: FACTURAE_KEY)")
	rootCmd.PersistentFlags().StringVar(&keyPass, "key-pass", "", "Private key passphrase (env: FACTURAE_KEY_PASS)")
	rootCmd.PersistentFlags().StringVar(&pkcs12File, "pkcs12", "", "PKCS#12 container file (env: FACTURAE_PKCS12)")
	rootCmd.PersistentFlags().StringVar(&pkcs12Pass, "pkcs12-pass", "", "PKCS#12 password (env: FACTURAE_PKCS12_PASS)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// A .env next to the binary is picked up silently when present.
	_ = godotenv.Load()

	if certFile == "" {
		certFile = os.Getenv("FACTURAE_CERT")
	}
	if keyFile == "" {
		keyFile = os.Getenv("FACTURAE_KEY")
	}
	if keyPass == "" {
		keyPass = os.Getenv("FACTURAE_KEY_PASS")
	}
	if pkcs12File == "" {
		pkcs12File = os.Getenv("FACTURAE_PKCS12")
	}
	if pkcs12Pass == "" {
		pkcs12Pass = os.Getenv("FACTURAE_PKCS12_PASS")
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	_ = logger.Setup(logger.Config{Level: level, Format: "console", Output: "stderr"})
}

// loadSigner builds a signer from whichever credential flags are set,
// or returns nil when none are.
func loadSigner() (*sign.XMLSigner, error) {
	switch {
	case pkcs12File != "":
		data, err := os.ReadFile(pkcs12File)
		if err != nil {
			return nil, err
		}
		return sign.NewSignerFromPKCS12(data, pkcs12Pass)

	case certFile != "" && keyFile != "":
		certPEM, err := os.ReadFile(certFile)
		if err != nil {
			return nil, err
		}
		keyPEM, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, err
		}
		return sign.NewSignerFromPEM(certPEM, keyPEM, keyPass)

	default:
		return nil, nil
	}
}
