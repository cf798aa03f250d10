// Package server exposes invoice rendering over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/facturae/internal/export"
	"github.com/rezonia/facturae/internal/logger"
	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/money"
	"github.com/rezonia/facturae/internal/sign"
)

// Config holds server configuration.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Strict       bool
	Debug        bool
}

// Server is the HTTP API server.
type Server struct {
	config   *Config
	router   *gin.Engine
	exporter *export.Exporter
	log      zerolog.Logger
}

// NewServer creates an API server. The optional signer is applied to
// every rendered document; nil renders unsigned.
func NewServer(config *Config, signer export.Signer) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config: config,
		router: router,
		exporter: &export.Exporter{
			Signer: signer,
			Strict: config.Strict,
		},
		log: logger.WithComponent("server"),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices/render", s.handleRender)
		v1.POST("/invoices/validate", s.handleValidate)
		v1.POST("/invoices/verify", s.handleVerify)
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.log.Info().Str("address", s.config.Address).Msg("listening")
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRender turns a JSON invoice description into the XML
// document. The raw document is returned when the client asks for
// application/xml, otherwise a JSON wrapper with totals and warnings.
func (s *Server) handleRender(c *gin.Context) {
	inv, ok := s.bindInvoice(c)
	if !ok {
		return
	}

	res, err := s.exporter.Export(inv)
	if err != nil {
		s.renderError(c, err)
		return
	}

	if c.GetHeader("Accept") == "application/xml" {
		c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(res.XML))
		return
	}

	c.JSON(http.StatusOK, RenderResponse{
		XML:      res.XML,
		Total:    res.Totals.InvoiceAmount.StringFixed(money.CurrencyDecimals),
		Warnings: warningStrings(res.Warnings),
	})
}

// handleValidate runs the pre-export checks and the totals
// computation without producing a document.
func (s *Server) handleValidate(c *gin.Context) {
	inv, ok := s.bindInvoice(c)
	if !ok {
		return
	}

	// Validation never signs, even when the server has credentials.
	checker := &export.Exporter{Strict: s.config.Strict}
	res, err := checker.Export(inv)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ValidationResponse{
			Valid:  false,
			Errors: []string{err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, ValidationResponse{
		Valid:    true,
		Warnings: warningStrings(res.Warnings),
	})
}

// handleVerify checks the enveloped signature of a posted document.
func (s *Server) handleVerify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	if err := sign.Verify(string(body)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (s *Server) bindInvoice(c *gin.Context) (*model.Invoice, bool) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}

	inv, err := req.ToInvoice()
	if err != nil {
		s.renderError(c, err)
		return nil, false
	}
	return inv, true
}

func (s *Server) renderError(c *gin.Context, err error) {
	var configErr *model.ConfigError
	var validationErr *model.ValidationError
	var precisionErr *money.PrecisionError

	switch {
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &precisionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.log.Error().Err(err).Msg("export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
	}
}

func warningStrings(warnings []money.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
