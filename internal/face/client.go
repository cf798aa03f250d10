// Package face submits signed invoices to a FACe-style web service.
//
// FACe speaks SOAP 1.1 over mutual TLS: the client authenticates with
// the same certificate used to sign the invoices. Requests are built
// and responses parsed with etree; transport failures are returned as
//-is, retrying is the caller's decision.
package face

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// ProductionEndpoint is the live FACe invoice-reception service.
	ProductionEndpoint = "https://webservice.face.gob.es/facturasspp2"
	// StagingEndpoint accepts test submissions.
	StagingEndpoint = "https://se-face-webservice.redsara.es/facturasspp2"

	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	faceServiceNS  = "https://webservice.face.gob.es"

	defaultTimeout = 60 * time.Second
)

// Client is a FACe web-service client.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different service URL, e.g.
// StagingEndpoint.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a production client authenticating with cert.
func NewClient(cert tls.Certificate, opts ...Option) *Client {
	c := &Client{
		endpoint: ProductionEndpoint,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendInvoice submits a signed invoice document. Email receives the
// delivery notifications FACe sends for the submission.
func (c *Client) SendInvoice(ctx context.Context, email, filename string, document []byte) (*SendResult, error) {
	req := newEnvelope("enviarFactura")
	req.body.CreateElement("correo").SetText(email)
	factura := req.body.CreateElement("factura")
	factura.CreateElement("factura").SetText(base64.StdEncoding.EncodeToString(document))
	factura.CreateElement("nombre").SetText(filename)
	factura.CreateElement("mime").SetText("application/xml")

	res, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseSendResult(res)
}

// QueryInvoice asks for the processing status of a prior submission.
func (c *Client) QueryInvoice(ctx context.Context, registryNumber string) (*InvoiceStatus, error) {
	req := newEnvelope("consultarFactura")
	req.body.CreateElement("numeroRegistro").SetText(registryNumber)

	res, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseInvoiceStatus(res)
}

// CancelInvoice requests cancellation of a submitted invoice, with a
// free-text reason.
func (c *Client) CancelInvoice(ctx context.Context, registryNumber, reason string) (*SendResult, error) {
	req := newEnvelope("anularFactura")
	req.body.CreateElement("numeroRegistro").SetText(registryNumber)
	req.body.CreateElement("motivo").SetText(reason)

	res, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseSendResult(res)
}

func (c *Client) call(ctx context.Context, env *envelope) ([]byte, error) {
	payload, err := env.bytes()
	if err != nil {
		return nil, fmt.Errorf("building SOAP request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", `text/xml; charset="UTF-8"`)
	httpReq.Header.Set("SOAPAction", `""`)

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.endpoint, err)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if httpRes.StatusCode != http.StatusOK {
		return nil, &ServiceError{Code: fmt.Sprintf("HTTP %d", httpRes.StatusCode), Message: string(body)}
	}
	return body, nil
}
