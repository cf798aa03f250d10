package face_test

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae/internal/face"
)

const sendResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <web:enviarFacturaResponse xmlns:web="https://webservice.face.gob.es">
      <resultado>
        <codigo>0</codigo>
        <descripcion>Correcto</descripcion>
      </resultado>
      <factura>
        <numeroRegistro>202600012345</numeroRegistro>
        <csv>CSV123456789</csv>
      </factura>
    </web:enviarFacturaResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const errorResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <web:enviarFacturaResponse xmlns:web="https://webservice.face.gob.es">
      <resultado>
        <codigo>501</codigo>
        <descripcion>Unidad DIR3 no encontrada</descripcion>
      </resultado>
    </web:enviarFacturaResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>soapenv:Client</faultcode>
      <faultstring>Malformed request</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

const statusResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <web:consultarFacturaResponse xmlns:web="https://webservice.face.gob.es">
      <resultado>
        <codigo>0</codigo>
        <descripcion>Correcto</descripcion>
      </resultado>
      <factura>
        <numeroRegistro>202600012345</numeroRegistro>
        <tramitacion>
          <codigo>1300</codigo>
          <descripcion>Registrada en RCF</descripcion>
        </tramitacion>
        <anulacion>
          <codigo>4100</codigo>
          <descripcion>No solicitada anulación</descripcion>
        </anulacion>
      </factura>
    </web:consultarFacturaResponse>
  </soapenv:Body>
</soapenv:Envelope>`

func newTestClient(handler http.HandlerFunc) (*face.Client, func()) {
	server := httptest.NewServer(handler)
	client := face.NewClient(tls.Certificate{}, face.WithEndpoint(server.URL))
	return client, server.Close
}

func TestSendInvoice(t *testing.T) {
	document := []byte(`<fe:Facturae>signed</fe:Facturae>`)

	var captured []byte
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `""`, r.Header.Get("SOAPAction"))
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml")
		captured, _ = io.ReadAll(r.Body)
		io.WriteString(w, sendResponse)
	})
	defer done()

	result, err := client.SendInvoice(context.Background(), "billing@example.com", "FAC201804-123.xsig", document)
	require.NoError(t, err)
	assert.Equal(t, "0", result.Code)
	assert.Equal(t, "202600012345", result.RegistryNumber)
	assert.Equal(t, "CSV123456789", result.CSV)

	req := etree.NewDocument()
	require.NoError(t, req.ReadFromBytes(captured))
	body := req.Root().FindElement("Body/enviarFactura")
	require.NotNil(t, body)
	assert.Equal(t, "billing@example.com", body.FindElement("correo").Text())
	assert.Equal(t, "FAC201804-123.xsig", body.FindElement("factura/nombre").Text())
	assert.Equal(t, "application/xml", body.FindElement("factura/mime").Text())
	assert.Equal(t, base64.StdEncoding.EncodeToString(document), body.FindElement("factura/factura").Text())
}

func TestSendInvoice_ServiceError(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, errorResponse)
	})
	defer done()

	_, err := client.SendInvoice(context.Background(), "billing@example.com", "f.xsig", []byte("<x/>"))
	require.Error(t, err)

	var serr *face.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "501", serr.Code)
	assert.Equal(t, "Unidad DIR3 no encontrada", serr.Message)
}

func TestSendInvoice_SOAPFault(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, faultResponse)
	})
	defer done()

	_, err := client.SendInvoice(context.Background(), "billing@example.com", "f.xsig", []byte("<x/>"))
	require.Error(t, err)

	var serr *face.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "soapenv:Client", serr.Code)
	assert.Equal(t, "Malformed request", serr.Message)
}

func TestQueryInvoice(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<numeroRegistro>202600012345</numeroRegistro>")
		io.WriteString(w, statusResponse)
	})
	defer done()

	status, err := client.QueryInvoice(context.Background(), "202600012345")
	require.NoError(t, err)
	assert.Equal(t, "202600012345", status.RegistryNumber)
	assert.Equal(t, "1300", status.TramitationCode)
	assert.Equal(t, "Registrada en RCF", status.TramitationDesc)
	assert.Equal(t, "4100", status.CancellationCode)
}

func TestSendInvoice_HTTPError(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	defer done()

	_, err := client.SendInvoice(context.Background(), "billing@example.com", "f.xsig", []byte("<x/>"))
	require.Error(t, err)

	var serr *face.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "HTTP 502", serr.Code)
}

func TestSendInvoice_ContextCancelled(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sendResponse)
	})
	defer done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SendInvoice(ctx, "billing@example.com", "f.xsig", []byte("<x/>"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
