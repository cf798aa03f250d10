package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae/internal/server"
)

func newTestServer() *server.Server {
	config := &server.Config{
		Address: ":8080",
	}
	return server.NewServer(config, nil)
}

func sampleRequest() map[string]any {
	return map[string]any{
		"serie":     "FAC201804",
		"number":    "123",
		"issueDate": "2018-04-01",
		"seller": map[string]any{
			"taxNumber": "A00000000",
			"name":      "Perico de los Palotes S.A.",
			"address":   "C/ Falsa, 123",
			"postCode":  "12345",
			"town":      "Madrid",
			"province":  "Madrid",
		},
		"buyer": map[string]any{
			"individual":   true,
			"taxNumber":    "00000000A",
			"name":         "Antonio",
			"firstSurname": "García",
			"lastSurname":  "Pérez",
			"address":      "Avda. Mayor, 7",
			"postCode":     "54321",
			"town":         "Madrid",
			"province":     "Madrid",
		},
		"items": []map[string]any{
			{
				"name":      "Lámpara de pie",
				"quantity":  "2",
				"unitPrice": "10.00",
				"taxes":     []map[string]any{{"code": "01", "rate": "21"}},
			},
		},
	}
}

func postJSON(t *testing.T, srv *server.Server, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestRenderEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/v1/invoices/render", sampleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response server.RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "24.20", response.Total)
	assert.Contains(t, response.XML, "<fe:Facturae")
	assert.Contains(t, response.XML, "<InvoiceTotal>24.20</InvoiceTotal>")
}

func TestRenderEndpoint_AcceptXML(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/v1/invoices/render", sampleRequest(),
		map[string]string{"Accept": "application/xml"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.True(t, strings.HasPrefix(w.Body.String(), `<?xml version="1.0" encoding="UTF-8"?>`))
}

func TestRenderEndpoint_MissingData(t *testing.T) {
	srv := newTestServer()

	body := sampleRequest()
	delete(body, "seller")

	w := postJSON(t, srv, "/api/v1/invoices/render", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "seller")
}

func TestRenderEndpoint_MalformedJSON(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/render",
		strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/v1/invoices/validate", sampleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid)
	assert.Empty(t, response.Errors)
}

func TestValidateEndpoint_InvalidInvoice(t *testing.T) {
	srv := newTestServer()

	body := sampleRequest()
	body["number"] = ""

	w := postJSON(t, srv, "/api/v1/invoices/validate", body, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Valid)
	assert.NotEmpty(t, response.Errors)
}

func TestVerifyEndpoint_UnsignedDocument(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/verify",
		strings.NewReader("<fe:Facturae xmlns:fe=\"x\"><FileHeader/></fe:Facturae>"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestVerifyEndpoint_EmptyBody(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/verify", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
