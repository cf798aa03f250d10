package face

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// SendResult is the service's acknowledgement of a submission or
// cancellation request.
type SendResult struct {
	Code           string
	Message        string
	RegistryNumber string
	CSV            string
}

// InvoiceStatus describes where a submitted invoice sits in the
// receiving administration's pipeline.
type InvoiceStatus struct {
	RegistryNumber    string
	TramitationCode   string
	TramitationDesc   string
	CancellationCode  string
	CancellationDesc  string
	CancellationInfo  string
}

// ServiceError is a non-zero result code or transport-level failure
// reported by the service.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("face service error %s: %s", e.Code, e.Message)
}

type envelope struct {
	doc  *etree.Document
	body *etree.Element
}

func newEnvelope(operation string) *envelope {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", soapEnvelopeNS)
	env.CreateAttr("xmlns:web", faceServiceNS)
	env.CreateElement("soapenv:Header")
	body := env.CreateElement("soapenv:Body").CreateElement("web:" + operation)

	return &envelope{doc: doc, body: body}
}

func (e *envelope) bytes() ([]byte, error) {
	return e.doc.WriteToBytes()
}

func parseSendResult(body []byte) (*SendResult, error) {
	root, err := parseBody(body)
	if err != nil {
		return nil, err
	}

	result := &SendResult{
		Code:    findText(root, "resultado/codigo"),
		Message: findText(root, "resultado/descripcion"),
	}
	if result.Code != "0" {
		return nil, &ServiceError{Code: result.Code, Message: result.Message}
	}
	result.RegistryNumber = findText(root, "factura/numeroRegistro")
	result.CSV = findText(root, "factura/csv")
	return result, nil
}

func parseInvoiceStatus(body []byte) (*InvoiceStatus, error) {
	root, err := parseBody(body)
	if err != nil {
		return nil, err
	}

	if code := findText(root, "resultado/codigo"); code != "0" {
		return nil, &ServiceError{Code: code, Message: findText(root, "resultado/descripcion")}
	}

	return &InvoiceStatus{
		RegistryNumber:   findText(root, "factura/numeroRegistro"),
		TramitationCode:  findText(root, "factura/tramitacion/codigo"),
		TramitationDesc:  findText(root, "factura/tramitacion/descripcion"),
		CancellationCode: findText(root, "factura/anulacion/codigo"),
		CancellationDesc: findText(root, "factura/anulacion/descripcion"),
		CancellationInfo: findText(root, "factura/anulacion/motivo"),
	}, nil
}

// parseBody unwraps the SOAP envelope and returns the operation
// response element, or the fault as a ServiceError.
func parseBody(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing SOAP response: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty SOAP response")
	}

	body := findChild(root, "Body")
	if body == nil {
		return nil, fmt.Errorf("SOAP response has no Body")
	}

	if fault := findChild(body, "Fault"); fault != nil {
		return nil, &ServiceError{
			Code:    findText(fault, "faultcode"),
			Message: findText(fault, "faultstring"),
		}
	}

	children := body.ChildElements()
	if len(children) == 0 {
		return nil, fmt.Errorf("SOAP Body is empty")
	}
	return children[0], nil
}

// findChild matches on local tag name, ignoring namespace prefixes.
func findChild(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func findText(parent *etree.Element, path string) string {
	elem := parent
	for _, part := range strings.Split(path, "/") {
		elem = findChild(elem, part)
		if elem == nil {
			return ""
		}
	}
	return elem.Text()
}
