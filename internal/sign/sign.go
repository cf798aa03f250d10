// Package sign produces enveloped XMLDSig signatures for assembled
// invoice documents. Credentials come from a PEM certificate/key pair
// or a PKCS#12 container; either way the result is a signer that the
// exporter can plug in, or nil for unsigned output.
package sign

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	dsig "github.com/russellhaering/goxmldsig"
	"golang.org/x/crypto/pkcs12"
)

// XMLSigner signs documents with an enveloped ds:Signature as the
// last child of the root element.
type XMLSigner struct {
	certificate tls.Certificate
}

// NewSigner wraps an already-loaded certificate/key pair.
func NewSigner(cert tls.Certificate) (*XMLSigner, error) {
	if len(cert.Certificate) == 0 {
		return nil, NewCredentialError("certificate", "certificate chain is empty", nil)
	}
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok {
		return nil, NewCredentialError("key", "only RSA private keys are supported", nil)
	}
	return &XMLSigner{certificate: cert}, nil
}

// NewSignerFromPEM builds a signer from PEM-encoded certificate and
// private key bytes. A non-empty passphrase decrypts a legacy
// encrypted key block.
func NewSignerFromPEM(certPEM, keyPEM []byte, passphrase string) (*XMLSigner, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, NewCredentialError("certificate", "no PEM block found", nil)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, NewCredentialError("key", "no PEM block found", nil)
	}

	keyDER := keyBlock.Bytes
	if x509.IsEncryptedPEMBlock(keyBlock) {
		decrypted, err := x509.DecryptPEMBlock(keyBlock, []byte(passphrase))
		if err != nil {
			return nil, NewCredentialError("key", "failed to decrypt private key", err)
		}
		keyDER = decrypted
	}

	key, err := parseRSAKey(keyDER)
	if err != nil {
		return nil, err
	}

	return NewSigner(tls.Certificate{
		Certificate: [][]byte{certBlock.Bytes},
		PrivateKey:  key,
	})
}

// NewSignerFromPKCS12 builds a signer from a PKCS#12 container, the
// usual distribution format for Spanish fiscal certificates.
func NewSignerFromPKCS12(data []byte, password string) (*XMLSigner, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, NewCredentialError("pkcs12", "failed to decode container", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, NewCredentialError("pkcs12", "container does not hold an RSA key", nil)
	}

	return NewSigner(tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  rsaKey,
	})
}

// Certificate exposes the loaded pair for transports that reuse the
// same credentials for mutual TLS.
func (s *XMLSigner) Certificate() tls.Certificate {
	return s.certificate
}

// Sign parses the document, envelopes a signature over its root and
// returns the serialized result. The signature element carries a
// unique Id attribute.
func (s *XMLSigner) Sign(xmlText string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return "", NewCredentialError("document", "cannot parse document to sign", err)
	}

	ctx := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(s.certificate))
	signed, err := ctx.SignEnveloped(doc.Root())
	if err != nil {
		return "", NewCredentialError("signature", "enveloped signing failed", err)
	}

	if sig := findSignature(signed); sig != nil {
		sig.CreateAttr("Id", "Signature-"+uuid.NewString())
	}

	out := etree.NewDocument()
	out.SetRoot(signed)
	return out.WriteToString()
}

// Verify checks the enveloped signature of a signed document against
// the certificate embedded in it. It proves integrity, not trust: the
// embedded certificate is taken at face value.
func Verify(xmlText string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return NewCredentialError("document", "cannot parse signed document", err)
	}

	sig := findSignature(doc.Root())
	if sig == nil {
		return NewCredentialError("signature", "document carries no signature", nil)
	}

	cert, err := embeddedCertificate(sig)
	if err != nil {
		return err
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := ctx.Validate(doc.Root()); err != nil {
		return NewCredentialError("signature", "signature validation failed", err)
	}
	return nil
}

func embeddedCertificate(sig *etree.Element) (*x509.Certificate, error) {
	elem := sig.FindElement("KeyInfo/X509Data/X509Certificate")
	if elem == nil {
		return nil, NewCredentialError("signature", "signature carries no certificate", nil)
	}
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(elem.Text()))
	if err != nil {
		return nil, NewCredentialError("signature", "embedded certificate is not valid base64", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, NewCredentialError("signature", "embedded certificate does not parse", err)
	}
	return cert, nil
}

func findSignature(root *etree.Element) *etree.Element {
	for _, child := range root.ChildElements() {
		if child.Tag == "Signature" {
			return child
		}
	}
	return nil
}

func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, NewCredentialError("key", "unsupported private key format", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, NewCredentialError("key", "only RSA private keys are supported", nil)
	}
	return key, nil
}
