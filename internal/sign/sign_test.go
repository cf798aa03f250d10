package sign_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae/internal/sign"
)

const sampleDocument = `<fe:Facturae xmlns:fe="http://www.facturae.es/Facturae/2014/v3.2.1/Facturae" xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><FileHeader><SchemaVersion>3.2.1</SchemaVersion></FileHeader></fe:Facturae>`

func selfSignedPair(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "Perico de los Palotes S.A."},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

func TestSign_EnvelopesSignature(t *testing.T) {
	certPEM, keyPEM := selfSignedPair(t)
	signer, err := sign.NewSignerFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	signed, err := signer.Sign(sampleDocument)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(signed))
	root := doc.Root()
	assert.Equal(t, "Facturae", root.Tag)

	// Original content survives and the signature is the last child
	require.NotNil(t, root.FindElement("FileHeader/SchemaVersion"))
	children := root.ChildElements()
	sig := children[len(children)-1]
	assert.Equal(t, "Signature", sig.Tag)
	assert.True(t, strings.HasPrefix(sig.SelectAttrValue("Id", ""), "Signature-"))
	require.NotNil(t, sig.FindElement("KeyInfo/X509Data/X509Certificate"))
}

func TestSign_UniqueSignatureIDs(t *testing.T) {
	certPEM, keyPEM := selfSignedPair(t)
	signer, err := sign.NewSignerFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	first, err := signer.Sign(sampleDocument)
	require.NoError(t, err)
	second, err := signer.Sign(sampleDocument)
	require.NoError(t, err)

	id := func(signed string) string {
		doc := etree.NewDocument()
		require.NoError(t, doc.ReadFromString(signed))
		children := doc.Root().ChildElements()
		return children[len(children)-1].SelectAttrValue("Id", "")
	}
	assert.NotEqual(t, id(first), id(second))
}

func TestVerify_SignedDocument(t *testing.T) {
	certPEM, keyPEM := selfSignedPair(t)
	signer, err := sign.NewSignerFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	signed, err := signer.Sign(sampleDocument)
	require.NoError(t, err)

	assert.NoError(t, sign.Verify(signed))
}

func TestVerify_RejectsTampering(t *testing.T) {
	certPEM, keyPEM := selfSignedPair(t)
	signer, err := sign.NewSignerFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	signed, err := signer.Sign(sampleDocument)
	require.NoError(t, err)

	tampered := strings.Replace(signed, "3.2.1", "3.2.2", 1)
	err = sign.Verify(tampered)
	require.Error(t, err)

	var cerr *sign.CredentialError
	assert.ErrorAs(t, err, &cerr)
}

func TestVerify_UnsignedDocument(t *testing.T) {
	err := sign.Verify(sampleDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature")
}

func TestNewSignerFromPEM_BadInput(t *testing.T) {
	certPEM, keyPEM := selfSignedPair(t)

	tests := []struct {
		name string
		cert []byte
		key  []byte
	}{
		{"garbage certificate", []byte("not a pem"), keyPEM},
		{"garbage key", certPEM, []byte("not a pem")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sign.NewSignerFromPEM(tt.cert, tt.key, "")
			require.Error(t, err)

			var cerr *sign.CredentialError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestNewSignerFromPKCS12_BadContainer(t *testing.T) {
	_, err := sign.NewSignerFromPKCS12([]byte("definitely not pkcs12"), "secret")
	require.Error(t, err)

	var cerr *sign.CredentialError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "pkcs12", cerr.Source)
}
