// Package pkitest provides a few utility functions shared across tests.
package pkitest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

// NewPrivateKey is a test helper that creates a new ECDSA private key.
func NewPrivateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NilError(t, err, "generating ecdsa private key")
	return priv
}

// PemEncodeCertificate is a test helper that self-signs the provided
// certificate template with the ECDSA private key and encodes it into PEM.
func PemEncodeCertificate(t *testing.T, cert x509.Certificate, key *ecdsa.PrivateKey) []byte {
	t.Helper()
	p, err := x509.CreateCertificate(rand.Reader, &cert, &cert, &key.PublicKey, key)
	assert.NilError(t, err, "creating certificate")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: p}
	return pem.EncodeToMemory(block)
}

// NewLeaf is a test helper that builds and re-parses a self-signed leaf
// certificate with the given subject common name and DNS alternative names.
func NewLeaf(t *testing.T, commonName string, dnsNames ...string) *x509.Certificate {
	t.Helper()
	key := NewPrivateKey(t)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		DNSNames:     dnsNames,
		NotBefore:    time.Date(2006, time.January, 2, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2036, time.January, 2, 0, 0, 0, 0, time.UTC),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	assert.NilError(t, err, "creating certificate")

	leaf, err := x509.ParseCertificate(der)
	assert.NilError(t, err, "parsing certificate")
	return leaf
}
