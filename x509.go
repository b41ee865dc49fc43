package sslident

import (
	"crypto/x509"
	"strings"
)

// FromX509 converts an already-parsed certificate into the descriptor shape
// consumed by Verify. Only DNS alternative names carry over; IP, email, and
// URI SANs are not hostname identities under this scheme.
func FromX509(cert *x509.Certificate) Certificate {
	descriptor := Certificate{
		Subject: Subject{CommonName: cert.Subject.CommonName},
	}

	if len(cert.DNSNames) > 0 {
		entries := make([]string, len(cert.DNSNames))
		for i, name := range cert.DNSNames {
			entries[i] = altNameTag + name
		}
		descriptor.Extensions.SubjectAltName = strings.Join(entries, ", ")
	}

	return descriptor
}
