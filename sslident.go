// Package sslident verifies, at the application layer, that a TLS peer's
// presented certificate identifies the host the caller intended to reach.
// It implements the RFC 2818 section 3.1 matching rules over an
// already-decoded certificate descriptor: DNS-tagged subjectAltName entries
// take precedence over the subject common name, and a certificate that
// presents any DNS alternative name is matched only against that list,
// never against the common name.
//
// Chain-of-trust validation, revocation checking, and the TLS handshake
// itself are out of scope; they belong to the collaborator that supplies
// the decoded certificate. Wildcard patterns are not expanded.
package sslident

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/net/idna"
)

const ScopeName = "github.com/art4/sslident"

// Verifier applies the RFC 2818 matching rules with a fixed configuration.
// It holds no state across calls apart from its instruments and is safe to
// use from multiple goroutines.
type Verifier struct {
	compare  Comparison
	mapIDNA  bool
	verdicts metric.Int64Counter
}

// New creates a Verifier. Without options it compares exactly and reports
// metrics through the global meter provider.
func New(opts ...Option) (*Verifier, error) {
	cfg := &config{
		MeterProvider: otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	meter := cfg.MeterProvider.Meter(
		ScopeName,
		metric.WithInstrumentationVersion("0.1.0"),
	)

	verdicts, err := meter.Int64Counter(
		"certificate.verifications",
		metric.WithUnit("{verification}"),
		metric.WithDescription("The number of hostname verification verdicts, by outcome."),
	)
	if err != nil {
		return nil, err
	}

	return &Verifier{
		compare:  cfg.Compare,
		mapIDNA:  cfg.MapIDNA,
		verdicts: verdicts,
	}, nil
}

var defaultVerifier = &Verifier{}

// VerifyCertificate reports whether certificate identifies host, using
// exact comparison. See Verifier.Verify for the accepted argument types.
func VerifyCertificate(host, certificate any) (bool, error) {
	return defaultVerifier.Verify(host, certificate)
}

// Verify reports whether certificate identifies host.
//
// host must be a string or a fmt.Stringer. certificate must be a
// Certificate, a non-nil *Certificate or Descriptor, or a map[string]any
// of the conventional {subject: {CN}, extensions: {subjectAltName}} shape.
// Any other type is a caller bug and fails with *InvalidArgumentError.
//
// A well-typed certificate never produces an error: absent, empty, or
// malformed identity fields yield a false verdict instead, so a handshake
// path always gets a uniform accept/reject decision.
func (v *Verifier) Verify(host, certificate any) (bool, error) {
	hostname, ok := hostString(host)
	if !ok {
		return false, &InvalidArgumentError{Position: 1, Name: "host", Expected: "string|fmt.Stringer"}
	}

	id, ok := identityOf(certificate)
	if !ok {
		return false, &InvalidArgumentError{Position: 2, Name: "certificate", Expected: "Certificate|Descriptor|map[string]any"}
	}

	matched := v.match(hostname, id.commonName, parseAltNames(id.altNames))
	v.observe(matched)

	return matched, nil
}

// hostString accepts the two host forms: a native string, or a value that
// knows how to render itself as one.
func hostString(host any) (string, bool) {
	switch h := host.(type) {
	case string:
		return h, true
	case fmt.Stringer:
		return h.String(), true
	}

	return "", false
}

// match applies the RFC 2818 precedence rule. A certificate that presents
// any DNS alternative name commits to that list; the common name is
// consulted only when no DNS entry exists at all.
func (v *Verifier) match(host, commonName string, altNames []string) bool {
	if len(altNames) > 0 {
		for _, name := range altNames {
			if v.equal(host, name) {
				return true
			}
		}
		return false
	}

	return commonName != "" && v.equal(host, commonName)
}

func (v *Verifier) equal(host, name string) bool {
	if v.mapIDNA {
		host = mapIDNA(host)
		name = mapIDNA(name)
	}

	if v.compare == ComparisonFoldASCII {
		return foldASCII(host) == foldASCII(name)
	}

	return host == name
}

func (v *Verifier) observe(matched bool) {
	if v.verdicts == nil {
		return
	}

	outcome := "mismatch"
	if matched {
		outcome = "match"
	}

	v.verdicts.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("verification.outcome", outcome)),
	)
}

func mapIDNA(s string) string {
	mapped, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return s
	}
	return mapped
}

// foldASCII lower-cases ASCII letters only, so that unicode case rules
// never apply to DNS labels.
func foldASCII(in string) string {
	folded := []byte(in)
	changed := false
	for i, c := range folded {
		if 'A' <= c && c <= 'Z' {
			folded[i] = c + 'a' - 'A'
			changed = true
		}
	}

	if !changed {
		return in
	}
	return string(folded)
}
