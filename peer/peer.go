// Package peer builds tls.Config verification callbacks that check, after
// the handshake, that the peer's leaf certificate identifies the host the
// caller intended to reach. Chain trust stays with crypto/tls; this is the
// application-layer identity check only.
package peer

import (
	"crypto/tls"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/art4/sslident"
)

const (
	errNoPeerCertificate = "peer: connection presents no certificate"
	errOutsideValidity   = "peer: certificate used outside its validity window"
	errHostMismatch      = "peer: certificate does not identify host"
)

type config struct {
	Clock    clockwork.Clock
	Verifier *sslident.Verifier
}

type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) {
	f(cfg)
}

// WithClock overrides the clock used for the validity-window check.
func WithClock(clock clockwork.Clock) Option {
	return optionFunc(func(cfg *config) {
		if clock != nil {
			cfg.Clock = clock
		}
	})
}

// WithVerifier overrides the identity verifier, for callers that need a
// non-default comparison mode.
func WithVerifier(verifier *sslident.Verifier) Option {
	return optionFunc(func(cfg *config) {
		if verifier != nil {
			cfg.Verifier = verifier
		}
	})
}

// VerifyConnection returns a function suitable for the VerifyConnection
// member of a tls.Config. It checks that the leaf certificate identifies
// host and is inside its validity window.
func VerifyConnection(host string, opts ...Option) func(cs tls.ConnectionState) error {
	cfg := &config{
		Clock: clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New(errNoPeerCertificate)
		}
		leaf := cs.PeerCertificates[0]

		now := cfg.Clock.Now()
		if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
			return errors.New(errOutsideValidity)
		}

		verify := sslident.VerifyCertificate
		if cfg.Verifier != nil {
			verify = cfg.Verifier.Verify
		}

		matched, err := verify(host, sslident.FromX509(leaf))
		if err != nil {
			return err
		}
		if !matched {
			return errors.Errorf("%s %q", errHostMismatch, host)
		}

		return nil
	}
}
