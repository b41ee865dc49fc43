// Package pollwatcher emits certificate descriptors for a PEM-encoded
// certificate file by polling it at a regular interval. This provides a
// reasonable alternative for environments not supported by the fsnotify
// package.
package pollwatcher

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/art4/sslident"
)

type Sentry struct {
	certPath     string
	pollInterval time.Duration
	stopChan     chan struct{}
	done         chan struct{}
	descChan     chan sslident.Certificate
	errChan      chan error
}

const (
	errStatCertificate = "pollwatcher: error stat()'ing certificate"
	errLoadCertificate = "pollwatcher: error loading certificate"
	errDecodePEM       = "pollwatcher: no PEM certificate data"
)

// errNoPEMData marks a read that found no PEM block. During a reload this
// usually means a rewrite is in flight; the next tick retries the read.
var errNoPEMData = errors.New(errDecodePEM)

func New(cert string, pollInterval time.Duration) *Sentry {
	fsw := &Sentry{
		certPath:     cert,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		descChan:     make(chan sslident.Certificate),
		errChan:      make(chan error),
	}
	return fsw
}

// Watch starts a goroutine that will check the certPath for changes every
// pollInterval and reload the certificate when a change occurs.
func (w *Sentry) Watch() (<-chan sslident.Certificate, <-chan error) {
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		initialStat, err := os.Stat(w.certPath)
		if err != nil {
			w.sendError(errors.Wrap(err, errStatCertificate))
			return
		}

		if err := w.loadCertificate(); err != nil {
			w.sendError(err)
		}

		for {
			select {
			case <-w.stopChan:
				return
			case <-ticker.C:
				stat, err := os.Stat(w.certPath)
				if err != nil {
					w.sendError(errors.Wrap(err, errStatCertificate))
					return
				}
				if stat.Size() != initialStat.Size() || stat.ModTime() != initialStat.ModTime() {
					if err := w.loadCertificate(); err != nil {
						if !errors.Is(err, errNoPEMData) {
							w.sendError(err)
						}
						// Rewrite in flight; retry on the next tick.
						continue
					}
					initialStat = stat
				}
			}
		}
	}()

	return w.descChan, w.errChan
}

func (w *Sentry) Close() error {
	close(w.stopChan)
	if w.done != nil {
		<-w.done
	}

	close(w.descChan)
	close(w.errChan)
	return nil
}

func (w *Sentry) send(descriptor sslident.Certificate) {
	select {
	case w.descChan <- descriptor:
	case <-w.stopChan:
	}
}

func (w *Sentry) sendError(err error) {
	select {
	case w.errChan <- err:
	case <-w.stopChan:
	}
}

func (w *Sentry) loadCertificate() error {
	data, err := os.ReadFile(w.certPath)
	if err != nil {
		return errors.Wrap(err, errLoadCertificate)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return errNoPEMData
	}

	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return errors.Wrap(err, errLoadCertificate)
	}

	w.send(sslident.FromX509(leaf))
	return nil
}
