// Package fswatcher emits certificate descriptors for a PEM-encoded
// certificate file as it changes on disk.
package fswatcher

import (
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/art4/sslident"
)

type Sentry struct {
	fsnotify *fsnotify.Watcher
	certPath string
	stopChan chan struct{}
	done     chan struct{}
	descChan chan sslident.Certificate
	errChan  chan error
}

const (
	errAddWatcher      = "fswatcher: error adding path to watcher"
	errCreateWatcher   = "fswatcher: error creating watcher"
	errLoadCertificate = "fswatcher: error loading certificate"
	errDecodePEM       = "fswatcher: no PEM certificate data"
)

// errNoPEMData marks a read that found no PEM block. During a reload this
// usually means a rewrite is in flight and the file has been truncated but
// not refilled yet; the next Write event delivers the complete certificate.
var errNoPEMData = errors.New(errDecodePEM)

// New creates a Sentry to watch for file system changes.
func New(cert string) (*Sentry, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errCreateWatcher)
	}

	if err = watcher.Add(cert); err != nil {
		return nil, errors.Wrap(err, errAddWatcher)
	}

	fsw := &Sentry{
		fsnotify: watcher,
		certPath: cert,
		stopChan: make(chan struct{}),
		descChan: make(chan sslident.Certificate, 1),
		errChan:  make(chan error),
	}

	descriptor, err := fsw.loadCertificate()
	if err != nil {
		return nil, err
	}
	fsw.descChan <- descriptor

	return fsw, nil
}

func (w *Sentry) Watch() (<-chan sslident.Certificate, <-chan error) {
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stopChan:
				return
			case event, ok := <-w.fsnotify.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					descriptor, err := w.loadCertificate()
					switch {
					case err == nil:
						w.send(descriptor)
					case errors.Is(err, errNoPEMData):
						// Rewrite in flight; wait for the next Write.
					default:
						w.sendError(err)
					}
				}
			case err, ok := <-w.fsnotify.Errors:
				if !ok {
					return
				}
				w.sendError(err)
			}
		}
	}()

	return w.descChan, w.errChan
}

func (w *Sentry) Close() error {
	err := w.fsnotify.Close()

	close(w.stopChan)
	if w.done != nil {
		<-w.done
	}

	close(w.descChan)
	close(w.errChan)
	return err
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

func (w *Sentry) loadCertificate() (sslident.Certificate, error) {
	data, err := os.ReadFile(w.certPath)
	if err != nil {
		return sslident.Certificate{}, errors.Wrap(err, errLoadCertificate)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return sslident.Certificate{}, errNoPEMData
	}

	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return sslident.Certificate{}, errors.Wrap(err, errLoadCertificate)
	}

	return sslident.FromX509(leaf), nil
}
