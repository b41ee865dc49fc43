package fakewatcher

import (
	"sync"

	"github.com/art4/sslident"
)

type FakeWatcher struct {
	descCh chan sslident.Certificate
	errCh  chan error

	mu     sync.Mutex
	closed bool
}

func New() *FakeWatcher {
	return &FakeWatcher{
		descCh: make(chan sslident.Certificate),
		errCh:  make(chan error),
	}
}

func (w *FakeWatcher) Watch() (descCh <-chan sslident.Certificate, errCh <-chan error) {
	return w.descCh, w.errCh
}

func (w *FakeWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	close(w.descCh)
	close(w.errCh)
	w.closed = true

	return nil
}

func (w *FakeWatcher) Observe(descriptor sslident.Certificate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.descCh <- descriptor
	}
}

func (w *FakeWatcher) Error(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.errCh <- err
	}
}
