package sslident

import (
	"context"
	"sync"
	"sync/atomic"
)

// Monitor is a container for a changing certificate descriptor, receiving
// new descriptors from a Watcher and answering identity queries against the
// most recent one. Reading from a Monitor is safe across multiple
// goroutines.
type Monitor struct {
	descriptor atomic.Value // Certificate
	watcher    Watcher
	verifier   *Verifier
	errBack    func(error)
	watchOnce  sync.Once
	closeOnce  sync.Once
	err        error
	loaded     chan struct{}
	done       chan struct{}
}

// Watcher provides a way to construct (and close!) channels that bind a
// Monitor to a changing certificate.
type Watcher interface {
	Watch() (<-chan Certificate, <-chan error)
	Close() error
}

// NewMonitor creates a Monitor that tracks descriptor changes from the
// provided Watcher and answers Covers queries with verifier. A nil verifier
// means exact comparison.
func NewMonitor(w Watcher, verifier *Verifier, errBack func(error)) *Monitor {
	if verifier == nil {
		verifier = defaultVerifier
	}
	if errBack == nil {
		errBack = func(error) {}
	}

	return &Monitor{
		watcher:  w,
		verifier: verifier,
		errBack:  errBack,
		loaded:   make(chan struct{}),
	}
}

// Watch setups the Monitor's channel handles and calls Watch on the held
// Watcher instance.
func (m *Monitor) Watch() {
	m.watchOnce.Do(func() {
		m.done = make(chan struct{})
		go func() {
			defer close(m.done)
			descChan, errChan := m.watcher.Watch()

			var loaded bool
			for descChan != nil && errChan != nil {
				select {
				case descriptor, ok := <-descChan:
					if !ok {
						descChan = nil
						break
					}
					m.descriptor.Store(descriptor)
					if !loaded {
						loaded = true
						close(m.loaded)
					}
				case err, ok := <-errChan:
					if !ok {
						errChan = nil
						break
					}
					m.errBack(err)
					if !loaded {
						loaded = true
						m.err = err
						close(m.loaded)
					}
				}
			}
		}()
	})
}

// Close calls Close on the held Watcher instance. After closing it is no
// longer safe to use this Monitor instance.
func (m *Monitor) Close() (err error) {
	// Prevent Watch after Close, since it launches the watcher routine.
	m.watchOnce.Do(func() {})

	m.closeOnce.Do(func() {
		err = m.watcher.Close()
	})

	if m.done != nil {
		<-m.done
	}

	return err
}

// Wait blocks until the initial load of the descriptor completes. If it
// returns a nil error, Certificate and Covers are ready for use.
func (m *Monitor) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.loaded:
	}

	return m.err
}

// Certificate returns the most recent descriptor and whether one has been
// loaded yet.
func (m *Monitor) Certificate() (Certificate, bool) {
	descriptor, ok := m.descriptor.Load().(Certificate)
	return descriptor, ok
}

// Covers reports whether the most recent descriptor identifies host. It
// fails closed: before the initial load every host is uncovered.
func (m *Monitor) Covers(host string) bool {
	descriptor, ok := m.Certificate()
	if !ok {
		return false
	}

	matched, err := m.verifier.Verify(host, descriptor)
	if err != nil {
		return false
	}

	return matched
}
