package persist

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultTimeout = 5 * time.Second

// Mirror runs store calls off the live-session path. Each call gets its own
// goroutine and deadline; failures are logged and swallowed. A nil *Mirror
// is valid and does nothing, so callers never need to branch.
type Mirror struct {
	store   Store
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewMirror(store Store) *Mirror {
	return &Mirror{store: store, timeout: defaultTimeout}
}

// Do schedules fn against the backing store. op names the operation for logs.
func (m *Mirror) Do(op string, fn func(ctx context.Context, s Store) error) {
	if m == nil || m.store == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := fn(ctx, m.store); err != nil {
			log.Printf("persist %s: %v", op, err)
		}
	}()
}

// Wait blocks until every scheduled call has finished. Test helper.
func (m *Mirror) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}
