// Package directory maps a social-media identity to its ledger address.
// Resolution is read-through with write-on-miss: unknown identities get
// a freshly created daemon account, and the mapping is persisted before
// the address is handed out.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is the persistence backend for the identity→address mapping.
type Store interface {
	Get(ctx context.Context, identity string) (address string, ok bool, err error)
	Put(ctx context.Context, identity, address string) error
}

// AccountCreator is the one daemon operation the directory needs.
type AccountCreator interface {
	CreateAccount(ctx context.Context) (string, error)
}

// Error marks a failed resolution so callers can tell directory trouble
// apart from command validation failures.
type Error struct {
	Identity string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("directory: resolve %s: %v", e.Identity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type inflight struct {
	done    chan struct{}
	address string
	err     error
}

// Directory resolves identities to addresses. Concurrent first-time
// resolutions for the same identity are funneled through a single-flight
// gate so at most one account is ever created per identity.
type Directory struct {
	store  Store
	ledger AccountCreator

	mu    sync.Mutex
	calls map[string]*inflight
}

func New(store Store, ledger AccountCreator) *Directory {
	return &Directory{
		store:  store,
		ledger: ledger,
		calls:  make(map[string]*inflight),
	}
}

// Resolve returns the ledger address for identity, creating one on first
// use. The identity is case-normalized before lookup.
func (d *Directory) Resolve(ctx context.Context, identity string) (string, error) {
	identity = Normalize(identity)

	d.mu.Lock()
	if call, ok := d.calls[identity]; ok {
		d.mu.Unlock()
		select {
		case <-call.done:
			return call.address, call.err
		case <-ctx.Done():
			return "", &Error{Identity: identity, Err: ctx.Err()}
		}
	}
	call := &inflight{done: make(chan struct{})}
	d.calls[identity] = call
	d.mu.Unlock()

	call.address, call.err = d.resolve(ctx, identity)
	close(call.done)

	d.mu.Lock()
	delete(d.calls, identity)
	d.mu.Unlock()

	return call.address, call.err
}

func (d *Directory) resolve(ctx context.Context, identity string) (string, error) {
	address, ok, err := d.store.Get(ctx, identity)
	if err != nil {
		return "", &Error{Identity: identity, Err: err}
	}
	if ok {
		return address, nil
	}
	address, err = d.ledger.CreateAccount(ctx)
	if err != nil {
		return "", &Error{Identity: identity, Err: err}
	}
	if err := d.store.Put(ctx, identity, address); err != nil {
		return "", &Error{Identity: identity, Err: err}
	}
	return address, nil
}

// Normalize lower-cases a handle and strips surrounding whitespace and a
// leading mention marker.
func Normalize(identity string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(identity), "@"))
}
