package ledger

import (
	"context"
	"sort"
	"sync"
)

// entry holds the on-ledger permission state for one content identifier.
type entry struct {
	owner   string
	granted map[string]bool
}

// MemLedger is an in-process Client with the same ownership semantics as the
// real registry: owner-only mutation, idempotent grants, revoke of a
// never-granted address is an explicit failure. The mutex stands in for the
// ledger's own transaction ordering. Used in development mode and tests.
type MemLedger struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemLedger returns an empty MemLedger.
func NewMemLedger() *MemLedger {
	return &MemLedger{entries: make(map[string]*entry)}
}

func (l *MemLedger) Register(_ context.Context, contentID, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[contentID]; ok {
		if e.owner != owner {
			return ErrUnauthorized
		}
		return nil
	}
	l.entries[contentID] = &entry{owner: owner, granted: make(map[string]bool)}
	return nil
}

func (l *MemLedger) Grant(_ context.Context, contentID, caller, grantee string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[contentID]
	if !ok || e.owner != caller {
		return ErrUnauthorized
	}
	e.granted[grantee] = true
	return nil
}

func (l *MemLedger) Revoke(_ context.Context, contentID, caller, grantee string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[contentID]
	if !ok || e.owner != caller {
		return ErrUnauthorized
	}
	if !e.granted[grantee] {
		return ErrNotGranted
	}
	delete(e.granted, grantee)
	return nil
}

func (l *MemLedger) CanAccess(_ context.Context, contentID, addr string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[contentID]
	if !ok {
		return false, nil
	}
	return e.owner == addr || e.granted[addr], nil
}

func (l *MemLedger) AllowList(_ context.Context, contentID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[contentID]
	if !ok {
		return nil, nil
	}
	addrs := make([]string, 0, len(e.granted))
	for a := range e.granted {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs, nil
}
