package compiler

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

// Memoize wraps an oracle so each target is described at most once.
// Concurrent lookups of the same target share one call to next.
// Failures are not cached. A caller whose ctx ends stops waiting, while the
// shared lookup runs on for the others.
func Memoize(next binder.Oracle) binder.Oracle {
	return &memoOracle{
		next:  next,
		cache: make(map[string]*ir.Signature),
	}
}

type memoOracle struct {
	next  binder.Oracle
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*ir.Signature
}

func (m *memoOracle) Describe(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error) {
	key := ref.QualifiedName()

	m.mu.RLock()
	sig, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return sig, nil
	}

	// The flight runs detached from ctx so one caller's cancellation does
	// not fail the others waiting on it.
	flight := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		// A flight that finished after our cache miss may have filled it.
		m.mu.RLock()
		sig, ok := m.cache[key]
		m.mu.RUnlock()
		if ok {
			return sig, nil
		}

		sig, err := m.next.Describe(flight, ref)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[key] = sig
		m.mu.Unlock()
		return sig, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ir.Signature), nil
	}
}
