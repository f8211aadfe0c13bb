package screen

import (
	"context"
	"sync"

	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/relation"
)

// View holds the state of one mounted screen. Every successful load replaces
// the whole record list.
type View struct {
	mu      sync.RWMutex
	result  Result
	version int
}

// NewView returns an empty view.
func NewView() *View {
	return &View{result: Result{Records: []relation.Record{}}}
}

// Replace swaps in r as the view's state.
func (v *View) Replace(r Result) {
	if r.Records == nil {
		r.Records = []relation.Record{}
	}
	v.mu.Lock()
	v.result = r
	v.version++
	v.mu.Unlock()
}

// Snapshot returns the current state and how many times it has been replaced.
func (v *View) Snapshot() (Result, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.result, v.version
}

// Mount starts loading s for identity in its own goroutine. The result is
// committed only if ctx is still live when the load completes. The returned
// channel yields the load's error, or nil once the state is committed, and is
// then closed.
func (v *View) Mount(ctx context.Context, l *Loader, s Screen, identity auth.Identity) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)

		res, err := l.Load(ctx, s, identity)
		if err != nil {
			done <- err
			return
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if ctx.Err() != nil {
			done <- ErrStale
			return
		}
		if res.Records == nil {
			res.Records = []relation.Record{}
		}
		v.result = res
		v.version++
		done <- nil
	}()
	return done
}
