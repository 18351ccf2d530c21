package studies

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// pathLocks serializes writers of the same file. The in-process slot covers
// concurrent requests, the optional flock covers other processes sharing the
// samples directory.
type pathLocks struct {
	mu       sync.Mutex
	slots    map[string]chan struct{}
	useFiles bool
}

func newPathLocks(useFiles bool) *pathLocks {
	return &pathLocks{
		slots:    make(map[string]chan struct{}),
		useFiles: useFiles,
	}
}

func (p *pathLocks) slotFor(path string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[path]
	if !ok {
		slot = make(chan struct{}, 1)
		p.slots[path] = slot
	}
	return slot
}

// acquire locks path and returns the matching release function.
// It gives up with the context's error when ctx ends first.
func (p *pathLocks) acquire(ctx context.Context, path string) (func(), error) {
	slot := p.slotFor(path)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	unlock := func() { <-slot }

	if !p.useFiles {
		return unlock, nil
	}

	fl := flock.New(path + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		unlock()
		if err == nil {
			err = fmt.Errorf("lock not acquired")
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	return func() {
		_ = fl.Unlock()
		unlock()
	}, nil
}
