// Package lock serialises byht invocations that mutate the package tree.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// PollInterval is how often a busy lock is retried.
const PollInterval = 200 * time.Millisecond

// Acquire takes an exclusive lock on path, polling until timeout elapses or
// ctx is cancelled. The returned function releases the lock.
func Acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock directory: %w", err)
	}
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another byht command is in progress (lock: %s)", path)
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
