package runner

import (
	"context"
	"sync"
)

// Fake records commands instead of running them. Handler, when set, decides
// the outcome of each call and may touch the filesystem to simulate effects.
type Fake struct {
	mu      sync.Mutex
	Calls   []Command
	Handler func(c Command) error
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, c Command) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	h := f.Handler
	f.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(c)
}

// Names returns the program name of every recorded call, in order.
func (f *Fake) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Name
	}
	return out
}
