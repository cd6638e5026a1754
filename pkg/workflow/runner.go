package workflow

import (
	"fmt"
	"sync"

	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// Runner rejects a second submission for a key while the first is still running.
// It does not cancel work in flight.
type Runner struct {
	mu      sync.Mutex
	running map[string]bool
}

// NewRunner creates a new runner
func NewRunner() *Runner {
	return &Runner{running: make(map[string]bool)}
}

// Start marks key as running and returns the func that clears it
func (r *Runner) Start(key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running[key] {
		return nil, domain.NewPreconditionError(fmt.Sprintf("%s is already running", key))
	}
	r.running[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.running, key)
			r.mu.Unlock()
		})
	}, nil
}

// Running reports whether key is in flight
func (r *Runner) Running(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[key]
}
