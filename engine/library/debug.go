package library

import (
	"github.com/sasha-s/go-deadlock"
)

// ValidateSaneExecutionTime holds a deadlock-checked mutex until the returned
// func is called. go-deadlock reports (with stacks) if that takes longer than
// its lock timeout, which flags a transaction that has stalled the runtime.
func ValidateSaneExecutionTime() func() {
	mu := deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return func() {
		mu.Unlock()
	}
}
