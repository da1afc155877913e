// Package health holds the worker's self-reported fitness flag.
package health

import "sync/atomic"

// State is a healthy/unhealthy flag. The zero value is healthy.
// Once marked unhealthy it stays unhealthy for the life of the process.
type State struct {
	unhealthy atomic.Bool
}

// New returns a healthy State.
func New() *State {
	return &State{}
}

// MarkUnhealthy flips the state to unhealthy. It reports whether this call
// performed the transition.
func (s *State) MarkUnhealthy() bool {
	return s.unhealthy.CompareAndSwap(false, true)
}

// IsHealthy is safe to call concurrently with MarkUnhealthy.
func (s *State) IsHealthy() bool {
	return !s.unhealthy.Load()
}
