package intent

import "sync"

// Sticky holds the process-wide active-companion scalar (spec.md §3, §9).
// It updates only from Extract's output and is owned by the orchestrator,
// not the transport.
type Sticky struct {
	mu      sync.Mutex
	current string
}

// NewSticky seeds the sticky value from the configured default companion.
func NewSticky(defaultName string) *Sticky {
	return &Sticky{current: defaultName}
}

// Get returns the current sticky companion name.
func (s *Sticky) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set updates the sticky companion name. Called only when Extract found
// an explicit name.
func (s *Sticky) Set(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	s.current = name
	s.mu.Unlock()
}

// Resolve extracts a name from message; if none was found it falls back
// to the sticky value, and if one was found it updates the sticky value
// (explicit addressing always wins).
func (s *Sticky) Resolve(message string) (active string, cleaned string) {
	name, remainder := Extract(message)
	if name == "" {
		return s.Get(), message
	}
	s.Set(name)
	return name, remainder
}
