package project

import "sync"

// Tracker records the effective project root of the file currently being
// compiled. The compiler sets it once per file before asking for config;
// sibling lookups reuse the last recorded root.
type Tracker struct {
	mu   sync.Mutex
	root string
}

// SetActiveRoot records dir as the active project root.
func (t *Tracker) SetActiveRoot(dir string) {
	t.mu.Lock()
	t.root = dir
	t.mu.Unlock()
}

// ActiveRoot returns the last recorded project root ("" before the first
// compile).
func (t *Tracker) ActiveRoot() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}
