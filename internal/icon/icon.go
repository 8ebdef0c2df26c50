package icon

import (
	"sync"
	"time"
)

// Source says where the current icon came from.
type Source string

const (
	SourceFetched     Source = "fetched"
	SourceCached      Source = "cached"
	SourcePlaceholder Source = "placeholder"
)

// Icon is a PNG-encoded square image ready to serve.
type Icon struct {
	PNG      []byte
	Source   Source
	LoadedAt time.Time
}

// IsPlaceholder reports whether the icon is the solid-colour fallback.
func (i Icon) IsPlaceholder() bool {
	return i.Source == SourcePlaceholder
}

// Holder keeps the icon currently shown by the form. Safe for concurrent use.
type Holder struct {
	mu      sync.RWMutex
	current Icon
}

// NewHolder returns a Holder serving initial.
func NewHolder(initial Icon) *Holder {
	return &Holder{current: initial}
}

// Get returns the current icon.
func (h *Holder) Get() Icon {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Update replaces the current icon, except that a placeholder never replaces
// a real icon. Returns true if the icon was replaced.
func (h *Holder) Update(next Icon) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if next.IsPlaceholder() && !h.current.IsPlaceholder() && len(h.current.PNG) > 0 {
		return false
	}
	h.current = next
	return true
}
