package app

import (
	"sync"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/metrics"
)

// DefaultPreviewSize is the number of echo entries shown in the preview.
const DefaultPreviewSize = 10

// EchoBuffer holds records submitted during this process lifetime. It is
// append-only and never feeds the projection.
type EchoBuffer struct {
	mu      sync.RWMutex
	entries []model.EchoEntry
}

// NewEchoBuffer creates an empty buffer.
func NewEchoBuffer() *EchoBuffer {
	return &EchoBuffer{}
}

// Append adds an entry to the end.
func (b *EchoBuffer) Append(e model.EchoEntry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	n := len(b.entries)
	b.mu.Unlock()
	metrics.UpdateEchoEntries(n)
}

// Len returns the number of entries.
func (b *EchoBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Preview returns up to n of the newest entries, newest first.
func (b *EchoBuffer) Preview(n int) []model.EchoEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || len(b.entries) == 0 {
		return nil
	}
	n = min(n, len(b.entries))
	out := make([]model.EchoEntry, n)
	for i := 0; i < n; i++ {
		out[i] = b.entries[len(b.entries)-1-i]
	}
	return out
}
