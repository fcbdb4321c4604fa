package sonority

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/james-see/chordid/pkg/harmony"
)

// Debounced forwards only the last label of a burst to the wrapped sink, once the
// burst has been quiet for the configured window. Chords struck note by note then
// show one label instead of every partial sonority on the way.
type Debounced struct {
	mu       sync.Mutex
	next     Sink
	pending  harmony.Label
	debounce func(f func())
}

// NewDebounced wraps next with a coalescing window of after
func NewDebounced(next Sink, after time.Duration) *Debounced {
	return &Debounced{
		next:     next,
		debounce: debounce.New(after),
	}
}

// Show records label and schedules delivery
func (d *Debounced) Show(label harmony.Label) {
	d.mu.Lock()
	d.pending = label
	d.mu.Unlock()
	d.debounce(d.flush)
}

func (d *Debounced) flush() {
	d.mu.Lock()
	label := d.pending
	d.mu.Unlock()
	d.next.Show(label)
}
