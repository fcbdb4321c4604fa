package input

import (
	"context"

	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/sonority"
	"github.com/sirupsen/logrus"
)

const defaultQueueSize = 256

// Router serializes events from every source into one queue and applies them to a
// tracker one at a time. Hardware note events are mirrored onto the keyboard.
type Router struct {
	tracker  *sonority.Tracker
	keyboard *Keyboard
	queue    chan Event
	log      logrus.FieldLogger
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithKeyboard attaches the on-screen keyboard: its user changes are queued as
// virtual events and hardware notes are mirrored onto it
func WithKeyboard(kb *Keyboard) RouterOption {
	return func(r *Router) {
		r.keyboard = kb
	}
}

// WithQueueSize sets the event buffer size
func WithQueueSize(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.queue = make(chan Event, n)
		}
	}
}

// WithRouterLogger sets the router's logger
func WithRouterLogger(log logrus.FieldLogger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRouter creates a router in front of tracker
func NewRouter(tracker *sonority.Tracker, opts ...RouterOption) *Router {
	r := &Router{
		tracker: tracker,
		queue:   make(chan Event, defaultQueueSize),
		log:     logger.Get(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.keyboard != nil {
		r.keyboard.OnChange(r.keyboardChanged)
	}
	return r
}

// Submit queues ev without blocking. It reports false when the queue is full and
// the event was dropped.
func (r *Router) Submit(ev Event) bool {
	select {
	case r.queue <- ev:
		return true
	default:
		r.log.WithField("event", ev.String()).Warn("input queue full, dropping event")
		return false
	}
}

// Run applies queued events until ctx is done
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.queue:
			r.dispatch(ev)
		}
	}
}

func (r *Router) dispatch(ev Event) {
	r.log.WithField("event", ev.String()).Debug("dispatch")

	switch ev.Kind {
	case NoteOn:
		r.tracker.NoteOn(ev.Pitch, ev.Velocity)
		r.mirror(ev, true)
	case NoteOff:
		r.tracker.NoteOff(ev.Pitch)
		r.mirror(ev, false)
	case KeyChange:
		if err := r.tracker.SelectKey(ev.KeyID); err != nil {
			r.log.WithError(err).Warn("key change rejected")
			return
		}
		r.releaseKeyboard()
	case AllNotesOff:
		r.tracker.Clear()
		r.releaseKeyboard()
	}
}

// mirror shows a hardware note on the keyboard under the echo flag, so the
// keyboard listener does not queue it a second time
func (r *Router) mirror(ev Event, down bool) {
	if r.keyboard == nil || ev.Source != Hardware {
		return
	}
	r.keyboard.Mirror(ev.Pitch, down)
}

func (r *Router) releaseKeyboard() {
	if r.keyboard != nil {
		r.keyboard.ReleaseAll()
	}
}

func (r *Router) keyboardChanged(c Change) {
	if c.Echo {
		return
	}
	kind := NoteOff
	if c.Down {
		kind = NoteOn
	}
	r.Submit(Event{Kind: kind, Source: Virtual, Pitch: c.Pitch})
}
