// Package sonority tracks the set of sounding pitches and reclassifies it after every change
package sonority

import (
	"sort"

	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Sink receives the label computed after every mutation. A blank label means
// nothing recognizable is sounding.
type Sink interface {
	Show(label harmony.Label)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(label harmony.Label)

// Show calls f(label)
func (f SinkFunc) Show(label harmony.Label) {
	f(label)
}

type nopSink struct{}

func (nopSink) Show(harmony.Label) {}

// Option configures a Tracker
type Option func(*Tracker)

// WithKey sets the initial key context
func WithKey(key harmony.Key) Option {
	return func(t *Tracker) {
		t.key = key
	}
}

// WithSink sets where labels are delivered
func WithSink(sink Sink) Option {
	return func(t *Tracker) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// WithLogger sets the logger used for warnings and redundant events
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// Tracker owns the sonority: an ascending multiset of held pitches, its bass and
// interval set, and the label last computed for it.
// A Tracker is not safe for concurrent use; callers serialize events.
type Tracker struct {
	key       harmony.Key
	pitches   []harmony.Pitch
	intervals harmony.IntervalSet
	label     harmony.Label
	sink      Sink
	log       logrus.FieldLogger
}

// New creates a Tracker with no sounding pitches
func New(opts ...Option) *Tracker {
	t := &Tracker{
		sink:      nopSink{},
		log:       logger.Get(),
		intervals: harmony.IntervalSet{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddNote inserts pitch, keeping duplicates, then reclassifies and emits
func (t *Tracker) AddNote(pitch harmony.Pitch) {
	i := sort.Search(len(t.pitches), func(i int) bool { return t.pitches[i] > pitch })
	t.pitches = append(t.pitches, 0)
	copy(t.pitches[i+1:], t.pitches[i:])
	t.pitches[i] = pitch
	t.update()
}

// RemoveNote removes one instance of pitch, then reclassifies and emits.
// Removing a pitch that is not sounding changes nothing and emits nothing.
func (t *Tracker) RemoveNote(pitch harmony.Pitch) {
	i := sort.Search(len(t.pitches), func(i int) bool { return t.pitches[i] >= pitch })
	if i == len(t.pitches) || t.pitches[i] != pitch {
		t.log.WithField("pitch", int(pitch)).Debug("note off for unsounded pitch")
		return
	}
	t.pitches = append(t.pitches[:i], t.pitches[i+1:]...)
	t.update()
}

// NoteOn adds pitch; velocity is ignored
func (t *Tracker) NoteOn(pitch harmony.Pitch, velocity uint8) {
	t.AddNote(pitch)
}

// NoteOff removes pitch
func (t *Tracker) NoteOff(pitch harmony.Pitch) {
	t.RemoveNote(pitch)
}

// SetKey clears the sonority and switches to key. The cleared state is emitted.
func (t *Tracker) SetKey(key harmony.Key) {
	t.key = key
	t.pitches = t.pitches[:0]
	t.log.WithField("key", key.String()).Debug("key changed")
	t.update()
}

// SelectKey switches to the key with the given id, 0 meaning unset
func (t *Tracker) SelectKey(id int) error {
	key, err := harmony.KeyByID(id)
	if err != nil {
		return err
	}
	t.SetKey(key)
	return nil
}

// Clear releases every sounding pitch, keeping the key
func (t *Tracker) Clear() {
	if len(t.pitches) == 0 {
		return
	}
	t.pitches = t.pitches[:0]
	t.update()
}

// Key returns the current key context
func (t *Tracker) Key() harmony.Key {
	return t.key
}

// Bass returns the lowest sounding pitch. ok is false when nothing sounds.
func (t *Tracker) Bass() (bass harmony.Pitch, ok bool) {
	if len(t.pitches) == 0 {
		return 0, false
	}
	return t.pitches[0], true
}

// Intervals returns a copy of the current interval set
func (t *Tracker) Intervals() harmony.IntervalSet {
	return append(harmony.IntervalSet{}, t.intervals...)
}

// Pitches returns a copy of the sounding pitches in ascending order
func (t *Tracker) Pitches() []harmony.Pitch {
	return append([]harmony.Pitch(nil), t.pitches...)
}

// Label returns the label computed after the last mutation
func (t *Tracker) Label() harmony.Label {
	return t.label
}

func (t *Tracker) update() {
	t.intervals = harmony.IntervalSet{}
	if bass, ok := t.Bass(); ok {
		t.intervals = harmony.NewIntervalSet(bass, t.pitches)
	}
	t.label = t.classify()
	t.sink.Show(t.label)
}

func (t *Tracker) classify() harmony.Label {
	bass, ok := t.Bass()
	if !ok || !t.key.IsSet() {
		return harmony.Label{}
	}
	id, ok := harmony.Identify(t.intervals)
	if !ok {
		return harmony.Label{}
	}
	label, err := harmony.Render(id, bass, t.key)
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"chord": id.String(),
			"bass":  int(bass),
			"key":   t.key.String(),
		}).WithError(err).Warn("cannot label sonority")
		return harmony.Label{}
	}
	return label
}
