package sonority

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/james-see/chordid/pkg/harmony"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	labels []harmony.Label
}

func (r *recorder) Show(label harmony.Label) {
	r.labels = append(r.labels, label)
}

func (r *recorder) strings() []string {
	res := make([]string, len(r.labels))
	for i, l := range r.labels {
		res[i] = l.String()
	}
	return res
}

func newTracker(t *testing.T, key string) (*Tracker, *recorder, *test.Hook) {
	t.Helper()
	k, err := harmony.ParseKey(key)
	if err != nil {
		t.Fatalf("ParseKey(%q) error = %v", key, err)
	}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	rec := &recorder{}
	return New(WithKey(k), WithSink(rec), WithLogger(log)), rec, hook
}

func addAll(tr *Tracker, ps ...int) {
	for _, p := range ps {
		tr.AddNote(harmony.Pitch(p))
	}
}

func TestTrackerEmitsAfterEveryMutation(t *testing.T) {
	tr, rec, _ := newTracker(t, "C major")

	addAll(tr, 60, 64, 67)
	assert.Equal(t, []string{"", "", "I"}, rec.strings())

	tr.RemoveNote(60)
	assert.Equal(t, []string{"", "", "I", ""}, rec.strings())

	tr.AddNote(72)
	assert.Equal(t, "I6", tr.Label().String())
	assert.Len(t, rec.labels, 5)
}

func TestTrackerScenarios(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		notes []int
		want  string
	}{
		{"tonic", "C major", []int{60, 64, 67}, "I"},
		{"first inversion", "C major", []int{64, 67, 72}, "I6"},
		{"cadential six-four", "C major", []int{67, 72, 76}, "V6/4"},
		{"cadential six-four with fifth", "C major", []int{67, 72, 76, 74}, "V6/4"},
		{"leading-tone diminished seventh", "C major", []int{59, 62, 65, 68}, "viio7"},
		{"open fifth", "C major", []int{60, 67}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _, _ := newTracker(t, tt.key)
			addAll(tr, tt.notes...)
			assert.Equal(t, tt.want, tr.Label().String())
		})
	}
}

func TestTrackerState(t *testing.T) {
	tr, _, _ := newTracker(t, "C major")
	addAll(tr, 67, 55, 71, 62, 65)

	bass, ok := tr.Bass()
	assert.True(t, ok)
	assert.Equal(t, harmony.Pitch(55), bass)
	assert.Equal(t, []harmony.Pitch{55, 62, 65, 67, 71}, tr.Pitches())
	assert.Equal(t, harmony.IntervalSet{4, 7, 10}, tr.Intervals())
	assert.Equal(t, "V7", tr.Label().String())
}

func TestTrackerRoundTrip(t *testing.T) {
	tr, _, _ := newTracker(t, "G major")
	addAll(tr, 62, 67, 71)
	before := tr.Label()

	tr.AddNote(65)
	tr.RemoveNote(65)

	assert.Equal(t, before, tr.Label())
	assert.Equal(t, []harmony.Pitch{62, 67, 71}, tr.Pitches())
}

func TestTrackerPermutationInvariance(t *testing.T) {
	notes := []int{53, 59, 62, 67, 74}
	ref, _, _ := newTracker(t, "C major")
	addAll(ref, notes...)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		perm := append([]int(nil), notes...)
		rnd.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		tr, _, _ := newTracker(t, "C major")
		addAll(tr, perm...)
		assert.Equal(t, ref.Label(), tr.Label(), "order %v", perm)
		assert.Equal(t, ref.Pitches(), tr.Pitches())
	}
}

func TestTrackerDuplicatePitches(t *testing.T) {
	tr, _, _ := newTracker(t, "C major")
	addAll(tr, 60, 60, 64, 67)

	tr.RemoveNote(60)
	assert.Equal(t, []harmony.Pitch{60, 64, 67}, tr.Pitches())
	assert.Equal(t, "I", tr.Label().String())

	tr.RemoveNote(60)
	assert.True(t, tr.Label().IsBlank())
}

func TestTrackerRedundantRemoval(t *testing.T) {
	tr, rec, hook := newTracker(t, "C major")
	addAll(tr, 60, 64, 67)
	emitted := len(rec.labels)

	tr.RemoveNote(61)

	assert.Len(t, rec.labels, emitted)
	assert.Equal(t, "I", tr.Label().String())
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
		assert.Equal(t, 61, hook.LastEntry().Data["pitch"])
	}
}

func TestTrackerSetKeyClears(t *testing.T) {
	tr, rec, _ := newTracker(t, "C major")
	addAll(tr, 60, 64, 67)

	tr.SetKey(harmony.Keys()[15])

	assert.Empty(t, tr.Pitches())
	assert.Empty(t, tr.Intervals())
	assert.True(t, tr.Label().IsBlank())
	assert.True(t, rec.labels[len(rec.labels)-1].IsBlank())
	assert.Equal(t, "G major", tr.Key().Name)
}

func TestTrackerUnsetKeySuppressesLabels(t *testing.T) {
	tr, rec, _ := newTracker(t, "")
	addAll(tr, 60, 64, 67)

	assert.Equal(t, []harmony.Pitch{60, 64, 67}, tr.Pitches())
	assert.Equal(t, harmony.IntervalSet{4, 7}, tr.Intervals())
	for _, l := range rec.labels {
		assert.True(t, l.IsBlank())
	}
}

func TestTrackerSelectKey(t *testing.T) {
	tr, _, _ := newTracker(t, "C major")

	assert.NoError(t, tr.SelectKey(23))
	assert.Equal(t, "A minor", tr.Key().Name)

	err := tr.SelectKey(31)
	assert.True(t, errors.Is(err, harmony.ErrUnknownKey))
	assert.Equal(t, "A minor", tr.Key().Name)

	assert.NoError(t, tr.SelectKey(0))
	assert.False(t, tr.Key().IsSet())
}

func TestTrackerUnresolvedDiminishedSeventhWarns(t *testing.T) {
	tr, _, hook := newTracker(t, "C major")
	addAll(tr, 61, 64, 67, 70)

	assert.True(t, tr.Label().IsBlank())
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "diminished-seventh", hook.LastEntry().Data["chord"])
	}
}

func TestTrackerNoteEvents(t *testing.T) {
	tr, _, _ := newTracker(t, "F major")
	tr.NoteOn(53, 100)
	tr.NoteOn(57, 0)
	tr.NoteOn(60, 64)
	assert.Equal(t, "I", tr.Label().String())

	tr.NoteOff(53)
	tr.NoteOff(57)
	tr.NoteOff(60)
	assert.Empty(t, tr.Pitches())
	assert.True(t, tr.Label().IsBlank())
}

func TestTrackerClear(t *testing.T) {
	tr, rec, _ := newTracker(t, "C major")
	tr.Clear()
	assert.Empty(t, rec.labels)

	addAll(tr, 60, 64, 67)
	tr.Clear()
	assert.Empty(t, tr.Pitches())
	assert.Equal(t, "C major", tr.Key().Name)
	assert.True(t, rec.labels[len(rec.labels)-1].IsBlank())
}

func TestSinkFunc(t *testing.T) {
	var got []string
	tr := New(WithKey(harmony.Keys()[0]), WithSink(SinkFunc(func(l harmony.Label) {
		got = append(got, l.String())
	})), WithLogger(logrus.New()))
	addAll(tr, 59, 62, 65, 68)
	assert.Equal(t, "viio7", got[len(got)-1])
}
