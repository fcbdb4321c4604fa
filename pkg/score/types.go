// Package score runs Standard MIDI Files through a sonority tracker and reports or
// embeds the resulting Roman-numeral analysis
package score

import (
	"errors"

	"github.com/james-see/chordid/pkg/harmony"
)

var (
	// ErrNoNotes is returned for files without any note events
	ErrNoNotes = errors.New("no note events in MIDI file")
	// ErrNoKey is returned when no key was given and the file has no key signature
	ErrNoKey = errors.New("no key given and no key signature in MIDI file")
	// ErrNotMIDI is returned for data that is not a Standard MIDI File
	ErrNotMIDI = errors.New("not a Standard MIDI File")
)

// KeySource records where a timeline's key came from
type KeySource string

const (
	KeyGiven     KeySource = "given"
	KeySignature KeySource = "signature"
)

// Segment is a span of the file over which the label does not change
type Segment struct {
	Tick    int64         `json:"tick"`
	Seconds float64       `json:"seconds"`
	Pitches []int         `json:"pitches"`
	Key     string        `json:"key"`
	Label   harmony.Label `json:"label"`
	Text    string        `json:"text"`
}

// Timeline is the analysis of a whole file
type Timeline struct {
	Key        harmony.Key `json:"key"`
	KeySource  KeySource   `json:"key_source"`
	Resolution uint16      `json:"resolution"`
	Tempo      float64     `json:"tempo"` // initial BPM
	Duration   float64     `json:"duration"`
	Segments   []Segment   `json:"segments"`
}

// Labelled returns the segments that carry a label
func (t *Timeline) Labelled() []Segment {
	var res []Segment
	for _, s := range t.Segments {
		if !s.Label.IsBlank() {
			res = append(res, s)
		}
	}
	return res
}
