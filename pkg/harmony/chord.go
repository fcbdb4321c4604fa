package harmony

import (
	"fmt"
	"sort"
	"strings"
)

// Pitch is an absolute semitone number, MIDI note number compatible
type Pitch int

// Class returns the pitch class (0-11) of p
func (p Pitch) Class() int {
	return mod12(int(p))
}

func mod12(n int) int {
	return (n%12 + 12) % 12
}

// IntervalSet is the sorted set of unique nonzero pitch-class intervals above a bass
type IntervalSet []int

// NewIntervalSet computes the interval set of pitches relative to bass
func NewIntervalSet(bass Pitch, pitches []Pitch) IntervalSet {
	seen := make(map[int]bool)
	res := IntervalSet{}
	for _, p := range pitches {
		interval := mod12(int(p - bass))
		if interval == 0 || seen[interval] {
			continue
		}
		seen[interval] = true
		res = append(res, interval)
	}
	sort.Ints(res)
	return res
}

// Key returns the lookup key for the set, e.g. "4-7"
func (s IntervalSet) Key() string {
	var b strings.Builder
	for i, interval := range s {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%d", interval)
	}
	return b.String()
}

// Identity names a chord type together with its inversion
type Identity int

const (
	Unknown Identity = iota
	MajorTriadRoot
	MajorTriadFirst
	MajorTriadSecond
	MajorTriadSecondAddedFifth
	MinorTriadRoot
	MinorTriadFirst
	MinorTriadSecond
	AugmentedTriad
	DiminishedTriadRoot
	DiminishedTriadFirst
	DiminishedTriadSecond
	SuspendedFiveFourTwo
	DominantSeventhRoot
	DominantSeventhFirst
	DominantSeventhSecond
	DominantSeventhThird
	DiminishedSeventh
	HalfDiminishedSeventhRoot
	HalfDiminishedSeventhFirst
	HalfDiminishedSeventhSecond
	HalfDiminishedSeventhThird
	MinorSeventhRoot
	MinorSeventhFirst
	MinorSeventhSecond
	MinorSeventhThird
	MajorSeventhRoot
	MajorSeventhFirst
	MajorSeventhSecond
	MajorSeventhThird
)

var identityNames = map[Identity]string{
	Unknown:                     "unknown",
	MajorTriadRoot:              "major-triad-root",
	MajorTriadFirst:             "major-triad-first-inversion",
	MajorTriadSecond:            "major-triad-second-inversion",
	MajorTriadSecondAddedFifth:  "major-triad-second-inversion-added-fifth",
	MinorTriadRoot:              "minor-triad-root",
	MinorTriadFirst:             "minor-triad-first-inversion",
	MinorTriadSecond:            "minor-triad-second-inversion",
	AugmentedTriad:              "augmented-triad",
	DiminishedTriadRoot:         "diminished-triad-root",
	DiminishedTriadFirst:        "diminished-triad-first-inversion",
	DiminishedTriadSecond:       "diminished-triad-second-inversion",
	SuspendedFiveFourTwo:        "suspended-5-4-2",
	DominantSeventhRoot:         "dominant-seventh-root",
	DominantSeventhFirst:        "dominant-seventh-first-inversion",
	DominantSeventhSecond:       "dominant-seventh-second-inversion",
	DominantSeventhThird:        "dominant-seventh-third-inversion",
	DiminishedSeventh:           "diminished-seventh",
	HalfDiminishedSeventhRoot:   "half-diminished-seventh-root",
	HalfDiminishedSeventhFirst:  "half-diminished-seventh-first-inversion",
	HalfDiminishedSeventhSecond: "half-diminished-seventh-second-inversion",
	HalfDiminishedSeventhThird:  "half-diminished-seventh-third-inversion",
	MinorSeventhRoot:            "minor-seventh-root",
	MinorSeventhFirst:           "minor-seventh-first-inversion",
	MinorSeventhSecond:          "minor-seventh-second-inversion",
	MinorSeventhThird:           "minor-seventh-third-inversion",
	MajorSeventhRoot:            "major-seventh-root",
	MajorSeventhFirst:           "major-seventh-first-inversion",
	MajorSeventhSecond:          "major-seventh-second-inversion",
	MajorSeventhThird:           "major-seventh-third-inversion",
}

func (id Identity) String() string {
	if name, ok := identityNames[id]; ok {
		return name
	}
	return fmt.Sprintf("identity(%d)", int(id))
}

// MarshalText encodes the identity by name
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes an identity name
func (id *Identity) UnmarshalText(text []byte) error {
	for k, name := range identityNames {
		if name == string(text) {
			*id = k
			return nil
		}
	}
	return fmt.Errorf("unknown chord identity %q", text)
}

// chordTable maps an exact interval set key to its chord identity
var chordTable = map[string]Identity{
	// triads
	"4-7":   MajorTriadRoot,
	"3-8":   MajorTriadFirst,
	"5-9":   MajorTriadSecond,
	"5-7-9": MajorTriadSecondAddedFifth,
	"3-7":   MinorTriadRoot,
	"4-9":   MinorTriadFirst,
	"5-8":   MinorTriadSecond,
	"4-8":   AugmentedTriad,
	"3-6":   DiminishedTriadRoot,
	"3-9":   DiminishedTriadFirst,
	"6-9":   DiminishedTriadSecond,
	"2-5-7": SuspendedFiveFourTwo,

	// sevenths
	"4-7-10": DominantSeventhRoot,
	"3-6-8":  DominantSeventhFirst,
	"3-5-9":  DominantSeventhSecond,
	"2-6-9":  DominantSeventhThird,
	"3-6-9":  DiminishedSeventh,
	"3-6-10": HalfDiminishedSeventhRoot,
	"3-7-9":  HalfDiminishedSeventhFirst,
	"4-6-9":  HalfDiminishedSeventhSecond,
	"2-5-8":  HalfDiminishedSeventhThird,
	"3-7-10": MinorSeventhRoot,
	"4-7-9":  MinorSeventhFirst,
	"3-5-8":  MinorSeventhSecond,
	"2-5-9":  MinorSeventhThird,
	"4-7-11": MajorSeventhRoot,
	"3-7-8":  MajorSeventhFirst,
	"4-5-9":  MajorSeventhSecond,
	"1-5-8":  MajorSeventhThird,
}

// Identify looks up the chord identity for an interval set. Sets with fewer than two
// intervals are ambiguous and never match.
func Identify(intervals IntervalSet) (Identity, bool) {
	if len(intervals) < 2 {
		return Unknown, false
	}
	id, ok := chordTable[intervals.Key()]
	return id, ok
}
