package harmony

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedInversion is returned when a diminished seventh sits on a bass degree
// that does not belong to the key's leading-tone seventh chord
var ErrUnresolvedInversion = errors.New("unresolved diminished seventh inversion")

// ErrNoKey is returned when rendering is attempted without a key context
var ErrNoKey = errors.New("no key selected")

// spelling is the numeral position (0 = I ... 6 = VII) and accidental of a chromatic degree
type spelling struct {
	step       int
	accidental Accidental
}

// spellings is indexed by [mode][spelling class][chromatic degree above the tonic].
var spellings = [2][2][12]spelling{
	Major: {
		FlatKeys: {
			{0, Natural}, {1, Flat}, {1, Natural}, {2, Flat}, {2, Natural}, {3, Natural},
			{4, Flat}, {4, Natural}, {5, Flat}, {5, Natural}, {6, Flat}, {6, Natural},
		},
		SharpKeys: {
			{0, Natural}, {0, Sharp}, {1, Natural}, {1, Sharp}, {2, Natural}, {3, Natural},
			{3, Sharp}, {4, Natural}, {4, Sharp}, {5, Natural}, {5, Sharp}, {6, Natural},
		},
	},
	// the minor third and sixth are diatonic and the major third and sixth raised;
	// degree 10 follows the flat/sharp partition as in major
	Minor: {
		FlatKeys: {
			{0, Natural}, {1, Flat}, {1, Natural}, {2, Natural}, {2, Sharp}, {3, Natural},
			{4, Flat}, {4, Natural}, {5, Natural}, {5, Sharp}, {6, Flat}, {6, Natural},
		},
		SharpKeys: {
			{0, Natural}, {0, Sharp}, {1, Natural}, {2, Natural}, {2, Sharp}, {3, Natural},
			{3, Sharp}, {4, Natural}, {5, Natural}, {5, Sharp}, {5, Sharp}, {6, Natural},
		},
	},
}

// voicing is the rendering rule of one chord identity
type voicing struct {
	rootOffset int // semitones from the bass up to the chord root
	upper      bool
	figures    []string
	quality    Quality
	cadential  bool // second-inversion major triad; on the tonic it reads as V6/4
	symmetric  bool // inversion resolved from the bass degree
}

var (
	figRoot       []string
	figSix        = []string{"6"}
	figSixFour    = []string{"6", "4"}
	figSeven      = []string{"7"}
	figSixFive    = []string{"6", "5"}
	figFourThree  = []string{"4", "3"}
	figFourTwo    = []string{"4", "2"}
	seventhFigure = [4][]string{figSeven, figSixFive, figFourThree, figFourTwo}
)

var voicings = map[Identity]voicing{
	MajorTriadRoot:             {rootOffset: 0, upper: true, figures: figRoot},
	MajorTriadFirst:            {rootOffset: 8, upper: true, figures: figSix},
	MajorTriadSecond:           {rootOffset: 5, upper: true, figures: figSixFour, cadential: true},
	MajorTriadSecondAddedFifth: {rootOffset: 5, upper: true, figures: figSixFour, cadential: true},
	MinorTriadRoot:             {rootOffset: 0, upper: false, figures: figRoot},
	MinorTriadFirst:            {rootOffset: 9, upper: false, figures: figSix},
	MinorTriadSecond:           {rootOffset: 5, upper: false, figures: figSixFour},
	AugmentedTriad:             {rootOffset: 0, upper: true, figures: figRoot, quality: Augmented},
	DiminishedTriadRoot:        {rootOffset: 0, upper: false, figures: figRoot, quality: Diminished},
	DiminishedTriadFirst:       {rootOffset: 9, upper: false, figures: figSix, quality: Diminished},
	DiminishedTriadSecond:      {rootOffset: 6, upper: false, figures: figSixFour, quality: Diminished},
	SuspendedFiveFourTwo:       {rootOffset: 0, upper: true, figures: figFourTwo},

	DominantSeventhRoot:   {rootOffset: 0, upper: true, figures: figSeven},
	DominantSeventhFirst:  {rootOffset: 8, upper: true, figures: figSixFive},
	DominantSeventhSecond: {rootOffset: 5, upper: true, figures: figFourThree},
	DominantSeventhThird:  {rootOffset: 2, upper: true, figures: figFourTwo},

	DiminishedSeventh: {upper: false, quality: Diminished, symmetric: true},

	HalfDiminishedSeventhRoot:   {rootOffset: 0, upper: false, figures: figSeven, quality: HalfDiminished},
	HalfDiminishedSeventhFirst:  {rootOffset: 9, upper: false, figures: figSixFive, quality: HalfDiminished},
	HalfDiminishedSeventhSecond: {rootOffset: 6, upper: false, figures: figFourThree, quality: HalfDiminished},
	HalfDiminishedSeventhThird:  {rootOffset: 2, upper: false, figures: figFourTwo, quality: HalfDiminished},

	MinorSeventhRoot:   {rootOffset: 0, upper: false, figures: figSeven},
	MinorSeventhFirst:  {rootOffset: 9, upper: false, figures: figSixFive},
	MinorSeventhSecond: {rootOffset: 5, upper: false, figures: figFourThree},
	MinorSeventhThird:  {rootOffset: 2, upper: false, figures: figFourTwo},

	MajorSeventhRoot:   {rootOffset: 0, upper: true, figures: figSeven},
	MajorSeventhFirst:  {rootOffset: 8, upper: true, figures: figSixFive},
	MajorSeventhSecond: {rootOffset: 5, upper: true, figures: figFourThree},
	MajorSeventhThird:  {rootOffset: 1, upper: true, figures: figFourTwo},
}

// diminishedInversions maps the bass degree of the leading-tone diminished seventh
// to its inversion (index into seventhFigure) and the offset up to the root.
var diminishedInversions = map[int]struct {
	inversion  int
	rootOffset int
}{
	11: {0, 0},
	2:  {1, 9},
	5:  {2, 6},
	8:  {3, 3},
}

// dominantStep is the numeral position a cadential 6/4 is relabelled to
const dominantStep = 4

// Render turns a chord identity sounding over bass into a label relative to key.
// It panics if id has no rendering rule, which means the chord table and the
// renderer have drifted apart.
func Render(id Identity, bass Pitch, key Key) (Label, error) {
	if !key.IsSet() {
		return Label{}, ErrNoKey
	}
	v, ok := voicings[id]
	if !ok {
		panic(fmt.Sprintf("harmony: no rendering rule for chord identity %v", id))
	}

	bassDegree := mod12(int(bass) - key.Tonic)
	rootOffset := v.rootOffset
	figures := v.figures
	if v.symmetric {
		inv, ok := diminishedInversions[bassDegree]
		if !ok {
			return Label{}, fmt.Errorf("bass degree %d: %w", bassDegree, ErrUnresolvedInversion)
		}
		rootOffset = inv.rootOffset
		figures = seventhFigure[inv.inversion]
	}

	degree := mod12(bassDegree + rootOffset)
	sp := spellings[key.Mode][key.Spelling][degree]
	if v.cadential && degree == 0 {
		sp = spelling{step: dominantStep, accidental: Natural}
	}

	numeral := numerals[sp.step]
	if !v.upper {
		numeral = strings.ToLower(numeral)
	}
	return Label{
		Numeral:    numeral,
		UpperCase:  v.upper,
		Figures:    append([]string(nil), figures...),
		Quality:    v.quality,
		Accidental: sp.accidental,
		Chord:      id,
	}, nil
}

// Classify identifies and renders the sonority described by bass and intervals.
// It reports false when the sonority is underdetermined, unrecognized, or cannot
// be rendered in key.
func Classify(bass Pitch, intervals IntervalSet, key Key) (Label, bool) {
	if !key.IsSet() {
		return Label{}, false
	}
	id, ok := Identify(intervals)
	if !ok {
		return Label{}, false
	}
	label, err := Render(id, bass, key)
	if err != nil {
		return Label{}, false
	}
	return label, true
}

// ClassifyPitches is Classify over an unordered collection of pitches
func ClassifyPitches(pitches []Pitch, key Key) (Label, bool) {
	if len(pitches) == 0 {
		return Label{}, false
	}
	bass := pitches[0]
	for _, p := range pitches[1:] {
		if p < bass {
			bass = p
		}
	}
	return Classify(bass, NewIntervalSet(bass, pitches), key)
}
