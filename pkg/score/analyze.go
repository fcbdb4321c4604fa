package score

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/sonority"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	defaultResolution = 480
	defaultBPM        = 120.0
	percussionChannel = 9
)

// Analyzer replays the notes of a MIDI file through a tracker
type Analyzer struct {
	key harmony.Key
	log logrus.FieldLogger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithKey fixes the key. Key signatures in the file are then ignored.
func WithKey(key harmony.Key) Option {
	return func(a *Analyzer) {
		a.key = key
	}
}

// WithLogger sets the analyzer's logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAnalyzer creates a new Analyzer
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{log: logger.Get()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type eventKind int

// order matters: at equal ticks meta events apply first, then releases, then attacks
const (
	evTempo eventKind = iota
	evKeySig
	evNoteOff
	evNoteOn
)

type timedEvent struct {
	tick  int64
	kind  eventKind
	pitch harmony.Pitch
	bpm   float64 // evTempo
	sf    int    // evKeySig
	minor bool   // evKeySig
}

// AnalyzeFile reads a MIDI file and analyzes it
func (a *Analyzer) AnalyzeFile(filename string) (*Timeline, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return a.Analyze(data)
}

// Analyze parses MIDI data and produces its label timeline
func (a *Analyzer) Analyze(data []byte) (*Timeline, error) {
	s, err := parse(data)
	if err != nil {
		return nil, err
	}
	return a.analyze(s)
}

func parse(data []byte) (*smf.SMF, error) {
	if DetectFormatFromContent(data) != FormatMIDI {
		return nil, ErrNotMIDI
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}
	return s, nil
}

func (a *Analyzer) analyze(s *smf.SMF) (*Timeline, error) {
	tl := &Timeline{
		Resolution: defaultResolution,
		Tempo:      defaultBPM,
		Segments:   []Segment{},
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		tl.Resolution = mt.Resolution()
	}

	events := collectEvents(s)
	if !hasNotes(events) {
		return nil, ErrNoNotes
	}

	fixed := a.key.IsSet()
	key := a.key
	tl.KeySource = KeyGiven
	if !fixed {
		k, ok := firstKeySignature(events)
		if !ok {
			return nil, ErrNoKey
		}
		key = k
		tl.KeySource = KeySignature
	}
	tl.Key = key

	log := a.log.WithField("key", key.String())
	tr := sonority.New(sonority.WithKey(key), sonority.WithLogger(log))

	var seconds float64
	last := ""
	for i := 0; i < len(events); {
		tick := events[i].tick
		seconds = secondsAt(s, tick)

		for ; i < len(events) && events[i].tick == tick; i++ {
			ev := events[i]
			switch ev.kind {
			case evTempo:
				if tick == 0 {
					tl.Tempo = ev.bpm
				}
			case evKeySig:
				if !fixed {
					changeKey(tr, ev, log)
				}
			case evNoteOn:
				tr.AddNote(ev.pitch)
			case evNoteOff:
				tr.RemoveNote(ev.pitch)
			}
		}

		label := tr.Label()
		if text := label.String(); text != last {
			last = text
			tl.Segments = append(tl.Segments, Segment{
				Tick:    tick,
				Seconds: seconds,
				Pitches: pitchInts(tr.Pitches()),
				Key:     tr.Key().Name,
				Label:   label,
				Text:    text,
			})
		}
	}
	tl.Duration = seconds

	log.WithFields(logrus.Fields{
		"events":   len(events),
		"segments": len(tl.Segments),
	}).Debug("analyzed MIDI file")
	return tl, nil
}

// changeKey switches key mid-file, carrying the held notes over into the new key
func changeKey(tr *sonority.Tracker, ev timedEvent, log logrus.FieldLogger) {
	k, err := harmony.KeyFromSignature(ev.sf, ev.minor)
	if err != nil {
		log.WithError(err).Warn("ignoring key signature")
		return
	}
	if k.ID == tr.Key().ID {
		return
	}
	held := tr.Pitches()
	tr.SetKey(k)
	for _, p := range held {
		tr.AddNote(p)
	}
}

func collectEvents(s *smf.SMF) []timedEvent {
	var events []timedEvent
	for _, track := range s.Tracks {
		var currentTick int64
		for _, ev := range track {
			currentTick += int64(ev.Delta)
			if te, ok := decode(ev.Message); ok {
				te.tick = currentTick
				events = append(events, te)
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].kind < events[j].kind
	})
	return events
}

// secondsAt converts an absolute tick to seconds, following the file's tempo map
func secondsAt(s *smf.SMF, tick int64) float64 {
	switch tf := s.TimeFormat.(type) {
	case smf.MetricTicks:
		return float64(s.TimeAt(tick)) / 1e6
	case smf.TimeCode:
		if perSecond := float64(tf.FramesPerSecond) * float64(tf.SubFrames); perSecond > 0 {
			return float64(tick) / perSecond
		}
	}
	return 0
}

// decode picks out the events the analysis cares about
func decode(msg smf.Message) (timedEvent, bool) {
	var (
		channel, key, velocity uint8
		bpm                    float64
		isMajor, isFlat        bool
	)
	switch {
	case msg.GetMetaTempo(&bpm):
		if bpm <= 0 {
			return timedEvent{}, false
		}
		return timedEvent{kind: evTempo, bpm: bpm}, true
	case msg.GetMetaKeySig(nil, &key, &isMajor, &isFlat):
		sf := int(key)
		if isFlat {
			sf = -sf
		}
		return timedEvent{kind: evKeySig, sf: sf, minor: !isMajor}, true
	case msg.GetNoteStart(&channel, &key, &velocity):
		if channel == percussionChannel {
			return timedEvent{}, false
		}
		return timedEvent{kind: evNoteOn, pitch: harmony.Pitch(key)}, true
	case msg.GetNoteEnd(&channel, &key):
		if channel == percussionChannel {
			return timedEvent{}, false
		}
		return timedEvent{kind: evNoteOff, pitch: harmony.Pitch(key)}, true
	}
	return timedEvent{}, false
}

func hasNotes(events []timedEvent) bool {
	for _, ev := range events {
		if ev.kind == evNoteOn {
			return true
		}
	}
	return false
}

func firstKeySignature(events []timedEvent) (harmony.Key, bool) {
	for _, ev := range events {
		if ev.kind != evKeySig {
			continue
		}
		if k, err := harmony.KeyFromSignature(ev.sf, ev.minor); err == nil {
			return k, true
		}
	}
	return harmony.NoKey, false
}

func pitchInts(ps []harmony.Pitch) []int {
	res := make([]int, len(ps))
	for i, p := range ps {
		res[i] = int(p)
	}
	return res
}
