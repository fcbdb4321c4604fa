package score

import (
	"bytes"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// AnnotateFile analyzes input and writes a copy with the labels embedded as markers to output
func (a *Analyzer) AnnotateFile(input, output string) (*Timeline, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	result, tl, err := a.Annotate(data)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, result, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return tl, nil
}

// Annotate returns a copy of the MIDI data with one marker meta event per labelled
// segment merged into track 0, together with the analysis it was built from
func (a *Analyzer) Annotate(data []byte) ([]byte, *Timeline, error) {
	s, err := parse(data)
	if err != nil {
		return nil, nil, err
	}
	tl, err := a.analyze(s)
	if err != nil {
		return nil, nil, err
	}

	out := smf.New()
	out.TimeFormat = s.TimeFormat
	for i, track := range s.Tracks {
		if i == 0 {
			track = withMarkers(track, tl.Key.Name, tl.Labelled())
		}
		track.Close(0)
		if err := out.Add(track); err != nil {
			return nil, nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), tl, nil
}

// withMarkers rebuilds t with a text event naming the analysis at tick 0 and
// each segment's label as a marker at the segment's tick. A marker goes ahead
// of the track's own events at the same tick.
func withMarkers(t smf.Track, key string, segs []Segment) smf.Track {
	var res smf.Track
	var tick, written int64
	add := func(at int64, msg smf.Message) {
		res = append(res, smf.Event{Delta: uint32(at - written), Message: msg})
		written = at
	}

	add(0, smf.MetaText("Roman numerals ("+key+")"))
	for _, ev := range t {
		tick += int64(ev.Delta)
		if ev.Message.Is(smf.MetaEndOfTrackMsg) {
			break
		}
		for len(segs) > 0 && segs[0].Tick <= tick {
			add(segs[0].Tick, smf.MetaMarker(segs[0].Text))
			segs = segs[1:]
		}
		add(tick, ev.Message)
	}
	for _, seg := range segs {
		add(seg.Tick, smf.MetaMarker(seg.Text))
	}

	end := uint32(0)
	if tick > written {
		end = uint32(tick - written)
	}
	res.Close(end)
	return res
}
