// Package midi renders a score to a Standard MIDI File for quick
// audition. Hearing whether the key change is gone takes seconds this
// way; engraving and reading the PDF takes minutes.
//
// The rendering is deliberately coarse: one track per part, fixed
// velocity, tempo 120 unless the score says otherwise via <sound tempo>.
// Spelling is lost (MIDI has no enharmonics), so this output is for
// ears, not for import back into the pipeline.
package midi

import (
	"io"
	"os"
	"sort"
	"strconv"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/scorelift/scorelift/pkg/musicxml"
)

// ticksPerQuarter is the SMF resolution used for export.
const ticksPerQuarter = 480

// defaultVelocity is used for every note; OMR output carries no dynamics
// worth honoring.
const defaultVelocity = 72

// Export writes the score as a format-1 SMF to w.
func Export(s *musicxml.Score, w io.Writer) error {
	out := smf.New()
	out.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	for i, part := range s.Root().Children {
		if part.Name != "part" {
			continue
		}
		ch := uint8(i % 16)
		track := buildTrack(part, ch)
		if err := out.Add(track); err != nil {
			return err
		}
	}
	_, err := out.WriteTo(w)
	return err
}

// ExportFile writes the score as an SMF to the file at path.
func ExportFile(s *musicxml.Score, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// event is a note boundary at an absolute tick.
type event struct {
	tick int64
	on   bool
	key  uint8
}

// buildTrack flattens one part's measures into a delta-time track.
func buildTrack(part *musicxml.Node, ch uint8) smf.Track {
	var events []event
	var pos, prevStart int64
	divisions := int64(1)
	tempo := 0.0

	for _, measure := range part.Children {
		if measure.Name != "measure" {
			continue
		}
		for _, el := range measure.Children {
			switch el.Name {
			case "attributes":
				if d, err := strconv.ParseInt(el.ChildText("divisions"), 10, 64); err == nil && d > 0 {
					divisions = d
				}
			case "sound":
				if t, ok := el.Attr("tempo"); ok && tempo == 0 {
					tempo, _ = strconv.ParseFloat(t, 64)
				}
			case "backup":
				pos -= ticksFor(el, divisions)
			case "forward":
				pos += ticksFor(el, divisions)
			case "note":
				dur := ticksFor(el, divisions)
				n := musicxml.NoteOf(el)
				start := pos
				if n.IsChordMember() {
					start = prevStart
				} else {
					pos = start + dur
					prevStart = start
				}
				p, pitched := n.Pitch()
				if !pitched || dur == 0 {
					continue // rest, unpitched, or grace note
				}
				key := clampKey(p.MIDI())
				events = append(events, event{tick: start, on: true, key: key})
				events = append(events, event{tick: start + dur, on: false, key: key})
			}
		}
	}

	// Offs sort ahead of ons at the same tick so repeated notes retrigger.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var track smf.Track
	if tempo == 0 {
		tempo = 120
	}
	track.Add(0, smf.MetaTempo(tempo))

	var last int64
	for _, e := range events {
		delta := uint32(e.tick - last)
		last = e.tick
		if e.on {
			track.Add(delta, midi.NoteOn(ch, e.key, defaultVelocity))
		} else {
			track.Add(delta, midi.NoteOff(ch, e.key))
		}
	}
	track.Close(0)
	return track
}

// ticksFor converts an element's <duration> from divisions to ticks.
func ticksFor(el *musicxml.Node, divisions int64) int64 {
	d, err := strconv.ParseInt(el.ChildText("duration"), 10, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d * ticksPerQuarter / divisions
}

func clampKey(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}
