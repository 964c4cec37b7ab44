package musicxml

import (
	"strconv"

	"github.com/scorelift/scorelift/pkg/score"
)

// Part is a view over one <part> element.
type Part struct {
	node *Node
}

// ID returns the part's id attribute.
func (p *Part) ID() string {
	id, _ := p.node.Attr("id")
	return id
}

// Measures returns the part's measures in document order.
func (p *Part) Measures() []*Measure {
	var ms []*Measure
	p.node.EachChild("measure", func(n *Node) {
		ms = append(ms, &Measure{node: n})
	})
	return ms
}

// Append moves a measure (typically from another document) onto the end
// of this part.
func (p *Part) Append(m *Measure) {
	p.node.Children = append(p.node.Children, m.node)
}

// Measure is a view over one <measure> element.
type Measure struct {
	node *Node
}

// Number returns the measure's stored number attribute. OMR emits
// non-numeric numbers for pickup bars ("X1"); those report ok=false and
// are never matched by a numeric threshold.
func (m *Measure) Number() (int, bool) {
	raw, present := m.node.Attr("number")
	if !present {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Notes returns the measure's notes in document order, chord members
// included.
func (m *Measure) Notes() []*Note {
	var notes []*Note
	m.node.EachChild("note", func(n *Node) {
		notes = append(notes, &Note{node: n})
	})
	return notes
}

// KeyFifths returns the measure's key signature fifths count, if the
// measure declares one.
func (m *Measure) KeyFifths() (int, bool) {
	attrs := m.node.Child("attributes")
	if attrs == nil {
		return 0, false
	}
	key := attrs.Child("key")
	if key == nil {
		return 0, false
	}
	fifths := key.Child("fifths")
	if fifths == nil {
		return 0, false
	}
	n, err := strconv.Atoi(fifths.Text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetKeyFifths rewrites the measure's key signature fifths count. It is a
// no-op when the measure declares no key signature.
func (m *Measure) SetKeyFifths(fifths int) {
	attrs := m.node.Child("attributes")
	if attrs == nil {
		return
	}
	key := attrs.Child("key")
	if key == nil {
		return
	}
	f := key.Child("fifths")
	if f == nil {
		return
	}
	f.Text = strconv.Itoa(fifths)
	// A transposed signature invalidates any explicit mode-bound cancel.
	key.RemoveChildren("cancel")
}

// Note is a view over one <note> element.
type Note struct {
	node *Node
}

// NoteOf wraps a raw <note> tree node in the typed view. Intended for
// consumers that walk the tree directly, such as the MIDI exporter.
func NoteOf(n *Node) *Note {
	return &Note{node: n}
}

// IsRest reports whether the note is a rest.
func (n *Note) IsRest() bool {
	return n.node.Child("rest") != nil
}

// IsChordMember reports whether the note sounds together with the
// preceding note.
func (n *Note) IsChordMember() bool {
	return n.node.Child("chord") != nil
}

// Pitch returns the note's spelled pitch. Rests and unpitched notes
// report ok=false.
func (n *Note) Pitch() (score.Pitch, bool) {
	pn := n.node.Child("pitch")
	if pn == nil {
		return score.Pitch{}, false
	}
	step := pn.ChildText("step")
	if len(step) != 1 {
		return score.Pitch{}, false
	}
	octave, err := strconv.Atoi(pn.ChildText("octave"))
	if err != nil {
		return score.Pitch{}, false
	}
	alter := 0
	if a := pn.Child("alter"); a != nil {
		// OMR rounds microtonal alters; only integral values occur here.
		f, err := strconv.ParseFloat(a.Text, 64)
		if err != nil {
			return score.Pitch{}, false
		}
		alter = int(f)
	}
	p, err := score.NewPitch(step[0], alter, octave)
	if err != nil {
		return score.Pitch{}, false
	}
	return p, true
}

// SetPitch rewrites the note's pitch. The <alter> element is inserted or
// removed as needed (DTD order: step, alter, octave), and any stale
// <accidental> display element is dropped so the engraver re-derives it
// from the new spelling and key.
func (n *Note) SetPitch(p score.Pitch) {
	pn := n.node.Child("pitch")
	if pn == nil {
		return
	}
	if s := pn.Child("step"); s != nil {
		s.Text = string(p.Step)
	}
	if o := pn.Child("octave"); o != nil {
		o.Text = strconv.Itoa(p.Octave)
	}

	alter := pn.Child("alter")
	switch {
	case p.Alter == 0 && alter != nil:
		pn.RemoveChildren("alter")
	case p.Alter != 0 && alter != nil:
		alter.Text = strconv.Itoa(p.Alter)
	case p.Alter != 0 && alter == nil:
		a := &Node{Name: "alter", Text: strconv.Itoa(p.Alter)}
		children := make([]*Node, 0, len(pn.Children)+1)
		for _, c := range pn.Children {
			children = append(children, c)
			if c.Name == "step" {
				children = append(children, a)
			}
		}
		pn.Children = children
	}

	n.node.RemoveChildren("accidental")
}

// Lyric returns the note's first lyric syllable, if any.
func (n *Note) Lyric() (text, syllabic string, ok bool) {
	l := n.node.Child("lyric")
	if l == nil {
		return "", "", false
	}
	return l.ChildText("text"), l.ChildText("syllabic"), true
}

// SetLyric replaces the note's lyric with a single syllable. syllabic is
// one of "single", "begin", "middle", "end".
func (n *Note) SetLyric(text, syllabic string) {
	n.node.RemoveChildren("lyric")
	n.node.Children = append(n.node.Children, &Node{
		Name: "lyric",
		Children: []*Node{
			{Name: "syllabic", Text: syllabic},
			{Name: "text", Text: text},
		},
	})
}
