package musicxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scorelift/scorelift/pkg/errors"
)

// doctype is written ahead of every encoded document.
const doctype = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

// Score is a parsed score-partwise document.
type Score struct {
	root *Node
}

// Decode parses a score-partwise document from r.
func Decode(r io.Reader) (*Score, error) {
	d := xml.NewDecoder(r)
	// OMR output occasionally claims ISO-8859-1; the content is ASCII.
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	root, err := parseTree(d)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode MusicXML")
	}
	if root.Name != "score-partwise" {
		return nil, errors.New(errors.ErrCodeParse, "unsupported root element <%s> (want <score-partwise>)", root.Name)
	}
	return &Score{root: root}, nil
}

// DecodeFile parses the file at path. Compressed .mxl containers are
// unpacked transparently.
func DecodeFile(path string) (*Score, error) {
	if strings.EqualFold(filepath.Ext(path), ".mxl") {
		return decodeMXL(path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "open %s", path)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", path)
	}
	return s, nil
}

// decodeMXL opens the first score entry of a compressed MusicXML container.
func decodeMXL(path string) (*Score, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "open container %s", path)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".xml" && ext != ".musicxml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "open container entry %s", f.Name)
		}
		s, err := Decode(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s!%s", path, f.Name)
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeParse, "no score entry in container %s", path)
}

// Encode writes the document to w as indented XML with the standard
// header and doctype. Output is deterministic for a given tree.
func (s *Score) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", xml.Header, doctype); err != nil {
		return err
	}
	return writeTree(w, s.root, 0)
}

// EncodeFile writes the document to the file at path.
func (s *Score) EncodeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Parts returns the score's parts in document order.
func (s *Score) Parts() []*Part {
	var parts []*Part
	s.root.EachChild("part", func(n *Node) {
		parts = append(parts, &Part{node: n})
	})
	return parts
}

// PartName looks up the printed name for a part ID in the part-list, or
// returns the ID itself when the list has no entry.
func (s *Score) PartName(id string) string {
	list := s.root.Child("part-list")
	if list == nil {
		return id
	}
	for _, c := range list.Children {
		if c.Name != "score-part" {
			continue
		}
		if got, _ := c.Attr("id"); got == id {
			if name := c.ChildText("part-name"); name != "" {
				return name
			}
		}
	}
	return id
}

// Root exposes the underlying tree for consumers that walk the whole
// document, such as the MIDI exporter.
func (s *Score) Root() *Node {
	return s.root
}
