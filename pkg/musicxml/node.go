package musicxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document tree. Text and Children are mutually
// exclusive in well-formed MusicXML: leaf elements carry text, container
// elements carry children.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds the named attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first child with the given name.
func (n *Node) ChildText(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// EachChild calls fn for every child with the given name.
func (n *Node) EachChild(name string, fn func(*Node)) {
	for _, c := range n.Children {
		if c.Name == name {
			fn(c)
		}
	}
}

// RemoveChildren deletes all children with the given name.
func (n *Node) RemoveChildren(name string) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	n.Children = kept
}

// parseTree builds a node tree from the decoder. Comments, directives and
// processing instructions are dropped; whitespace-only text in container
// elements is dropped so re-encoding controls its own indentation.
func parseTree(d *xml.Decoder) (*Node, error) {
	var root *Node
	var stack []*Node

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element </%s>", t.Name.Local)
			}
			top := stack[len(stack)-1]
			if len(top.Children) > 0 {
				top.Text = ""
			} else {
				top.Text = strings.TrimSpace(top.Text)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unterminated element <%s>", stack[len(stack)-1].Name)
	}
	return root, nil
}

// writeTree serializes the node tree with two-space indentation. The
// output is deterministic: attribute and child order are preserved as
// decoded.
func writeTree(w io.Writer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)

	var attrs bytes.Buffer
	for _, a := range n.Attrs {
		fmt.Fprintf(&attrs, " %s=\"%s\"", a.Name, escape(a.Value))
	}

	switch {
	case len(n.Children) > 0:
		if _, err := fmt.Fprintf(w, "%s<%s%s>\n", indent, n.Name, attrs.String()); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := writeTree(w, c, depth+1); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%s</%s>\n", indent, n.Name)
		return err
	case n.Text != "":
		_, err := fmt.Fprintf(w, "%s<%s%s>%s</%s>\n", indent, n.Name, attrs.String(), escape(n.Text), n.Name)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s<%s%s/>\n", indent, n.Name, attrs.String())
		return err
	}
}

// escape applies XML text escaping.
func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
