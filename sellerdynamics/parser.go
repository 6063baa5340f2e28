package sellerdynamics

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	textKey = "_"
	attrKey = "$"
)

// Node is a parsed XML element keyed by child local name. A child value is
// a string for a text-only element, a Node for an element with children or
// attributes, or a []any when the name repeats among siblings. A lone child
// is never wrapped in a slice.
type Node map[string]any

// Parse builds a Node tree from an XML document. Namespace prefixes are
// dropped, so soap:Envelope is keyed as Envelope.
func Parse(data []byte) (Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	type frame struct {
		name string
		node Node
		text strings.Builder
	}

	root := Node{}
	var stack []*frame
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: t.Name.Local, node: Node{}}
			if attrs := attributes(t.Attr); len(attrs) > 0 {
				f.node[attrKey] = attrs
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			var value any
			text := strings.TrimSpace(f.text.String())
			if len(f.node) == 0 {
				value = text
			} else {
				if text != "" {
					f.node[textKey] = text
				}
				value = f.node
			}

			parent := root
			if len(stack) > 0 {
				parent = stack[len(stack)-1].node
			}
			parent.add(f.name, value)
		}
	}

	if len(root) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}
	return root, nil
}

func attributes(attrs []xml.Attr) map[string]string {
	out := make(map[string]string)
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		out[a.Name.Local] = a.Value
	}
	return out
}

func (n Node) add(name string, value any) {
	existing, ok := n[name]
	if !ok {
		n[name] = value
		return
	}
	if list, ok := existing.([]any); ok {
		n[name] = append(list, value)
		return
	}
	n[name] = []any{existing, value}
}

// Child returns the named child element, or the first one when the name
// repeats. Text-only children and missing names return nil.
func (n Node) Child(name string) Node {
	if n == nil {
		return nil
	}
	switch v := n[name].(type) {
	case Node:
		return v
	case []any:
		for _, item := range v {
			if child, ok := item.(Node); ok {
				return child
			}
		}
	}
	return nil
}

// Path follows Child through names.
func (n Node) Path(names ...string) Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Has reports whether a child with name exists.
func (n Node) Has(name string) bool {
	_, ok := n[name]
	return ok
}

// Text returns the trimmed text of the named child.
func (n Node) Text(name string) string {
	if n == nil {
		return ""
	}
	return textOf(n[name])
}

// First returns the first non-empty Text among names.
func (n Node) First(names ...string) string {
	for _, name := range names {
		if s := n.Text(name); s != "" {
			return s
		}
	}
	return ""
}

// All returns every element under name as a slice of nodes, so callers see
// a list whether the document had one element or many. Empty elements are
// skipped and text-only elements are returned as nodes holding their text.
func (n Node) All(name string) []Node {
	if n == nil {
		return nil
	}
	var items []any
	switch v := n[name].(type) {
	case nil:
		return nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	out := make([]Node, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case Node:
			out = append(out, v)
		case string:
			if v != "" {
				out = append(out, Node{textKey: v})
			}
		}
	}
	return out
}

func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case Node:
		s, _ := t[textKey].(string)
		return s
	case []any:
		if len(t) > 0 {
			return textOf(t[0])
		}
	}
	return ""
}
