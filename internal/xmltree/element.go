package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attr is a single attribute in source order. Space holds the resolved
// namespace URI, empty for unqualified attributes.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Element is the raw document tree: tag, attributes, character data and
// children exactly as they appear in the source.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string // character data directly under this element; runs split by a child are joined with a space
	Children []*Element
}

// TrimmedText returns Text without surrounding whitespace.
func (e *Element) TrimmedText() string {
	return strings.TrimSpace(e.Text)
}

// Attr returns the named attribute value and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ParseElement parses a well-formed XML document into an Element tree.
func ParseElement(doc []byte) (*Element, error) {
	return DecodeElement(bytes.NewReader(doc))
}

// DecodeElement reads a single document from r.
func DecodeElement(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true

	var (
		root  *Element
		stack []*Element
		// split[i] is set once a child of stack[i] has closed.
		split []bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml syntax: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xml syntax: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			split = append(split, false)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			split = split[:len(split)-1]
			if len(split) > 0 {
				split[len(split)-1] = true
			}
		case xml.CharData:
			if n := len(stack); n > 0 {
				el := stack[n-1]
				if split[n-1] && el.Text != "" {
					el.Text += " "
				}
				split[n-1] = false
				el.Text += string(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("xml syntax: character data outside root element")
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("xml syntax: empty document")
	}
	return root, nil
}
