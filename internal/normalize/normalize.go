// Package normalize holds the field normalizers used to build canonical
// study records. Every function is total: missing or oddly shaped input
// yields a neutral default (empty string, empty slice or nil), never an
// error.
package normalize

import (
	"strings"

	"github.com/nishad/ctrake/internal/xmltree"
)

// Str returns the text of a scalar or of a mapping's reserved value key,
// trimmed. Anything else yields "".
func Str(n xmltree.Node) string {
	return strings.TrimSpace(n.Value().String())
}

// TextBlock accepts a bare string or a {"textblock": ...} mapping and
// collapses every whitespace run to a single space.
func TextBlock(n xmltree.Node) string {
	if n.IsMap() {
		n = n.Get("textblock")
	}
	s, ok := n.Text()
	if !ok {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// StringList always returns a slice: a bare scalar becomes a one-element
// slice, a sequence passes through in order and absence yields an empty
// slice. Items that are mappings contribute their reserved value.
func StringList(n xmltree.Node) []string {
	items := n.Items()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.Value().Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

// OptionalInt returns a pointer to the integer value of n, or nil.
func OptionalInt(n xmltree.Node) *int64 {
	v, ok := n.Value().Integer()
	if !ok {
		return nil
	}
	return &v
}

// Enrollment is the declared participant count and whether it is actual
// or anticipated.
type Enrollment struct {
	Type  string `json:"enrollment_type"`
	Value int64  `json:"value"`
}

// ToEnrollment accepts a bare integer (type "") or a mapping carrying an
// @type attribute and the count under the reserved value key. A missing
// or non-numeric count yields nil.
func ToEnrollment(n xmltree.Node) *Enrollment {
	switch {
	case n.IsScalar():
		v, ok := n.Integer()
		if !ok {
			return nil
		}
		return &Enrollment{Value: v}
	case n.IsMap():
		v, ok := n.Value().Integer()
		if !ok {
			return nil
		}
		return &Enrollment{Type: n.Attr("type").String(), Value: v}
	}
	return nil
}

// Sponsors flattens a sponsors mapping into agency names: the lead sponsor
// first, then collaborators in source order. A single collaborator mapping
// is accepted as well as a sequence.
func Sponsors(n xmltree.Node) []string {
	out := make([]string, 0, 1+n.Get("collaborator").Len())
	if lead := Str(n.Path("lead_sponsor", "agency")); lead != "" {
		out = append(out, lead)
	}
	for _, c := range n.Get("collaborator").Items() {
		if agency := Str(c.Get("agency")); agency != "" {
			out = append(out, agency)
		}
	}
	return out
}

// BrowseTerms returns the controlled vocabulary terms of a browse node.
func BrowseTerms(n xmltree.Node) []string {
	return StringList(n.Get("mesh_term"))
}
