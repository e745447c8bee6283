// Package text derives the keyword token blob of a registry document from
// every leaf text node and attribute value of its raw element tree.
package text

import (
	"sort"
	"strings"

	"github.com/nishad/ctrake/internal/xmltree"
)

// Leaf is one raw text value tagged with its dotted path from the root,
// for example "clinical_study.id_info.nct_id" or
// "clinical_study.enrollment.type" for an attribute.
type Leaf struct {
	Path  string
	Value string
}

// Flatten walks the tree depth first and returns every element with
// non-blank text and every attribute value, in document order.
func Flatten(root *xmltree.Element) []Leaf {
	if root == nil {
		return nil
	}
	var leaves []Leaf
	walk(root, nil, &leaves)
	return leaves
}

// walk receives the ancestor tags by value; each level builds its own path
// slice so siblings never observe each other's segments.
func walk(el *xmltree.Element, ancestors []string, out *[]Leaf) {
	segments := make([]string, len(ancestors), len(ancestors)+1)
	copy(segments, ancestors)
	segments = append(segments, el.Name)
	path := strings.Join(segments, ".")

	if text := el.TrimmedText(); text != "" {
		*out = append(*out, Leaf{Path: path, Value: text})
	}
	for _, a := range el.Attrs {
		*out = append(*out, Leaf{Path: path + "." + a.Name, Value: a.Value})
	}
	for _, child := range el.Children {
		walk(child, segments, out)
	}
}

// TokenSet is an unordered, de-duplicated set of normalized tokens.
type TokenSet map[string]struct{}

// Add inserts every token.
func (s TokenSet) Add(tokens ...string) {
	for _, t := range tokens {
		s[t] = struct{}{}
	}
}

// Has reports membership.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Join renders the set as the space separated blob stored with a study.
// Tokens are sorted so artifacts are reproducible; consumers must not rely
// on the order.
func (s TokenSet) Join() string {
	return strings.Join(s.Sorted(), " ")
}

// Extract tokenizes every leaf of the tree into one set.
func Extract(root *xmltree.Element) TokenSet {
	set := make(TokenSet)
	for _, leaf := range Flatten(root) {
		set.Add(Tokenize(leaf.Value)...)
	}
	return set
}

// Blob parses doc and returns its joined token set.
func Blob(doc []byte) (string, error) {
	root, err := ParseTree(doc)
	if err != nil {
		return "", err
	}
	return Extract(root).Join(), nil
}

// ParseTree builds the raw element tree of doc.
func ParseTree(doc []byte) (*xmltree.Element, error) {
	return xmltree.ParseElement(doc)
}
