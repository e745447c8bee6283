// Package schema compiles a structural XML schema (an XSD subset) and uses
// it to validate registry documents and decode them into typed xmltree
// nodes. Elements that may repeat are always decoded as sequences, so
// consumers never have to guess whether a field is a scalar or a list.
package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/xmltree"
)

//go:embed clinical_study.xsd
var defaultXSD []byte

type baseKind uint8

const (
	baseString baseKind = iota
	baseInteger
	basePositiveInteger
	baseNonNegativeInteger
	baseDecimal
	baseBoolean
	baseDate
)

var builtins = map[string]baseKind{
	"string":             baseString,
	"normalizedString":   baseString,
	"token":              baseString,
	"anyURI":             baseString,
	"anySimpleType":      baseString,
	"integer":            baseInteger,
	"int":                baseInteger,
	"long":               baseInteger,
	"short":              baseInteger,
	"positiveInteger":    basePositiveInteger,
	"nonNegativeInteger": baseNonNegativeInteger,
	"decimal":            baseDecimal,
	"float":              baseDecimal,
	"double":             baseDecimal,
	"boolean":            baseBoolean,
	"date":               baseDate,
}

// xsiNamespace attributes (schemaLocation and friends) are always allowed.
const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

type simpleType struct {
	base  baseKind
	enums []string
}

type attributeDecl struct {
	name     string
	required bool
	typ      *simpleType
}

type elementDecl struct {
	name string
	min  int
	max  int
	typ  *typeDef
}

// repeats reports whether the element is declared to occur more than once.
func (d *elementDecl) repeats() bool {
	return d.max == unbounded || d.max > 1
}

// typeDef is either a simple type (simple set, complex false), a complex
// type with simple content (both set), or an element-only complex type.
type typeDef struct {
	name       string
	simple     *simpleType
	complex    bool
	mixed      bool
	wildcard   bool
	anyAttr    bool
	children   map[string]*elementDecl
	childOrder []string
	attrs      map[string]*attributeDecl
	attrOrder  []string
}

// anyType accepts any content and decodes it generically.
var anyType = &typeDef{name: "anyType", complex: true, mixed: true, wildcard: true, anyAttr: true}

func newTypeDef(name string) *typeDef {
	return &typeDef{
		name:     name,
		children: make(map[string]*elementDecl),
		attrs:    make(map[string]*attributeDecl),
	}
}

func (t *typeDef) addChild(d *elementDecl) {
	if t.children == nil {
		t.children = make(map[string]*elementDecl)
	}
	if prev, ok := t.children[d.name]; ok {
		// The same name in several branches widens the bounds.
		prev.min += d.min
		prev.max = addOccurs(prev.max, d.max)
		return
	}
	t.children[d.name] = d
	t.childOrder = append(t.childOrder, d.name)
}

func (t *typeDef) addAttr(a *attributeDecl) {
	if t.attrs == nil {
		t.attrs = make(map[string]*attributeDecl)
	}
	if _, ok := t.attrs[a.name]; !ok {
		t.attrOrder = append(t.attrOrder, a.name)
	}
	t.attrs[a.name] = a
}

// Schema is a compiled structural schema. It is immutable after Compile and
// safe for concurrent use.
type Schema struct {
	roots map[string]*elementDecl
	order []string
}

// Default compiles the embedded clinical_study schema.
func Default() (*Schema, error) {
	return Compile(bytes.NewReader(defaultXSD))
}

// Load compiles the schema at path, or the embedded default when path is
// empty.
func Load(path string) (*Schema, error) {
	const op = errors.Op("schema.Load")
	if path == "" {
		s, err := Default()
		if err != nil {
			return nil, errors.E(op, errors.KindConfig, err, "embedded schema")
		}
		return s, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}
	defer f.Close()

	s, err := Compile(f)
	if err != nil {
		return nil, errors.E(op, errors.KindConfig, err, path)
	}
	return s, nil
}

// Roots lists the top-level element names in declaration order.
func (s *Schema) Roots() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Violation is a single schema mismatch.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	noun := "violations"
	if len(parts) == 1 {
		noun = "violation"
	}
	return fmt.Sprintf("invalid document: %d %s: %s", len(parts), noun, strings.Join(parts, "; "))
}

// Validate reports whether doc conforms to the schema. The error is a
// *errors.Error of kind KindParse for malformed XML or KindValidation
// wrapping a *ValidationError.
func (s *Schema) Validate(doc []byte) error {
	_, err := s.Decode(doc)
	return err
}

// Decode validates doc and returns the content of its root element.
func (s *Schema) Decode(doc []byte) (xmltree.Node, error) {
	root, err := xmltree.ParseElement(doc)
	if err != nil {
		return xmltree.None, errors.E(errors.Op("schema.Decode"), errors.KindParse, err, "malformed document")
	}
	return s.DecodeElement(root)
}

// DecodeElement validates and decodes an already parsed element tree.
func (s *Schema) DecodeElement(root *xmltree.Element) (xmltree.Node, error) {
	const op = errors.Op("schema.Decode")

	decl, ok := s.roots[root.Name]
	if !ok {
		verr := &ValidationError{Violations: []Violation{{
			Path:    "/" + root.Name,
			Message: fmt.Sprintf("unexpected root element, want one of %s", strings.Join(s.order, ", ")),
		}}}
		return xmltree.None, errors.E(op, errors.KindValidation, verr)
	}

	d := &decoder{}
	node := d.element(root, decl.typ, "/"+root.Name)
	if len(d.violations) > 0 {
		sort.SliceStable(d.violations, func(i, j int) bool { return d.violations[i].Path < d.violations[j].Path })
		return xmltree.None, errors.E(op, errors.KindValidation, &ValidationError{Violations: d.violations})
	}
	return node, nil
}
