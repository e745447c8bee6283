package schema

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Raw XSD documents. Only the subset used by registry exports is modelled;
// annotations and facets other than enumeration are ignored.

type xsdSchema struct {
	Elements     []xsdElement     `xml:"element"`
	ComplexTypes []xsdComplexType `xml:"complexType"`
	SimpleTypes  []xsdSimpleType  `xml:"simpleType"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	Ref         string          `xml:"ref,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	ComplexType *xsdComplexType `xml:"complexType"`
	SimpleType  *xsdSimpleType  `xml:"simpleType"`
}

type xsdParticle struct {
	MinOccurs string        `xml:"minOccurs,attr"`
	MaxOccurs string        `xml:"maxOccurs,attr"`
	Elements  []xsdElement  `xml:"element"`
	Sequences []xsdParticle `xml:"sequence"`
	Choices   []xsdParticle `xml:"choice"`
	Any       []xsdAny      `xml:"any"`
}

type xsdAny struct {
	MinOccurs string `xml:"minOccurs,attr"`
	MaxOccurs string `xml:"maxOccurs,attr"`
}

type xsdComplexType struct {
	Name          string            `xml:"name,attr"`
	Mixed         bool              `xml:"mixed,attr"`
	Sequence      *xsdParticle      `xml:"sequence"`
	Choice        *xsdParticle      `xml:"choice"`
	All           *xsdParticle      `xml:"all"`
	Attributes    []xsdAttribute    `xml:"attribute"`
	AnyAttribute  *struct{}         `xml:"anyAttribute"`
	SimpleContent *xsdSimpleContent `xml:"simpleContent"`
}

type xsdSimpleContent struct {
	Extension   *xsdDerivation `xml:"extension"`
	Restriction *xsdDerivation `xml:"restriction"`
}

type xsdDerivation struct {
	Base         string         `xml:"base,attr"`
	Attributes   []xsdAttribute `xml:"attribute"`
	Enumerations []xsdFacet     `xml:"enumeration"`
}

type xsdAttribute struct {
	Name       string         `xml:"name,attr"`
	Type       string         `xml:"type,attr"`
	Use        string         `xml:"use,attr"`
	SimpleType *xsdSimpleType `xml:"simpleType"`
}

type xsdSimpleType struct {
	Name        string         `xml:"name,attr"`
	Restriction *xsdDerivation `xml:"restriction"`
	Union       *struct {
		MemberTypes string `xml:"memberTypes,attr"`
	} `xml:"union"`
	List *struct{} `xml:"list"`
}

type xsdFacet struct {
	Value string `xml:"value,attr"`
}

// unbounded marks maxOccurs="unbounded".
const unbounded = -1

func parseMin(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid minOccurs %q", s)
	}
	return n, nil
}

func parseMax(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 1, nil
	case "unbounded":
		return unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid maxOccurs %q", s)
	}
	return n, nil
}

func mulOccurs(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a == unbounded || b == unbounded {
		return unbounded
	}
	return a * b
}

func addOccurs(a, b int) int {
	if a == unbounded || b == unbounded {
		return unbounded
	}
	return a + b
}

// localName strips a namespace prefix such as "xs:".
func localName(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// compiler resolves named types lazily so that declarations may appear in
// any order and may refer to themselves.
type compiler struct {
	rawComplex map[string]*xsdComplexType
	rawSimple  map[string]*xsdSimpleType
	rawElems   map[string]*xsdElement
	complex    map[string]*typeDef
	simple     map[string]*simpleType
	resolving  map[string]bool
}

// Compile parses an XSD document and builds an immutable Schema.
func Compile(r io.Reader) (*Schema, error) {
	var raw xsdSchema
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := &compiler{
		rawComplex: make(map[string]*xsdComplexType),
		rawSimple:  make(map[string]*xsdSimpleType),
		rawElems:   make(map[string]*xsdElement),
		complex:    make(map[string]*typeDef),
		simple:     make(map[string]*simpleType),
		resolving:  make(map[string]bool),
	}
	for i := range raw.ComplexTypes {
		ct := &raw.ComplexTypes[i]
		c.rawComplex[ct.Name] = ct
	}
	for i := range raw.SimpleTypes {
		st := &raw.SimpleTypes[i]
		c.rawSimple[st.Name] = st
	}
	for i := range raw.Elements {
		el := &raw.Elements[i]
		c.rawElems[el.Name] = el
	}

	s := &Schema{roots: make(map[string]*elementDecl)}
	for i := range raw.Elements {
		decl, err := c.element(&raw.Elements[i])
		if err != nil {
			return nil, err
		}
		decl.min, decl.max = 1, 1
		s.roots[decl.name] = decl
		s.order = append(s.order, decl.name)
	}
	if len(s.roots) == 0 {
		return nil, fmt.Errorf("schema declares no top-level elements")
	}
	return s, nil
}

func (c *compiler) element(raw *xsdElement) (*elementDecl, error) {
	if raw.Ref != "" {
		target, ok := c.rawElems[localName(raw.Ref)]
		if !ok {
			return nil, fmt.Errorf("element ref %q not declared", raw.Ref)
		}
		merged := *target
		merged.MinOccurs, merged.MaxOccurs = raw.MinOccurs, raw.MaxOccurs
		raw = &merged
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("element without a name")
	}

	min, err := parseMin(raw.MinOccurs)
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", raw.Name, err)
	}
	max, err := parseMax(raw.MaxOccurs)
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", raw.Name, err)
	}

	decl := &elementDecl{name: raw.Name, min: min, max: max}
	switch {
	case raw.ComplexType != nil:
		decl.typ, err = c.complexType(raw.ComplexType)
	case raw.SimpleType != nil:
		var st *simpleType
		st, err = c.simpleType(raw.SimpleType)
		decl.typ = &typeDef{simple: st}
	case raw.Type != "":
		decl.typ, err = c.namedType(raw.Type)
	default:
		decl.typ = anyType
	}
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", raw.Name, err)
	}
	return decl, nil
}

// namedType resolves a type reference to either a complex or simple type.
func (c *compiler) namedType(qname string) (*typeDef, error) {
	name := localName(qname)
	if _, ok := c.rawComplex[name]; ok {
		return c.namedComplex(name)
	}
	if _, ok := c.rawSimple[name]; ok {
		st, err := c.namedSimple(name)
		if err != nil {
			return nil, err
		}
		return &typeDef{name: name, simple: st}, nil
	}
	if name == "anyType" {
		return anyType, nil
	}
	if base, ok := builtins[name]; ok {
		return &typeDef{name: name, simple: &simpleType{base: base}}, nil
	}
	return nil, fmt.Errorf("unknown type %q", qname)
}

func (c *compiler) namedComplex(name string) (*typeDef, error) {
	if td, ok := c.complex[name]; ok {
		return td, nil
	}
	// Register before filling so recursive references terminate.
	td := newTypeDef(name)
	c.complex[name] = td
	if err := c.fillComplex(td, c.rawComplex[name]); err != nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	return td, nil
}

func (c *compiler) complexType(raw *xsdComplexType) (*typeDef, error) {
	td := newTypeDef(raw.Name)
	if err := c.fillComplex(td, raw); err != nil {
		return nil, err
	}
	return td, nil
}

func (c *compiler) fillComplex(td *typeDef, raw *xsdComplexType) error {
	td.complex = true
	td.mixed = raw.Mixed
	td.anyAttr = raw.AnyAttribute != nil

	if sc := raw.SimpleContent; sc != nil {
		deriv := sc.Extension
		if deriv == nil {
			deriv = sc.Restriction
		}
		if deriv == nil {
			return fmt.Errorf("simpleContent without extension or restriction")
		}
		base, err := c.namedType(deriv.Base)
		if err != nil {
			return err
		}
		if base.simple == nil {
			return fmt.Errorf("simpleContent base %q is not simple", deriv.Base)
		}
		st := *base.simple
		if len(deriv.Enumerations) > 0 {
			st.enums = facetValues(deriv.Enumerations)
		}
		td.simple = &st
		for _, name := range base.attrOrder {
			td.addAttr(base.attrs[name])
		}
		if err := c.attributes(td, deriv.Attributes); err != nil {
			return err
		}
	}

	if err := c.attributes(td, raw.Attributes); err != nil {
		return err
	}

	switch {
	case raw.Sequence != nil:
		return c.particle(td, raw.Sequence, false, 1, 1)
	case raw.Choice != nil:
		return c.particle(td, raw.Choice, true, 1, 1)
	case raw.All != nil:
		return c.particle(td, raw.All, false, 1, 1)
	}
	return nil
}

// particle flattens a model group into per-child occurrence bounds. Bounds
// are multiplied by the enclosing group's bounds; choice branches become
// optional when there is more than one.
func (c *compiler) particle(td *typeDef, p *xsdParticle, choice bool, outerMin, outerMax int) error {
	min, err := parseMin(p.MinOccurs)
	if err != nil {
		return err
	}
	max, err := parseMax(p.MaxOccurs)
	if err != nil {
		return err
	}
	groupMin := min * outerMin
	groupMax := mulOccurs(max, outerMax)

	branches := len(p.Elements) + len(p.Sequences) + len(p.Choices) + len(p.Any)
	optional := choice && branches > 1

	for i := range p.Elements {
		decl, err := c.element(&p.Elements[i])
		if err != nil {
			return err
		}
		decl.min *= groupMin
		if optional {
			decl.min = 0
		}
		decl.max = mulOccurs(decl.max, groupMax)
		td.addChild(decl)
	}

	innerMin := groupMin
	if optional {
		innerMin = 0
	}
	for i := range p.Sequences {
		if err := c.particle(td, &p.Sequences[i], false, innerMin, groupMax); err != nil {
			return err
		}
	}
	for i := range p.Choices {
		if err := c.particle(td, &p.Choices[i], true, innerMin, groupMax); err != nil {
			return err
		}
	}
	if len(p.Any) > 0 {
		td.wildcard = true
	}
	return nil
}

func (c *compiler) attributes(td *typeDef, raws []xsdAttribute) error {
	for _, raw := range raws {
		if raw.Name == "" {
			return fmt.Errorf("attribute without a name")
		}
		decl := &attributeDecl{name: raw.Name, required: raw.Use == "required"}
		switch {
		case raw.SimpleType != nil:
			st, err := c.simpleType(raw.SimpleType)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", raw.Name, err)
			}
			decl.typ = st
		case raw.Type != "":
			t, err := c.namedType(raw.Type)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", raw.Name, err)
			}
			if t.simple == nil {
				return fmt.Errorf("attribute %q: type %q is not simple", raw.Name, raw.Type)
			}
			decl.typ = t.simple
		default:
			decl.typ = &simpleType{base: baseString}
		}
		td.addAttr(decl)
	}
	return nil
}

func (c *compiler) namedSimple(name string) (*simpleType, error) {
	if st, ok := c.simple[name]; ok {
		return st, nil
	}
	if c.resolving[name] {
		return nil, fmt.Errorf("simple type %q derives from itself", name)
	}
	c.resolving[name] = true
	defer delete(c.resolving, name)

	st, err := c.simpleType(c.rawSimple[name])
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	c.simple[name] = st
	return st, nil
}

func (c *compiler) simpleType(raw *xsdSimpleType) (*simpleType, error) {
	switch {
	case raw.Restriction != nil:
		base, err := c.namedType(raw.Restriction.Base)
		if err != nil {
			return nil, err
		}
		if base.simple == nil {
			return nil, fmt.Errorf("restriction base %q is not simple", raw.Restriction.Base)
		}
		st := *base.simple
		if len(raw.Restriction.Enumerations) > 0 {
			st.enums = facetValues(raw.Restriction.Enumerations)
		}
		return &st, nil
	case raw.Union != nil, raw.List != nil:
		// Unions and lists are accepted as free strings.
		return &simpleType{base: baseString}, nil
	}
	return nil, fmt.Errorf("simpleType without restriction")
}

func facetValues(facets []xsdFacet) []string {
	out := make([]string, len(facets))
	for i, f := range facets {
		out[i] = f.Value
	}
	return out
}
