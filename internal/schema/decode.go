package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nishad/ctrake/internal/xmltree"
)

// decoder walks one document. It is created per call, so a Schema can be
// shared between goroutines.
type decoder struct {
	violations []Violation
}

func (d *decoder) fail(path, format string, args ...interface{}) {
	d.violations = append(d.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) element(el *xmltree.Element, typ *typeDef, path string) xmltree.Node {
	if typ == anyType {
		return generic(el)
	}
	if !typ.complex {
		return d.simpleElement(el, typ, path)
	}

	attrs := d.attributes(el, typ, path)

	if typ.simple != nil {
		for _, c := range el.Children {
			d.fail(path+"/"+c.Name, "unexpected child element in simple content")
		}
		value, ok := d.value(el.TrimmedText(), typ.simple, path)
		if len(attrs) == 0 {
			if !ok {
				return xmltree.None
			}
			return value
		}
		if ok {
			attrs = append(attrs, xmltree.F(xmltree.ValueKey, value))
		}
		return xmltree.Map(attrs...)
	}

	if !typ.mixed && el.TrimmedText() != "" {
		d.fail(path, "unexpected text in element-only content")
	}

	fields := attrs
	groups := make(map[string][]xmltree.Node)
	var order []string
	decls := make(map[string]*elementDecl)

	for _, child := range el.Children {
		childPath := path + "/" + child.Name
		decl, ok := typ.children[child.Name]
		var node xmltree.Node
		switch {
		case ok:
			node = d.element(child, decl.typ, childPath)
			decls[child.Name] = decl
		case typ.wildcard:
			node = generic(child)
		default:
			d.fail(childPath, "unexpected element")
			continue
		}
		if _, seen := groups[child.Name]; !seen {
			order = append(order, child.Name)
		}
		groups[child.Name] = append(groups[child.Name], node)
	}

	for _, name := range typ.childOrder {
		decl := typ.children[name]
		n := len(groups[name])
		if n < decl.min {
			d.fail(path+"/"+name, "missing required element")
		}
		if decl.max != unbounded && n > decl.max {
			d.fail(path+"/"+name, "element occurs %d times, at most %d allowed", n, decl.max)
		}
	}

	for _, name := range order {
		nodes := groups[name]
		decl, declared := decls[name]
		switch {
		case declared && decl.repeats():
			fields = append(fields, xmltree.F(name, xmltree.List(nodes...)))
		case len(nodes) > 1:
			fields = append(fields, xmltree.F(name, xmltree.List(nodes...)))
		default:
			fields = append(fields, xmltree.F(name, nodes[0]))
		}
	}
	return xmltree.Map(fields...)
}

func (d *decoder) simpleElement(el *xmltree.Element, typ *typeDef, path string) xmltree.Node {
	for _, c := range el.Children {
		d.fail(path+"/"+c.Name, "unexpected child element in simple element")
	}
	for _, a := range el.Attrs {
		if a.Space == xsiNamespace {
			continue
		}
		d.fail(path+"/@"+a.Name, "unexpected attribute")
	}
	value, ok := d.value(el.TrimmedText(), typ.simple, path)
	if !ok {
		return xmltree.None
	}
	return value
}

// attributes validates the element's attributes and returns them as
// "@name" fields in source order.
func (d *decoder) attributes(el *xmltree.Element, typ *typeDef, path string) []xmltree.Field {
	var fields []xmltree.Field
	seen := make(map[string]bool, len(el.Attrs))

	for _, a := range el.Attrs {
		if a.Space == xsiNamespace {
			continue
		}
		attrPath := path + "/@" + a.Name
		seen[a.Name] = true
		decl, ok := typ.attrs[a.Name]
		if !ok {
			if !typ.anyAttr {
				d.fail(attrPath, "unexpected attribute")
				continue
			}
			fields = append(fields, xmltree.F(xmltree.AttrPrefix+a.Name, xmltree.Str(strings.TrimSpace(a.Value))))
			continue
		}
		if v, ok := d.value(strings.TrimSpace(a.Value), decl.typ, attrPath); ok {
			fields = append(fields, xmltree.F(xmltree.AttrPrefix+a.Name, v))
		}
	}

	for _, name := range typ.attrOrder {
		if typ.attrs[name].required && !seen[name] {
			d.fail(path+"/@"+name, "missing required attribute")
		}
	}
	return fields
}

// value checks a lexical value against a simple type and converts it.
func (d *decoder) value(s string, st *simpleType, path string) (xmltree.Node, bool) {
	if len(st.enums) > 0 && !contains(st.enums, s) {
		d.fail(path, "value %q not in enumeration", s)
		return xmltree.None, false
	}

	switch st.base {
	case baseInteger, basePositiveInteger, baseNonNegativeInteger:
		i, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
		if err != nil {
			d.fail(path, "invalid integer %q", s)
			return xmltree.None, false
		}
		if st.base == basePositiveInteger && i <= 0 {
			d.fail(path, "value %d must be positive", i)
			return xmltree.None, false
		}
		if st.base == baseNonNegativeInteger && i < 0 {
			d.fail(path, "value %d must not be negative", i)
			return xmltree.None, false
		}
		return xmltree.Int(i), true
	case baseDecimal:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			d.fail(path, "invalid decimal %q", s)
			return xmltree.None, false
		}
	case baseBoolean:
		switch s {
		case "true", "false", "1", "0":
		default:
			d.fail(path, "invalid boolean %q", s)
			return xmltree.None, false
		}
	case baseDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			d.fail(path, "invalid date %q", s)
			return xmltree.None, false
		}
	}
	return xmltree.Str(s), true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// generic decodes undeclared content: leaves become strings, elements with
// attributes or children become mappings, and repeated tags become lists.
func generic(el *xmltree.Element) xmltree.Node {
	text := el.TrimmedText()
	if len(el.Children) == 0 && len(el.Attrs) == 0 {
		return xmltree.Str(text)
	}

	var fields []xmltree.Field
	for _, a := range el.Attrs {
		fields = append(fields, xmltree.F(xmltree.AttrPrefix+a.Name, xmltree.Str(a.Value)))
	}
	if len(el.Children) == 0 {
		return xmltree.Map(append(fields, xmltree.F(xmltree.ValueKey, xmltree.Str(text)))...)
	}

	groups := make(map[string][]xmltree.Node)
	var order []string
	for _, c := range el.Children {
		if _, seen := groups[c.Name]; !seen {
			order = append(order, c.Name)
		}
		groups[c.Name] = append(groups[c.Name], generic(c))
	}
	for _, name := range order {
		if nodes := groups[name]; len(nodes) > 1 {
			fields = append(fields, xmltree.F(name, xmltree.List(nodes...)))
		} else {
			fields = append(fields, xmltree.F(name, nodes[0]))
		}
	}
	if text != "" {
		fields = append(fields, xmltree.F(xmltree.ValueKey, xmltree.Str(text)))
	}
	return xmltree.Map(fields...)
}
