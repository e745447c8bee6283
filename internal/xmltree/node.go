// Package xmltree provides the typed generic tree produced by the schema
// decoder. A Node is a scalar, a mapping or a sequence; every accessor is
// total and returns the None node (or a zero value) for missing data.
package xmltree

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindNone Kind = iota
	KindScalar
	KindMap
	KindList
)

// ValueKey is the reserved mapping key holding the text value of an
// element that also carries attributes.
const ValueKey = "$"

// valueAlias is accepted by Value as a synonym for ValueKey.
const valueAlias = "value"

// AttrPrefix marks attribute members of a mapping.
const AttrPrefix = "@"

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Node is an immutable tree value.
type Node struct {
	kind   Kind
	scalar interface{} // string or int64
	keys   []string    // insertion order of fields
	fields map[string]Node
	items  []Node
}

// None is the absent node.
var None = Node{}

// Str builds a string scalar.
func Str(s string) Node {
	return Node{kind: KindScalar, scalar: s}
}

// Int builds an integer scalar.
func Int(i int64) Node {
	return Node{kind: KindScalar, scalar: i}
}

// List builds a sequence node.
func List(items ...Node) Node {
	cp := make([]Node, len(items))
	copy(cp, items)
	return Node{kind: KindList, items: cp}
}

// Field is a key/value pair used to construct mappings.
type Field struct {
	Key   string
	Value Node
}

// F is shorthand for a Field.
func F(key string, value Node) Field {
	return Field{Key: key, Value: value}
}

// Map builds a mapping node. Later duplicates of a key replace earlier ones
// but keep the first position.
func Map(fields ...Field) Node {
	n := Node{kind: KindMap, fields: make(map[string]Node, len(fields))}
	for _, f := range fields {
		if _, exists := n.fields[f.Key]; !exists {
			n.keys = append(n.keys, f.Key)
		}
		n.fields[f.Key] = f.Value
	}
	return n
}

// Kind returns the variant tag.
func (n Node) Kind() Kind { return n.kind }

// IsNone reports whether the node is absent.
func (n Node) IsNone() bool { return n.kind == KindNone }

// IsScalar reports whether the node is a scalar.
func (n Node) IsScalar() bool { return n.kind == KindScalar }

// IsMap reports whether the node is a mapping.
func (n Node) IsMap() bool { return n.kind == KindMap }

// IsList reports whether the node is a sequence.
func (n Node) IsList() bool { return n.kind == KindList }

// Get returns the field with the given key, or None.
func (n Node) Get(key string) Node {
	if n.kind != KindMap {
		return None
	}
	if v, ok := n.fields[key]; ok {
		return v
	}
	return None
}

// Has reports whether a mapping carries the key.
func (n Node) Has(key string) bool {
	if n.kind != KindMap {
		return false
	}
	_, ok := n.fields[key]
	return ok
}

// Path walks nested mappings.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur.IsNone() {
			return None
		}
	}
	return cur
}

// Keys returns mapping keys in insertion order.
func (n Node) Keys() []string {
	if n.kind != KindMap {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// SortedKeys returns mapping keys sorted lexically.
func (n Node) SortedKeys() []string {
	keys := n.Keys()
	sort.Strings(keys)
	return keys
}

// Len returns the number of items of a sequence or fields of a mapping.
func (n Node) Len() int {
	switch n.kind {
	case KindList:
		return len(n.items)
	case KindMap:
		return len(n.keys)
	default:
		return 0
	}
}

// Items returns the elements of a sequence. A single non-list node is
// returned as a one-element slice so callers can iterate fields the schema
// may yield either way; None yields nil.
func (n Node) Items() []Node {
	switch n.kind {
	case KindNone:
		return nil
	case KindList:
		out := make([]Node, len(n.items))
		copy(out, n.items)
		return out
	default:
		return []Node{n}
	}
}

// Index returns the i-th sequence element or None.
func (n Node) Index(i int) Node {
	if n.kind != KindList || i < 0 || i >= len(n.items) {
		return None
	}
	return n.items[i]
}

// Value resolves the reserved value key of a mapping. Scalars return
// themselves; everything else returns None.
func (n Node) Value() Node {
	switch n.kind {
	case KindScalar:
		return n
	case KindMap:
		if v := n.Get(ValueKey); !v.IsNone() {
			return v
		}
		return n.Get(valueAlias)
	default:
		return None
	}
}

// Attr returns the attribute member named name.
func (n Node) Attr(name string) Node {
	return n.Get(AttrPrefix + name)
}

// Text returns the scalar as a string and whether the node was a scalar.
func (n Node) Text() (string, bool) {
	if n.kind != KindScalar {
		return "", false
	}
	switch v := n.scalar.(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

// String returns the scalar as a string, or "" for non-scalars.
func (n Node) String() string {
	s, _ := n.Text()
	return s
}

// Integer returns the scalar as an integer. Numeric strings are converted.
func (n Node) Integer() (int64, bool) {
	if n.kind != KindScalar {
		return 0, false
	}
	switch v := n.scalar.(type) {
	case int64:
		return v, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// IsInteger reports whether the scalar was decoded as an integer.
func (n Node) IsInteger() bool {
	if n.kind != KindScalar {
		return false
	}
	_, ok := n.scalar.(int64)
	return ok
}

// Interface converts the node into plain Go values (map[string]interface{},
// []interface{}, string, int64, nil). Useful for JSON dumps and debugging.
func (n Node) Interface() interface{} {
	switch n.kind {
	case KindScalar:
		return n.scalar
	case KindMap:
		m := make(map[string]interface{}, len(n.keys))
		for _, k := range n.keys {
			m[k] = n.fields[k].Interface()
		}
		return m
	case KindList:
		l := make([]interface{}, len(n.items))
		for i, it := range n.items {
			l[i] = it.Interface()
		}
		return l
	default:
		return nil
	}
}
