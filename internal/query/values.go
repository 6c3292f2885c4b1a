// Package query turns query-string parameters into store directives:
// a search filter, sort order, projection, relation population and pagination.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// maxDepth caps bracket nesting, a[b][c][d][e] at most.
const maxDepth = 5

// Kind identifies the shape of a decoded query value.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindMap
)

// Value is one node of a decoded query string: a scalar, a list or a nested map.
type Value struct {
	Kind Kind
	Str  string
	List []Value
	Map  *Map
}

// String builds a scalar value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List builds a list value.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// Strings builds a list of scalars.
func Strings(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return List(vals...)
}

// Object builds a map value.
func Object(m *Map) Value { return Value{Kind: KindMap, Map: m} }

// Map is an insertion ordered string keyed map of values.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set stores v under key, keeping the original position when key already exists.
func (m *Map) Set(key string, v Value) *Map {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Parse decodes a raw query string such as
// "keyword=shirt&sort[price]=asc&select[]=title&populate[brand]=*".
// Pairs are processed in order, so map keys keep the order the client sent them in.
// Undecodable pairs are skipped.
func Parse(rawQuery string) *Map {
	root := NewMap()
	for _, pair := range strings.FieldsFunc(rawQuery, func(r rune) bool { return r == '&' || r == ';' }) {
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			continue
		}
		name, path := splitKey(key)
		if name == "" {
			continue
		}
		existing, ok := root.Get(name)
		root.Set(name, assign(existing, ok, path, val))
	}
	for _, k := range root.keys {
		root.vals[k] = normalize(root.vals[k])
	}
	return root
}

// splitKey splits "a[b][]" into "a" and ["b", ""].
func splitKey(key string) (string, []string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return key, nil
	}
	name := key[:open]
	rest := key[open:]
	var path []string
	for len(rest) > 0 && rest[0] == '[' && len(path) < maxDepth {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	if len(path) == 0 {
		return key, nil
	}
	return name, path
}

// assign writes val at path below existing and returns the updated node.
// present reports whether existing was actually stored before.
func assign(existing Value, present bool, path []string, val string) Value {
	if len(path) == 0 {
		switch {
		case !present:
			return String(val)
		case existing.Kind == KindString:
			return List(existing, String(val))
		case existing.Kind == KindList:
			existing.List = append(existing.List, String(val))
			return existing
		default:
			// a[b]=x followed by a=y: the scalar wins.
			return String(val)
		}
	}

	seg := path[0]
	if seg == "" {
		// a[]=x appends; a[][b]=x appends a nested map.
		switch {
		case !present:
			existing = List()
		case existing.Kind != KindList:
			existing = List(existing)
		}
		existing.List = append(existing.List, assign(Value{}, false, path[1:], val))
		return existing
	}

	if !present || existing.Kind != KindMap || existing.Map == nil {
		existing = Object(NewMap())
	}
	child, ok := existing.Map.Get(seg)
	existing.Map.Set(seg, assign(child, ok, path[1:], val))
	return existing
}

// normalize turns maps whose keys are all array indices into lists ordered by index.
func normalize(v Value) Value {
	switch v.Kind {
	case KindList:
		for i := range v.List {
			v.List[i] = normalize(v.List[i])
		}
	case KindMap:
		if v.Map == nil || v.Map.Len() == 0 {
			return v
		}
		for _, k := range v.Map.keys {
			v.Map.vals[k] = normalize(v.Map.vals[k])
		}
		indices := make([]int, 0, v.Map.Len())
		for _, k := range v.Map.keys {
			n, err := strconv.Atoi(k)
			if err != nil || n < 0 || strconv.Itoa(n) != k {
				return v
			}
			indices = append(indices, n)
		}
		sort.Ints(indices)
		items := make([]Value, 0, len(indices))
		for _, n := range indices {
			items = append(items, v.Map.vals[strconv.Itoa(n)])
		}
		return List(items...)
	}
	return v
}
