package query

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Default query-string keys.
const (
	DefaultSearchKey     = "keyword"
	DefaultSortKey       = "sort"
	DefaultProjectionKey = "select"
	DefaultPopulateKey   = "populate"
)

// SearchConfig names the keyword parameter and the fields it is matched against.
type SearchConfig struct {
	Key    string
	Fields []string
}

// SortConfig names the sort parameter.
type SortConfig struct {
	Key string
}

// ProjectionConfig names the select parameter. Exclude lists fields that are
// always hidden and that callers cannot select back.
type ProjectionConfig struct {
	Key     string
	Exclude []string
}

// PopulateConfig names the populate parameter. Exclude lists relations that
// are never expanded. With IgnoreInvalid a malformed selection disables
// population for the whole request.
type PopulateConfig struct {
	Key           string
	Exclude       []string
	IgnoreInvalid bool
}

// Config is the per-resource query feature configuration.
type Config struct {
	Search     SearchConfig
	Sort       SortConfig
	Projection ProjectionConfig
	Populate   PopulateConfig
}

// Population expands the relation at Path. An empty Select keeps every field
// of the related document; "-field" tokens exclude.
type Population struct {
	Path   string
	Select []string
}

// Parsed holds the store directives derived from one request.
type Parsed struct {
	Filter     bson.M
	Sort       bson.D
	Projection map[string]bool
	Populate   []Population
}

// Parse derives the store directives for q. It never fails: malformed input
// has no effect on the affected axis.
func (c Config) Parse(q *Map) Parsed {
	c = c.withDefaults()
	return Parsed{
		Filter:     c.filter(q),
		Sort:       c.sort(q),
		Projection: c.projection(q),
		Populate:   c.populate(q),
	}
}

func (c Config) withDefaults() Config {
	if c.Search.Key == "" {
		c.Search.Key = DefaultSearchKey
	}
	if c.Sort.Key == "" {
		c.Sort.Key = DefaultSortKey
	}
	if c.Projection.Key == "" {
		c.Projection.Key = DefaultProjectionKey
	}
	if c.Populate.Key == "" {
		c.Populate.Key = DefaultPopulateKey
	}
	return c
}

func (c Config) filter(q *Map) bson.M {
	v, ok := q.Get(c.Search.Key)
	if !ok || v.Kind != KindString || v.Str == "" || len(c.Search.Fields) == 0 {
		return bson.M{}
	}

	pattern := regexp.QuoteMeta(v.Str)
	or := make(bson.A, 0, len(c.Search.Fields))
	for _, field := range c.Search.Fields {
		or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

func (c Config) sort(q *Map) bson.D {
	v, ok := q.Get(c.Sort.Key)
	if !ok || v.Kind != KindMap {
		return nil
	}

	var out bson.D
	for _, field := range v.Map.Keys() {
		if isNumeric(field) || !isFieldName(field) {
			continue
		}
		dir, _ := v.Map.Get(field)
		order := -1
		if dir.Kind == KindString && (dir.Str == "1" || dir.Str == "asc") {
			order = 1
		}
		out = append(out, bson.E{Key: field, Value: order})
	}
	return out
}

func (c Config) projection(q *Map) map[string]bool {
	out := make(map[string]bool)

	v, ok := q.Get(c.Projection.Key)
	if !ok || (v.Kind != KindString && v.Kind != KindList) {
		return out
	}

	excluded := make(map[string]bool, len(c.Projection.Exclude))
	for _, field := range c.Projection.Exclude {
		excluded[field] = true
		out[field] = false
	}

	for _, token := range tokens(v) {
		field, include := token, true
		if strings.HasPrefix(token, "-") {
			field, include = token[1:], false
		}
		if !isFieldName(field) || excluded[field] {
			continue
		}
		out[field] = include
	}
	return out
}

func (c Config) populate(q *Map) []Population {
	v, ok := q.Get(c.Populate.Key)
	if !ok || v.Kind != KindMap {
		return nil
	}

	excluded := make(map[string]bool, len(c.Populate.Exclude))
	for _, path := range c.Populate.Exclude {
		excluded[path] = true
	}

	var out []Population
	for _, path := range v.Map.Keys() {
		sel, _ := v.Map.Get(path)
		fields, valid := selection(sel)
		if !valid {
			if c.Populate.IgnoreInvalid {
				return nil
			}
			fields = nil
		}
		if excluded[path] || !isFieldName(path) {
			continue
		}
		out = append(out, Population{Path: path, Select: fields})
	}
	return out
}

// selection reads a populate value. "*" and "" select everything.
func selection(v Value) ([]string, bool) {
	switch v.Kind {
	case KindString:
		if v.Str == "*" || v.Str == "" {
			return nil, true
		}
		return selectable(splitFields(v.Str)), true
	case KindList:
		fields := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind != KindString {
				return nil, false
			}
			if item.Str != "" {
				fields = append(fields, item.Str)
			}
		}
		return selectable(fields), true
	default:
		return nil, false
	}
}

// tokens flattens a select value into field tokens, skipping non-string items.
func tokens(v Value) []string {
	switch v.Kind {
	case KindString:
		return splitFields(v.Str)
	case KindList:
		var out []string
		for _, item := range v.List {
			if item.Kind == KindString {
				out = append(out, splitFields(item.Str)...)
			}
		}
		return out
	}
	return nil
}

// selectable drops selection tokens that do not name a field.
func selectable(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if isFieldName(strings.TrimPrefix(t, "-")) {
			out = append(out, t)
		}
	}
	return out
}

// isFieldName rejects empty names and operators, which the store refuses as
// field paths.
func isFieldName(s string) bool {
	return s != "" && !strings.HasPrefix(s, "$")
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
