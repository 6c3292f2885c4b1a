package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParse_SearchMissingMatchesAll(t *testing.T) {
	configs := []Config{
		{},
		{Search: SearchConfig{Fields: []string{"name"}}},
		{Search: SearchConfig{Key: "q", Fields: []string{"title", "description"}}},
	}
	queries := []string{"", "page=2", "keyword=", "keyword[a]=b", "q[]=x"}

	for _, cfg := range configs {
		for _, raw := range queries {
			parsed := cfg.Parse(Parse(raw))
			assert.Empty(t, parsed.Filter, "config %+v query %q", cfg, raw)
		}
	}
}

func TestParse_SearchScenario(t *testing.T) {
	cfg := Config{Search: SearchConfig{Key: "keyword", Fields: []string{"name"}}}

	parsed := cfg.Parse(Parse("keyword=Shirt"))

	or, ok := parsed.Filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 1)
	clause := or[0].(bson.M)["name"].(bson.M)
	assert.Equal(t, "i", clause["$options"])

	re := regexp.MustCompile("(?i)" + clause["$regex"].(string))
	assert.True(t, re.MatchString("Blue SHIRT"))
	assert.True(t, re.MatchString("t-shirts"))
	assert.False(t, re.MatchString("Shoes"))
}

func TestParse_SearchEscapesPattern(t *testing.T) {
	cfg := Config{Search: SearchConfig{Fields: []string{"title", "description"}}}

	parsed := cfg.Parse(Parse("keyword=" + "a.%2B"))

	or := parsed.Filter["$or"].(bson.A)
	require.Len(t, or, 2)
	pattern := or[1].(bson.M)["description"].(bson.M)["$regex"].(string)
	assert.Equal(t, `a\.\+`, pattern)
}

func TestParse_Sort(t *testing.T) {
	cfg := Config{}

	parsed := cfg.Parse(Parse("sort[price]=asc&sort[0]=1&sort[createdAt]=1&sort[title]=desc&sort[sold]=-1"))

	assert.Equal(t, bson.D{
		{Key: "price", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "title", Value: -1},
		{Key: "sold", Value: -1},
	}, parsed.Sort)
}

func TestParse_SortNotMap(t *testing.T) {
	cfg := Config{}

	assert.Empty(t, cfg.Parse(Parse("sort=price")).Sort)
	assert.Empty(t, cfg.Parse(Parse("sort[]=price")).Sort)
}

func TestParse_Projection(t *testing.T) {
	cfg := Config{Projection: ProjectionConfig{Exclude: []string{"password"}}}

	tests := []struct {
		name string
		raw  string
		want map[string]bool
	}{
		{"absent", "", map[string]bool{}},
		{"wrong shape", "select[a]=b", map[string]bool{}},
		{"single string", "select=name", map[string]bool{"name": true, "password": false}},
		{"comma list", "select=name,-email", map[string]bool{"name": true, "email": false, "password": false}},
		{"array", "select[]=name&select[]=-phone", map[string]bool{"name": true, "phone": false, "password": false}},
		{"excluded cannot be selected", "select[]=password&select[]=name", map[string]bool{"name": true, "password": false}},
		{"excluded with minus is skipped", "select=-password", map[string]bool{"password": false}},
		{"blank tokens skipped", "select[]=&select[]=-&select[]=name", map[string]bool{"name": true, "password": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Parse(Parse(tt.raw)).Projection)
		})
	}
}

func TestParse_ProjectionExcludedAlwaysFalse(t *testing.T) {
	cfg := Config{Projection: ProjectionConfig{Key: "fields", Exclude: []string{"password", "passwordChangedAt"}}}
	inputs := []string{
		"fields=password",
		"fields=passwordChangedAt,password,name",
		"fields[]=password&fields[]=password",
		"fields[0]=password&fields[1]=-name",
	}

	for _, raw := range inputs {
		proj := cfg.Parse(Parse(raw)).Projection
		for _, field := range cfg.Projection.Exclude {
			include, ok := proj[field]
			assert.True(t, ok, "query %q must mention %s", raw, field)
			assert.False(t, include, "query %q must exclude %s", raw, field)
		}
	}
}

func TestParse_Populate(t *testing.T) {
	cfg := Config{Populate: PopulateConfig{Exclude: []string{"user"}}}

	parsed := cfg.Parse(Parse("populate[brand]=*&populate[category]=name slug&populate[subcategories][]=name&populate[user]=name&populate[tags]="))

	assert.Equal(t, []Population{
		{Path: "brand"},
		{Path: "category", Select: []string{"name", "slug"}},
		{Path: "subcategories", Select: []string{"name"}},
		{Path: "tags"},
	}, parsed.Populate)
}

func TestParse_PopulateInvalidShape(t *testing.T) {
	raw := "populate[brand]=name&populate[category][x]=y"

	lenient := Config{}
	assert.Equal(t, []Population{
		{Path: "brand", Select: []string{"name"}},
		{Path: "category"},
	}, lenient.Parse(Parse(raw)).Populate)

	strict := Config{Populate: PopulateConfig{IgnoreInvalid: true}}
	assert.Empty(t, strict.Parse(Parse(raw)).Populate)
}

func TestParse_PopulateNotMap(t *testing.T) {
	cfg := Config{}

	assert.Empty(t, cfg.Parse(Parse("populate=brand")).Populate)
}

func TestParse_PopulateInvalidExcludedPath(t *testing.T) {
	cfg := Config{Populate: PopulateConfig{Exclude: []string{"user"}, IgnoreInvalid: true}}

	assert.Empty(t, cfg.Parse(Parse("populate[user][a]=x&populate[brand]=*")).Populate)
}

func TestParse_IgnoresOperatorFields(t *testing.T) {
	cfg := Config{}

	parsed := cfg.Parse(Parse("sort[$where]=1&sort[price]=asc&select=$expr,title,-$natural&populate[$lookup]=*&populate[brand]=name,$slice"))

	assert.Equal(t, bson.D{{Key: "price", Value: 1}}, parsed.Sort)
	assert.Equal(t, map[string]bool{"title": true}, parsed.Projection)
	assert.Equal(t, []Population{{Path: "brand", Select: []string{"name"}}}, parsed.Populate)
}
