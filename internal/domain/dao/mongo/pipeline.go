package mongo

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/query"
)

// buildPipeline turns a find request into an aggregation. Population runs
// after pagination so only the returned page is joined.
func buildPipeline(schema dao.Schema, filter bson.M, opts dao.FindOptions) mongo.Pipeline {
	if filter == nil {
		filter = bson.M{}
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: filter}}}
	if len(opts.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: opts.Sort}})
	}
	if opts.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: opts.Limit}})
	}

	for _, p := range opts.Populate {
		rel, ok := schema.Relation(p.Path)
		if !ok {
			continue
		}
		pipeline = append(pipeline, lookupStages(p, rel)...)
	}

	if project := projectionStage(opts.Projection, schema.Hidden); project != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})
	}

	return pipeline
}

func lookupStages(p query.Population, rel dao.Relation) []bson.D {
	lookup := bson.D{
		{Key: "from", Value: rel.Collection},
		{Key: "localField", Value: p.Path},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: p.Path},
	}
	if project := projectionStage(selection(p.Select), rel.Hidden); project != nil {
		lookup = append(lookup, bson.E{Key: "pipeline", Value: mongo.Pipeline{{{Key: "$project", Value: project}}}})
	}

	stages := []bson.D{{{Key: "$lookup", Value: lookup}}}
	if !rel.Many {
		stages = append(stages, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + p.Path},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}
	return stages
}

// selection reads populate field tokens, where "-field" excludes.
func selection(fields []string) map[string]bool {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "-") {
			if name := f[1:]; name != "" {
				out[name] = false
			}
			continue
		}
		out[f] = true
	}
	return out
}

// projectionStage merges a requested projection with the hidden fields of
// a collection. MongoDB rejects mixed inclusion and exclusion, so when any
// field is included only _id may still be excluded. Returns nil when there
// is nothing to project.
func projectionStage(projection map[string]bool, hidden []string) bson.D {
	isHidden := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		isHidden[h] = true
	}

	var include, exclude []string
	for field, on := range projection {
		switch {
		case on && !isHidden[field]:
			include = append(include, field)
		case !on:
			exclude = append(exclude, field)
		}
	}
	sort.Strings(include)
	sort.Strings(exclude)

	var stage bson.D
	if len(include) > 0 {
		for _, f := range include {
			stage = append(stage, bson.E{Key: f, Value: 1})
		}
		if on, ok := projection["_id"]; ok && !on {
			stage = append(stage, bson.E{Key: "_id", Value: 0})
		}
		return stage
	}

	seen := make(map[string]bool)
	for _, f := range append(exclude, hidden...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		stage = append(stage, bson.E{Key: f, Value: 0})
	}
	return stage
}
