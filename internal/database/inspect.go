package database

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxSampleLimit     = 50
	defaultSampleLimit = 3
	maxStringLen       = 200
)

// CollectionInfo summarizes one collection for the operator inspection
// endpoint: document count plus a small redacted sample.
type CollectionInfo struct {
	Name   string                   `json:"name"`
	Count  int64                    `json:"count"`
	Sample []map[string]interface{} `json:"sample"`
}

// Inspect lists every collection in db with its document count and up to
// limit redacted sample documents. Sample values never expose full content:
// strings are truncated, everything else is replaced by its type name.
func Inspect(ctx context.Context, db *mongo.Database, limit int) ([]CollectionInfo, error) {
	limit = clampSampleLimit(limit)

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)

	out := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		col := db.Collection(name)
		count, err := col.CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}

		cur, err := col.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		sample := []map[string]interface{}{}
		for cur.Next(ctx) {
			var doc bson.M
			if err := cur.Decode(&doc); err != nil {
				cur.Close(ctx)
				return nil, fmt.Errorf("decode sample from %s: %w", name, err)
			}
			sample = append(sample, RedactDocument(doc))
		}
		cur.Close(ctx)

		out = append(out, CollectionInfo{Name: name, Count: count, Sample: sample})
	}
	return out, nil
}

// RedactDocument maps each top-level value to a safe representation:
// strings truncated to 200 chars, any other value replaced by its type name.
func RedactDocument(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%T", v)
	}
	if len(s) > maxStringLen {
		return s[:maxStringLen] + "…"
	}
	return s
}

func clampSampleLimit(limit int) int {
	if limit < 1 {
		return defaultSampleLimit
	}
	if limit > maxSampleLimit {
		return maxSampleLimit
	}
	return limit
}
