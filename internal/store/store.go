// Package store provides a uniform record-store interface per entity type,
// backed by either Postgres or an on-disk JSON file per collection. The
// backend is chosen once at process startup and injected into the services;
// nothing in this package re-checks connectivity per call.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by point lookups, updates and deletes when no
// record has the requested id. Callers translate it to a domain-level 404.
var ErrNotFound = errors.New("record not found")

// Meta carries the generated identity and timestamps shared by every entity.
// Embed it as the first field of a model struct.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) RecordID() string { return m.ID }

func (m *Meta) stamp(id string, now time.Time) {
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Record is satisfied by any model struct embedding *Meta.
type Record interface {
	RecordID() string
	stamp(id string, now time.Time)
}

// Filter maps document field names to match conditions. A plain value means
// exact equality; In and Regex express one-of and pattern matches. An empty
// filter matches every record.
type Filter map[string]any

// In matches when the field value is a member of the set.
type In []string

// Regex matches the field's string form against a regular expression.
type Regex struct {
	Pattern     string
	Insensitive bool
}

// Sort orders results by a single document field.
type Sort struct {
	Field string
	Desc  bool
}

// Query bundles the optional parts of a Find call. Limit truncates after
// sorting; zero means no limit.
type Query struct {
	Filter Filter
	Sort   *Sort
	Limit  int
}

// GroupRow is one bucket of a GroupSum aggregation.
type GroupRow struct {
	Key   string
	Count int64
	Sum   float64
}

// Collection is the record-store contract every backend implements.
type Collection[T Record] interface {
	Find(ctx context.Context, q Query) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	FindByID(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, rec T) (T, error)
	UpdateByID(ctx context.Context, id string, patch Patch) (T, error)
	DeleteByID(ctx context.Context, id string) (T, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// GroupSum groups matching records by field and reports per-bucket record
	// counts plus the sum of sumField. Both backends implement it; sumField
	// may be empty when only counts are needed.
	GroupSum(ctx context.Context, filter Filter, field, sumField string) ([]GroupRow, error)

	// FindDocByID is the document-form lookup used by the Populator.
	FindDocByID(ctx context.Context, id string) (Doc, error)
}

// Patch is a partial document merged over an existing record by UpdateByID.
// A nil value clears the field.
type Patch map[string]any

// Doc is the JSON document form of a record.
type Doc map[string]any

// ToDoc converts a record to document form through its JSON encoding.
func ToDoc(rec any) (Doc, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// ToDocs converts a slice of records to document form.
func ToDocs[T any](recs []T) ([]Doc, error) {
	docs := make([]Doc, 0, len(recs))
	for _, r := range recs {
		d, err := ToDoc(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func fromDoc[T any](d Doc) (T, error) {
	var rec T
	b, err := json.Marshal(d)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
