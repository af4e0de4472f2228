package store

import (
	"context"
	"errors"
	"fmt"
)

// RefTable declares which document fields hold foreign identifiers and which
// collection they point at. Each model declares its table next to its schema;
// the Populator never guesses a target from a field name.
type RefTable map[string]string

// Source is the lookup side of population, satisfied by every Collection.
type Source interface {
	FindDocByID(ctx context.Context, id string) (Doc, error)
}

// Populator resolves reference fields to full records in document form.
type Populator struct {
	sources map[string]Source
}

func NewPopulator() *Populator {
	return &Populator{sources: make(map[string]Source)}
}

// Register makes a collection available as a population target.
func (p *Populator) Register(collection string, src Source) {
	p.sources[collection] = src
}

// Populate replaces the id held in field with the referenced record for every
// doc, projected to the selected fields when any are given (id is always
// kept). A dangling reference leaves the id in place. Array-valued reference
// fields are skipped; multi-reference population is not supported.
func (p *Populator) Populate(ctx context.Context, docs []Doc, refs RefTable, field string, selected ...string) error {
	target, ok := refs[field]
	if !ok {
		return fmt.Errorf("field %q has no declared reference target", field)
	}
	src, ok := p.sources[target]
	if !ok {
		return fmt.Errorf("no source registered for collection %q", target)
	}

	for _, doc := range docs {
		raw, ok := doc[field]
		if !ok || raw == nil {
			continue
		}
		if _, isArray := raw.([]any); isArray {
			continue
		}
		id, ok := raw.(string)
		if !ok || id == "" {
			continue
		}

		related, err := src.FindDocByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		doc[field] = project(related, selected)
	}
	return nil
}

// PopulateOne is the single-document convenience form.
func (p *Populator) PopulateOne(ctx context.Context, doc Doc, refs RefTable, field string, selected ...string) error {
	return p.Populate(ctx, []Doc{doc}, refs, field, selected...)
}

func project(doc Doc, selected []string) Doc {
	if len(selected) == 0 {
		return doc
	}
	out := Doc{"id": doc["id"]}
	for _, f := range selected {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
