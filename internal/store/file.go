package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileCollection keeps one JSON file per entity type under a data directory.
// The whole collection is loaded into memory on first use and the full file is
// rewritten on every mutation. Intended for single-instance, low-concurrency
// deployments where no database is reachable.
type FileCollection[T Record] struct {
	name string
	path string
	log  *zap.Logger

	mu     sync.Mutex
	docs   []Doc
	loaded bool
}

// NewFile opens (or creates) the JSON-file backed collection for name.
func NewFile[T Record](dataDir, name string, log *zap.Logger) (*FileCollection[T], error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileCollection[T]{
		name: name,
		path: filepath.Join(dataDir, name+".json"),
		log:  log,
	}, nil
}

// load populates the in-memory cache. A corrupt file degrades to an empty
// collection with a warning rather than failing the process.
func (c *FileCollection[T]) load() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.docs = []Doc{}

	b, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("failed to read collection file, starting empty",
				zap.String("collection", c.name), zap.Error(err))
		}
		return
	}
	var docs []Doc
	if err := json.Unmarshal(b, &docs); err != nil {
		c.log.Warn("corrupt collection file, starting empty",
			zap.String("collection", c.name), zap.Error(err))
		return
	}
	c.docs = docs
}

func (c *FileCollection[T]) save() error {
	b, err := json.MarshalIndent(c.docs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, b, 0o644)
}

func (c *FileCollection[T]) Find(_ context.Context, q Query) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	matched := make([]Doc, 0)
	for _, d := range c.docs {
		if matches(d, q.Filter) {
			matched = append(matched, d)
		}
	}
	sortDocs(matched, q.Sort)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, d := range matched {
		rec, err := fromDoc[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *FileCollection[T]) FindOne(_ context.Context, filter Filter) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	for _, d := range c.docs {
		if matches(d, filter) {
			return fromDoc[T](d)
		}
	}
	return zero, ErrNotFound
}

func (c *FileCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	return c.FindOne(ctx, Filter{"id": id})
}

func (c *FileCollection[T]) FindDocByID(_ context.Context, id string) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	for _, d := range c.docs {
		if equalValues(d["id"], id) {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (c *FileCollection[T]) Insert(_ context.Context, rec T) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	rec.stamp(uuid.NewString(), time.Now().UTC())
	d, err := ToDoc(rec)
	if err != nil {
		return zero, err
	}
	c.docs = append(c.docs, d)
	if err := c.save(); err != nil {
		return zero, err
	}
	return rec, nil
}

func (c *FileCollection[T]) UpdateByID(_ context.Context, id string, patch Patch) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	for i, d := range c.docs {
		if !equalValues(d["id"], id) {
			continue
		}
		merged := make(Doc, len(d)+len(patch))
		for k, v := range d {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

		// Round-trip through the typed record so a malformed patch is
		// rejected before it reaches disk.
		rec, err := fromDoc[T](merged)
		if err != nil {
			return zero, err
		}
		c.docs[i] = merged
		if err := c.save(); err != nil {
			return zero, err
		}
		return rec, nil
	}
	return zero, ErrNotFound
}

func (c *FileCollection[T]) DeleteByID(_ context.Context, id string) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	for i, d := range c.docs {
		if !equalValues(d["id"], id) {
			continue
		}
		rec, err := fromDoc[T](d)
		if err != nil {
			return zero, err
		}
		c.docs = append(c.docs[:i], c.docs[i+1:]...)
		if err := c.save(); err != nil {
			return zero, err
		}
		return rec, nil
	}
	return zero, ErrNotFound
}

func (c *FileCollection[T]) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	remaining := make([]Doc, 0, len(c.docs))
	for _, d := range c.docs {
		if !matches(d, filter) {
			remaining = append(remaining, d)
		}
	}
	removed := int64(len(c.docs) - len(remaining))
	if removed == 0 {
		return 0, nil
	}
	c.docs = remaining
	if err := c.save(); err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *FileCollection[T]) Count(_ context.Context, filter Filter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	var n int64
	for _, d := range c.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (c *FileCollection[T]) GroupSum(_ context.Context, filter Filter, field, sumField string) ([]GroupRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	matched := make([]Doc, 0)
	for _, d := range c.docs {
		if matches(d, filter) {
			matched = append(matched, d)
		}
	}
	return groupDocs(matched, field, sumField), nil
}
