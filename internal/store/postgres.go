package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCollection stores each record as a JSONB document in a table named
// after the collection. Predicates translate to doc->> expressions so both
// backends share the same matching vocabulary.
type PostgresCollection[T Record] struct {
	db   *sql.DB
	name string
}

// NewPostgres ensures the collection table exists and returns the store.
func NewPostgres[T Record](db *sql.DB, name string) (*PostgresCollection[T], error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		doc JSONB NOT NULL
	)`, pq.QuoteIdentifier(name))
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	return &PostgresCollection[T]{db: db, name: name}, nil
}

// buildWhere renders a filter as a WHERE clause with placeholders starting at
// $1. An empty filter yields an empty clause.
func buildWhere(filter Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	clause := ""
	args := make([]any, 0, len(filter))
	for key, cond := range filter {
		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}
		field := fmt.Sprintf("doc->>%s", pq.QuoteLiteral(key))
		switch c := cond.(type) {
		case In:
			args = append(args, pq.Array([]string(c)))
			clause += fmt.Sprintf("%s = ANY($%d)", field, len(args))
		case Regex:
			op := "~"
			if c.Insensitive {
				op = "~*"
			}
			args = append(args, c.Pattern)
			clause += fmt.Sprintf("%s %s $%d", field, op, len(args))
		default:
			args = append(args, fmt.Sprint(c))
			clause += fmt.Sprintf("%s = $%d", field, len(args))
		}
	}
	return clause, args
}

func (c *PostgresCollection[T]) table() string { return pq.QuoteIdentifier(c.name) }

func (c *PostgresCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	where, args := buildWhere(q.Filter)
	query := fmt.Sprintf("SELECT doc FROM %s%s", c.table(), where)
	if q.Sort != nil && q.Sort.Field != "" {
		dir := "ASC"
		if q.Sort.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY doc->>%s %s", pq.QuoteLiteral(q.Sort.Field), dir)
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec, err := scanDoc[T](rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *PostgresCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	where, args := buildWhere(filter)
	query := fmt.Sprintf("SELECT doc FROM %s%s LIMIT 1", c.table(), where)

	var raw []byte
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return decodeDoc[T](raw)
}

func (c *PostgresCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	var raw []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", c.table())
	if err := c.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return decodeDoc[T](raw)
}

func (c *PostgresCollection[T]) FindDocByID(ctx context.Context, id string) (Doc, error) {
	var raw []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", c.table())
	if err := c.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *PostgresCollection[T]) Insert(ctx context.Context, rec T) (T, error) {
	var zero T
	rec.stamp(uuid.NewString(), time.Now().UTC())
	b, err := json.Marshal(rec)
	if err != nil {
		return zero, err
	}
	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", c.table())
	if _, err := c.db.ExecContext(ctx, query, rec.RecordID(), b); err != nil {
		return zero, err
	}
	return rec, nil
}

func (c *PostgresCollection[T]) UpdateByID(ctx context.Context, id string, patch Patch) (T, error) {
	var zero T
	merged := make(Patch, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(merged)
	if err != nil {
		return zero, err
	}

	query := fmt.Sprintf("UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1 RETURNING doc", c.table())
	var raw []byte
	if err := c.db.QueryRowContext(ctx, query, id, b).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return decodeDoc[T](raw)
}

func (c *PostgresCollection[T]) DeleteByID(ctx context.Context, id string) (T, error) {
	var zero T
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING doc", c.table())
	var raw []byte
	if err := c.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return decodeDoc[T](raw)
}

func (c *PostgresCollection[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	where, args := buildWhere(filter)
	query := fmt.Sprintf("DELETE FROM %s%s", c.table(), where)
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *PostgresCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := buildWhere(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", c.table(), where)
	var n int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *PostgresCollection[T]) GroupSum(ctx context.Context, filter Filter, field, sumField string) ([]GroupRow, error) {
	where, args := buildWhere(filter)
	sum := "0"
	if sumField != "" {
		sum = fmt.Sprintf("COALESCE(SUM((doc->>%s)::numeric), 0)", pq.QuoteLiteral(sumField))
	}
	query := fmt.Sprintf("SELECT doc->>%s, COUNT(*), %s FROM %s%s GROUP BY 1",
		pq.QuoteLiteral(field), sum, c.table(), where)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GroupRow, 0)
	for rows.Next() {
		var row GroupRow
		if err := rows.Scan(&row.Key, &row.Count, &row.Sum); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanDoc[T Record](rows *sql.Rows) (T, error) {
	var zero T
	var raw []byte
	if err := rows.Scan(&raw); err != nil {
		return zero, err
	}
	return decodeDoc[T](raw)
}

func decodeDoc[T any](raw []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
