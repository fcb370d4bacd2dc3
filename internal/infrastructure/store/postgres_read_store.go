package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/shopwise/internal/readmodel"
)

// PostgresReadStore keeps every read model as a JSONB document in the
// read_models table, keyed by (collection, id). Documents decode back into
// the typed models registered in readmodel.New.
type PostgresReadStore struct {
	db *sql.DB
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set upserts a read model
func (rs *PostgresReadStore) Set(ctx context.Context, collection, id string, data any) error {
	return rs.put(ctx, rs.db, collection, id, data)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (rs *PostgresReadStore) put(ctx context.Context, db execer, collection, id string, data any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO read_models (collection, id, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	var doc []byte
	err := rs.db.QueryRowContext(ctx,
		`SELECT data FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	model, err := decode(collection, doc)
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(ctx context.Context, collection string) ([]any, error) {
	rows, err := rs.db.QueryContext(ctx,
		`SELECT data FROM read_models WHERE collection = $1`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		model, err := decode(collection, doc)
		if err != nil {
			return nil, err
		}
		items = append(items, model)
	}
	return items, rows.Err()
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(ctx context.Context, collection, id string) error {
	_, err := rs.db.ExecContext(ctx,
		`DELETE FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update reads the row under a lock, applies updateFn and writes the result
// in one transaction.
func (rs *PostgresReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM read_models WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock %s/%s: %w", collection, id, err)
	}

	current, err := decode(collection, doc)
	if err != nil {
		return false, err
	}

	if err := rs.put(ctx, tx, collection, id, updateFn(current)); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func decode(collection string, doc []byte) (any, error) {
	model, err := readmodel.New(collection)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return model, nil
}
