package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the store needs. pgxmock satisfies it too,
// which is how the tests run without a database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps every collection in a single documents table:
//
//	id uuid PRIMARY KEY, collection text, payload jsonb, created_at timestamptz
//
// Queries filter with jsonb containment (@>) so callers never see SQL.
type PostgresStore struct {
	db    DB
	clock func() time.Time
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, collection Collection, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, collection, payload, created_at) VALUES ($1, $2, $3, $4)`,
		id, string(collection), data, s.clock().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}

	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection Collection, id string) (Document, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, payload, created_at FROM documents WHERE collection = $1 AND id = $2`,
		string(collection), id,
	)

	var doc Document
	if err := row.Scan(&doc.ID, &doc.Payload, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection Collection, filter map[string]any) ([]Document, error) {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, payload, created_at FROM documents WHERE collection = $1 AND payload @> $2 ORDER BY created_at`,
		string(collection), filterJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Payload, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}
