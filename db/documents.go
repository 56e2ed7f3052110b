package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"finzora/api/store"
)

func (b *Backend) Insert(ctx context.Context, userID, collection string, doc store.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding document: %v", err)
	}
	query := `
		INSERT INTO documents (collection, user_id, id, body)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := b.DB.ExecContext(ctx, query, collection, userID, doc.ID(), string(body)); err != nil {
		return fmt.Errorf("error inserting into %s: %v", collection, err)
	}
	return nil
}

func (b *Backend) Find(ctx context.Context, userID, collection string, q store.Query) ([]store.Document, error) {
	filter := q.Filter
	if filter == nil {
		filter = map[string]any{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("error encoding filter: %v", err)
	}

	var limit sql.NullInt64
	if q.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(q.Limit), Valid: true}
	}

	// Without a sort field rows come back newest first.
	query := `
		SELECT body FROM documents
		WHERE collection = $1 AND user_id = $2 AND body @> $3::jsonb
		ORDER BY body ->> $4 DESC, created_at DESC
		LIMIT $5
	`
	rows, err := b.DB.QueryContext(ctx, query, collection, userID, string(filterJSON), q.SortBy, limit)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %v", collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("error scanning %s: %v", collection, err)
		}
		var doc store.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("error decoding %s: %v", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (b *Backend) Get(ctx context.Context, userID, collection, id string) (store.Document, error) {
	query := `
		SELECT body FROM documents
		WHERE collection = $1 AND user_id = $2 AND id = $3
	`
	var body []byte
	err := b.DB.QueryRowContext(ctx, query, collection, userID, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching %s/%s: %v", collection, id, err)
	}
	var doc store.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("error decoding %s/%s: %v", collection, id, err)
	}
	return doc, nil
}

func (b *Backend) Update(ctx context.Context, userID, collection, id string, fields store.Document) (bool, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("error encoding update: %v", err)
	}
	query := `
		UPDATE documents
		SET body = body || $4::jsonb
		WHERE collection = $1 AND user_id = $2 AND id = $3
	`
	res, err := b.DB.ExecContext(ctx, query, collection, userID, id, string(patch))
	if err != nil {
		return false, fmt.Errorf("error updating %s/%s: %v", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *Backend) Upsert(ctx context.Context, userID, collection, id string, doc store.Document) error {
	doc["id"] = id
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding document: %v", err)
	}
	query := `
		INSERT INTO documents (collection, user_id, id, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, user_id, id) DO UPDATE SET body = EXCLUDED.body
	`
	if _, err := b.DB.ExecContext(ctx, query, collection, userID, id, string(body)); err != nil {
		return fmt.Errorf("error upserting %s/%s: %v", collection, id, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, userID, collection, id string) (bool, error) {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND user_id = $2 AND id = $3
	`
	res, err := b.DB.ExecContext(ctx, query, collection, userID, id)
	if err != nil {
		return false, fmt.Errorf("error deleting %s/%s: %v", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *Backend) Users(ctx context.Context, collection string) ([]string, error) {
	query := `
		SELECT DISTINCT user_id FROM documents
		WHERE collection = $1
		ORDER BY user_id
	`
	rows, err := b.DB.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %v", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

var _ store.Backend = (*Backend)(nil)
