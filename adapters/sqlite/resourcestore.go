package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/apiview/ports"
)

// ResourceStore is a SQLite implementation of ports.ResourceStore. Resources
// are schemaless, so each row stores the full resource as a JSON document
// keyed by (type, id).
type ResourceStore struct {
	db    *DB
	idgen ports.IDGenerator
}

// NewResourceStore creates a SQLite-backed resource store.
func NewResourceStore(db *DB, idgen ports.IDGenerator) *ResourceStore {
	return &ResourceStore{db: db, idgen: idgen}
}

// List returns all resources of a type in insertion order.
func (s *ResourceStore) List(ctx context.Context, resourceType string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM resources WHERE type = ? ORDER BY rowid`, resourceType)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resourceType, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", resourceType, err)
		}
		res, err := decodeDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Get retrieves a resource by id.
func (s *ResourceStore) Get(ctx context.Context, resourceType, id string) (map[string]any, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM resources WHERE type = ? AND id = ?`, resourceType, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", resourceType, id, err)
	}
	return decodeDoc(doc)
}

// Create stores a new resource, assigning an id when the caller supplies
// none.
func (s *ResourceStore) Create(ctx context.Context, resourceType string, resource map[string]any) (map[string]any, error) {
	res := make(map[string]any, len(resource)+1)
	for k, v := range resource {
		res[k] = v
	}
	id, _ := res["id"].(string)
	if id == "" {
		id = s.idgen.New()
		res["id"] = id
	}

	doc, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", resourceType, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resources (type, id, doc) VALUES (?, ?, ?)`,
		resourceType, id, string(doc))
	if err != nil {
		return nil, fmt.Errorf("create %s/%s: %w", resourceType, id, err)
	}
	return res, nil
}

// Update merges fields into an existing resource.
func (s *ResourceStore) Update(ctx context.Context, resourceType, id string, fields map[string]any) (map[string]any, error) {
	res, err := s.Get(ctx, resourceType, id)
	if err != nil {
		return nil, err
	}

	for k, v := range fields {
		if k == "id" {
			continue
		}
		res[k] = v
	}

	doc, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", resourceType, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE resources SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE type = ? AND id = ?`,
		string(doc), resourceType, id)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", resourceType, id, err)
	}
	return res, nil
}

// Delete removes a resource.
func (s *ResourceStore) Delete(ctx context.Context, resourceType, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM resources WHERE type = ? AND id = ?`, resourceType, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", resourceType, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", resourceType, id, err)
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func decodeDoc(doc string) (map[string]any, error) {
	var res map[string]any
	if err := json.Unmarshal([]byte(doc), &res); err != nil {
		return nil, fmt.Errorf("decode stored resource: %w", err)
	}
	return res, nil
}

// Ensure interface compliance.
var _ ports.ResourceStore = (*ResourceStore)(nil)
