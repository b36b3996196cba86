// File path: internal/sqlite/state.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SaveContext upserts the single current-context row.
func (s *Store) SaveContext(ctx context.Context, payload []byte) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO context_memory (id, payload, updated_at) VALUES (1, ?, ?)
                ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	return nil
}

// LoadContext returns the persisted context payload, or nil when none was
// ever saved.
func (s *Store) LoadContext(ctx context.Context) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM context_memory WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	return []byte(payload), nil
}

// ClearContext removes the persisted context row.
func (s *Store) ClearContext(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM context_memory WHERE id = 1`); err != nil {
		return fmt.Errorf("clear context: %w", err)
	}
	return nil
}

// SaveMetaIndex replaces the persisted category→items mapping.
func (s *Store) SaveMetaIndex(ctx context.Context, index map[string][]string) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meta index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta_index`); err != nil {
		tx.Rollback()
		return fmt.Errorf("reset meta index: %w", err)
	}
	for category, items := range index {
		for _, item := range items {
			if item == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO meta_index (category, item) VALUES (?, ?)`, category, item); err != nil {
				tx.Rollback()
				return fmt.Errorf("insert meta index: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit meta index: %w", err)
	}
	return nil
}

// LoadMetaIndex returns the persisted category→items mapping.
func (s *Store) LoadMetaIndex(ctx context.Context) (map[string][]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	rows := []struct {
		Category string `db:"category"`
		Item     string `db:"item"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT category, item FROM meta_index ORDER BY category, item`); err != nil {
		return nil, fmt.Errorf("select meta index: %w", err)
	}
	out := make(map[string][]string)
	for _, row := range rows {
		out[row.Category] = append(out[row.Category], row.Item)
	}
	return out, nil
}

// exportDocument is the bulk export/import shape: the entire persisted state
// as one structured document.
type exportDocument struct {
	ExportedAt int64               `json:"exported_at"`
	Learned    []LearnedRecord     `json:"learned_knowledge"`
	Context    json.RawMessage     `json:"context,omitempty"`
	MetaIndex  map[string][]string `json:"meta_index,omitempty"`
}

// Export serializes the whole persisted state into one JSON document.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	learned, err := s.AllLearned(ctx)
	if err != nil {
		return nil, err
	}
	contextPayload, err := s.LoadContext(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := s.LoadMetaIndex(ctx)
	if err != nil {
		return nil, err
	}
	doc := exportDocument{
		ExportedAt: time.Now().Unix(),
		Learned:    learned,
		Context:    contextPayload,
		MetaIndex:  meta,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Import restores state from an export document. Learned records merge by
// normalized question; context and meta index are replaced when present.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse import: %w", err)
	}
	for _, record := range doc.Learned {
		if _, err := s.Teach(ctx, record.Question, record.Answer, record.Metadata); err != nil {
			return fmt.Errorf("import learned %q: %w", record.Question, err)
		}
	}
	if len(doc.Context) > 0 {
		if err := s.SaveContext(ctx, doc.Context); err != nil {
			return err
		}
	}
	if len(doc.MetaIndex) > 0 {
		if err := s.SaveMetaIndex(ctx, doc.MetaIndex); err != nil {
			return err
		}
	}
	return nil
}
