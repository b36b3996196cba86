// File path: internal/sqlite/learned.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// similarityFloor is the Jaccard cutoff for a learned-knowledge hit when no
// exact normalized match exists.
const similarityFloor = 0.85

// LearnedRecord is one taught question/answer pair.
type LearnedRecord struct {
	ID         int64  `db:"id" json:"id"`
	Question   string `db:"question" json:"question"`
	Normalized string `db:"normalized" json:"normalized"`
	Answer     string `db:"answer" json:"answer"`
	Metadata   string `db:"metadata" json:"metadata,omitempty"`
	UseCount   int64  `db:"use_count" json:"use_count"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
	UpdatedAt  int64  `db:"updated_at" json:"updated_at"`
}

// Teach stores or updates a learned answer, keyed by the normalized
// question.
func (s *Store) Teach(ctx context.Context, question, answer, metadata string) (*LearnedRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, errors.New("question and answer required")
	}
	normalized := normalize.ForIndexing(question)
	if normalized == "" {
		normalized = normalize.ForEmbedding(question)
	}
	if normalized == "" {
		return nil, errors.New("question empty after normalization")
	}
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO learned_knowledge (question, normalized, answer, metadata, use_count, created_at, updated_at)
                VALUES (?, ?, ?, ?, 0, ?, ?)
                ON CONFLICT(normalized) DO UPDATE SET
                        question = excluded.question,
                        answer = excluded.answer,
                        metadata = excluded.metadata,
                        updated_at = excluded.updated_at`,
		question, normalized, answer, metadata, now, now)
	if err != nil {
		return nil, fmt.Errorf("teach: %w", err)
	}
	var record LearnedRecord
	if err := s.db.GetContext(ctx, &record, `SELECT * FROM learned_knowledge WHERE normalized = ?`, normalized); err != nil {
		return nil, fmt.Errorf("teach readback: %w", err)
	}
	return &record, nil
}

// Lookup finds a learned answer for the query: an exact normalized match
// first, then the best Jaccard match above the similarity floor. A hit bumps
// the record's use count.
func (s *Store) Lookup(ctx context.Context, query string) (*LearnedRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	normalized := normalize.ForIndexing(query)
	if normalized == "" {
		normalized = normalize.ForEmbedding(query)
	}
	if normalized == "" {
		return nil, nil
	}

	var record LearnedRecord
	err := s.db.GetContext(ctx, &record, `SELECT * FROM learned_knowledge WHERE normalized = ?`, normalized)
	switch {
	case err == nil:
		return s.bumpUse(ctx, &record)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("learned lookup: %w", err)
	}

	all, err := s.AllLearned(ctx)
	if err != nil {
		return nil, err
	}
	var best *LearnedRecord
	bestScore := similarityFloor
	for i := range all {
		score := normalize.TextSimilarity(normalized, all[i].Normalized)
		if score > bestScore {
			bestScore = score
			best = &all[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	return s.bumpUse(ctx, best)
}

func (s *Store) bumpUse(ctx context.Context, record *LearnedRecord) (*LearnedRecord, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE learned_knowledge SET use_count = use_count + 1 WHERE id = ?`, record.ID); err != nil {
		return nil, fmt.Errorf("bump use count: %w", err)
	}
	record.UseCount++
	return record, nil
}

// AllLearned returns every learned record, most recently updated first.
func (s *Store) AllLearned(ctx context.Context) ([]LearnedRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	records := []LearnedRecord{}
	if err := s.db.SelectContext(ctx, &records, `SELECT * FROM learned_knowledge ORDER BY updated_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("select learned: %w", err)
	}
	return records, nil
}

// DeleteLearned removes one learned record by id.
func (s *Store) DeleteLearned(ctx context.Context, id int64) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM learned_knowledge WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete learned: %w", err)
	}
	return nil
}
