package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jonathan/gift-recommender/internal/types"
)

// -----------------------------------------------------------------------------
// Hint Methods
// -----------------------------------------------------------------------------

// SemanticSearch returns the vault's hints closest to vector by cosine similarity,
// keeping those at or above threshold, most similar first.
func (db *DB) SemanticSearch(ctx context.Context, vaultID uuid.UUID, vector []float32, limit int, threshold float64) ([]types.RelevantHint, error) {
	// pgvector's <=> is cosine distance, so similarity is 1 - distance
	rows, err := db.pool.Query(ctx,
		`SELECT id, hint_text, source, created_at, 1 - (hint_embedding <=> $2::vector) AS similarity
		 FROM hints
		 WHERE vault_id = $1
		   AND hint_embedding IS NOT NULL
		   AND 1 - (hint_embedding <=> $2::vector) >= $3
		 ORDER BY similarity DESC
		 LIMIT $4`,
		vaultID, pgvector.NewVector(vector), threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search hints: %w", err)
	}
	return collectHints(rows, true)
}

// RecentHints returns the vault's newest hints with zero similarity.
func (db *DB) RecentHints(ctx context.Context, vaultID uuid.UUID, limit int) ([]types.RelevantHint, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, hint_text, source, created_at
		 FROM hints
		 WHERE vault_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		vaultID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent hints: %w", err)
	}
	return collectHints(rows, false)
}

// SaveHint stores a hint with its embedding. A nil embedding leaves the hint
// reachable only through RecentHints.
func (db *DB) SaveHint(ctx context.Context, vaultID uuid.UUID, text, source string, embedding []float32) (uuid.UUID, error) {
	var vec any
	if embedding != nil {
		vec = pgvector.NewVector(embedding)
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO hints (vault_id, hint_text, source, hint_embedding)
		 VALUES ($1, $2, $3, $4::vector)
		 RETURNING id`,
		vaultID, text, source, vec,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save hint: %w", err)
	}
	return id, nil
}

func collectHints(rows pgx.Rows, withSimilarity bool) ([]types.RelevantHint, error) {
	defer rows.Close()

	hints := []types.RelevantHint{}
	for rows.Next() {
		var h types.RelevantHint
		dest := []any{&h.ID, &h.Text, &h.Source, &h.CreatedAt}
		if withSimilarity {
			dest = append(dest, &h.Similarity)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan hint: %w", err)
		}
		hints = append(hints, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hints: %w", err)
	}
	return hints, nil
}
