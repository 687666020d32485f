package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/gift-recommender/internal/types"
)

// -----------------------------------------------------------------------------
// Recommendation Methods
// -----------------------------------------------------------------------------

const recommendationColumns = `id, vault_id, milestone_id, candidate_id, recommendation_type, title,
	description, price_cents, currency, external_url, image_url, merchant_name, source,
	matched_interest, matched_vibe, final_score, reason, created_at`

// SaveRecommendations stores the items returned to the user in one transaction and
// returns them with their new ids.
func (db *DB) SaveRecommendations(ctx context.Context, vaultID uuid.UUID, milestoneID *uuid.UUID, items []types.Candidate) ([]StoredRecommendation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	saved := make([]StoredRecommendation, 0, len(items))
	for _, c := range items {
		row := tx.QueryRow(ctx,
			`INSERT INTO recommendations (vault_id, milestone_id, candidate_id, recommendation_type, title,
			     description, price_cents, currency, external_url, image_url, merchant_name, source,
			     matched_interest, matched_vibe, final_score, reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 RETURNING `+recommendationColumns,
			vaultID, milestoneID, c.ID, c.Type, c.Title,
			nullIfEmpty(c.Description), c.PriceCents, nullIfEmpty(c.Currency), nullIfEmpty(c.ExternalURL),
			nullIfEmpty(c.ImageURL), nullIfEmpty(c.Merchant), c.Source,
			nullIfEmpty(c.Provenance.MatchedInterest), nullIfEmpty(string(c.Provenance.MatchedVibe)),
			c.FinalScore, nullIfEmpty(c.Reason),
		)
		rec, err := scanRecommendation(row)
		if err != nil {
			return nil, fmt.Errorf("failed to save recommendation %s: %w", c.ID, err)
		}
		saved = append(saved, *rec)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit recommendations: %w", err)
	}
	return saved, nil
}

// GetRecommendations loads stored recommendations of a vault by id. Unknown ids are skipped.
func (db *DB) GetRecommendations(ctx context.Context, vaultID uuid.UUID, ids []uuid.UUID) ([]StoredRecommendation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+recommendationColumns+`
		 FROM recommendations
		 WHERE vault_id = $1 AND id = ANY($2)
		 ORDER BY array_position($2::uuid[], id)`,
		vaultID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}
	defer rows.Close()

	var out []StoredRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// RecordFeedback stores why the user rejected a set of recommendations.
func (db *DB) RecordFeedback(ctx context.Context, vaultID uuid.UUID, ids []uuid.UUID, reason types.RejectionReason) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO recommendation_feedback (recommendation_id, vault_id, action, reason)
		 SELECT id, vault_id, 'refreshed', $3
		 FROM recommendations
		 WHERE vault_id = $1 AND id = ANY($2)`,
		vaultID, ids, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

func scanRecommendation(row pgx.Row) (*StoredRecommendation, error) {
	var rec StoredRecommendation
	var desc, currency, url, image, merchant, interest, vibe, reason *string
	c := &rec.Candidate
	err := row.Scan(&rec.ID, &rec.VaultID, &rec.MilestoneID, &c.ID, &c.Type, &c.Title,
		&desc, &c.PriceCents, &currency, &url, &image, &merchant, &c.Source,
		&interest, &vibe, &c.FinalScore, &reason, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = derefString(desc)
	c.Currency = derefString(currency)
	c.ExternalURL = derefString(url)
	c.ImageURL = derefString(image)
	c.Merchant = derefString(merchant)
	c.Provenance = types.Provenance{MatchedInterest: derefString(interest), MatchedVibe: types.Vibe(derefString(vibe))}
	c.Reason = derefString(reason)
	return &rec, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
