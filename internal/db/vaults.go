package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/gift-recommender/internal/types"
)

// -----------------------------------------------------------------------------
// Vault Methods
// -----------------------------------------------------------------------------

// LoadVault loads a partner vault with its interests, vibes, budgets and milestones.
// The vault must belong to userID; otherwise nil is returned as if it did not exist.
func (db *DB) LoadVault(ctx context.Context, vaultID, userID uuid.UUID) (*types.Vault, error) {
	vault := types.Vault{ID: vaultID}
	var city, state, country *string

	err := db.pool.QueryRow(ctx,
		`SELECT user_id, partner_name, location_city, location_state, location_country,
		        primary_love_language, secondary_love_language
		 FROM partner_vaults
		 WHERE id = $1 AND user_id = $2`,
		vaultID, userID,
	).Scan(&vault.UserID, &vault.Profile.PartnerName, &city, &state, &country,
		&vault.Profile.PrimaryLoveLanguage, &vault.Profile.SecondaryLoveLanguage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load vault: %w", err)
	}
	vault.Profile.Location = buildLocation(city, state, country)

	interests, err := db.listInterests(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	vault.Profile.Interests, vault.Profile.Dislikes = splitInterests(interests)

	if vault.Profile.Vibes, err = db.listVibes(ctx, vaultID); err != nil {
		return nil, err
	}
	if vault.Budgets, err = db.listBudgets(ctx, vaultID); err != nil {
		return nil, err
	}
	if vault.Milestones, err = db.listMilestones(ctx, vaultID); err != nil {
		return nil, err
	}
	return &vault, nil
}

func (db *DB) listInterests(ctx context.Context, vaultID uuid.UUID) ([]interestRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT interest_type, interest_category
		 FROM partner_interests
		 WHERE vault_id = $1
		 ORDER BY created_at, interest_category`,
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests: %w", err)
	}
	defer rows.Close()

	var out []interestRow
	for rows.Next() {
		var r interestRow
		if err := rows.Scan(&r.Kind, &r.Category); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) listVibes(ctx context.Context, vaultID uuid.UUID) ([]types.Vibe, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT vibe_tag FROM partner_vibes WHERE vault_id = $1 ORDER BY created_at, vibe_tag`,
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list vibes: %w", err)
	}
	defer rows.Close()

	var out []types.Vibe
	for rows.Next() {
		var v types.Vibe
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan vibe: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) listBudgets(ctx context.Context, vaultID uuid.UUID) ([]types.BudgetRange, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT occasion_type, min_amount, max_amount, currency
		 FROM partner_budgets
		 WHERE vault_id = $1`,
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var out []types.BudgetRange
	for rows.Next() {
		var b types.BudgetRange
		if err := rows.Scan(&b.OccasionType, &b.MinCents, &b.MaxCents, &b.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (db *DB) listMilestones(ctx context.Context, vaultID uuid.UUID) ([]types.MilestoneContext, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, milestone_type, milestone_name, milestone_date, recurrence, budget_tier
		 FROM partner_milestones
		 WHERE vault_id = $1
		 ORDER BY milestone_date`,
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var out []types.MilestoneContext
	for rows.Next() {
		var m types.MilestoneContext
		var recurrence, tier *string
		if err := rows.Scan(&m.ID, &m.Type, &m.Name, &m.Date, &recurrence, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		m.Recurrence = derefString(recurrence)
		m.BudgetTier = types.OccasionType(derefString(tier))
		out = append(out, m)
	}
	return out, rows.Err()
}

// splitInterests separates likes from dislikes, keeping row order.
func splitInterests(rows []interestRow) (likes, dislikes []string) {
	for _, r := range rows {
		switch r.Kind {
		case InterestLike:
			likes = append(likes, r.Category)
		case InterestDislike:
			dislikes = append(dislikes, r.Category)
		}
	}
	return likes, dislikes
}

func buildLocation(city, state, country *string) *types.Location {
	loc := types.Location{City: derefString(city), State: derefString(state), Country: derefString(country)}
	if loc.City == "" && loc.State == "" && loc.Country == "" {
		return nil
	}
	return &loc
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
