package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"royalwager/database"
	"royalwager/domain/entities"
)

// ProfileRepository maps wallets to Clash Royale player tags
type ProfileRepository struct {
	q Queryable
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{q: db.Pool}
}

// newProfileRepositoryWithTx creates a new profile repository with a transaction
func newProfileRepositoryWithTx(tx Queryable) *ProfileRepository {
	return &ProfileRepository{q: tx}
}

// GetByWallet returns the profile or nil when none exists
func (r *ProfileRepository) GetByWallet(ctx context.Context, walletID string) (*entities.PlayerProfile, error) {
	query := `
		SELECT wallet_id, tag, created_at, updated_at
		FROM player_profiles
		WHERE wallet_id = $1
	`

	var profile entities.PlayerProfile
	err := r.q.QueryRow(ctx, query, walletID).Scan(
		&profile.WalletID,
		&profile.Tag,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for wallet %s: %w", walletID, err)
	}

	return &profile, nil
}

// Upsert creates or replaces the wallet's tag
func (r *ProfileRepository) Upsert(ctx context.Context, walletID string, tag string) (*entities.PlayerProfile, error) {
	query := `
		INSERT INTO player_profiles (wallet_id, tag)
		VALUES ($1, $2)
		ON CONFLICT (wallet_id) DO UPDATE
		SET tag = EXCLUDED.tag, updated_at = NOW()
		RETURNING wallet_id, tag, created_at, updated_at
	`

	var profile entities.PlayerProfile
	err := r.q.QueryRow(ctx, query, walletID, tag).Scan(
		&profile.WalletID,
		&profile.Tag,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile for wallet %s: %w", walletID, err)
	}

	return &profile, nil
}
