package feature

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// ListActive returns the purchasable feature catalog.
func (r *Repository) ListActive(ctx context.Context) ([]Feature, error) {
	var features []Feature
	err := r.db.SelectContext(ctx, &features, `
		SELECT * FROM features
		WHERE status = 'active'
		ORDER BY price_coins ASC, code ASC
	`)
	return features, err
}

// GetActiveByCode returns an active feature by its code.
func (r *Repository) GetActiveByCode(ctx context.Context, code string) (*Feature, error) {
	f := &Feature{}
	err := r.db.GetContext(ctx, f, `SELECT * FROM features WHERE code = $1 AND status = 'active'`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFeatureNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetGrant returns the user's grant for a feature, nil when none exists.
func (r *Repository) GetGrant(ctx context.Context, userID uuid.UUID, featureID int64) (*UserFeature, error) {
	uf := &UserFeature{}
	err := r.db.GetContext(ctx, uf, `
		SELECT * FROM user_features
		WHERE user_id = $1 AND feature_id = $2
	`, userID, featureID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return uf, nil
}

// GetGrantTx reads the user's grant inside a caller-provided
// transaction, locking the row against concurrent activation. Returns
// nil when no grant exists.
func (r *Repository) GetGrantTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, featureID int64) (*UserFeature, error) {
	uf := &UserFeature{}
	err := tx.GetContext(ctx, uf, `
		SELECT * FROM user_features
		WHERE user_id = $1 AND feature_id = $2
		FOR UPDATE
	`, userID, featureID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return uf, nil
}

// ListGrants returns all of a user's grants.
func (r *Repository) ListGrants(ctx context.Context, userID uuid.UUID) ([]UserFeature, error) {
	var grants []UserFeature
	err := r.db.SelectContext(ctx, &grants, `
		SELECT * FROM user_features
		WHERE user_id = $1
		ORDER BY activated_on DESC
	`, userID)
	return grants, err
}

// UpsertGrantTx activates or extends the user's grant inside a
// caller-provided transaction.
func (r *Repository) UpsertGrantTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, featureID int64, expiresOn *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_features (id, user_id, feature_id, is_active, activated_on, expires_on)
		VALUES ($1, $2, $3, TRUE, now(), $4)
		ON CONFLICT (user_id, feature_id)
		DO UPDATE SET is_active = TRUE, activated_on = now(), expires_on = $4
	`, uuid.New(), userID, featureID, expiresOn)
	return err
}

// CreatePurchaseTx records a feature purchase inside a caller-provided
// transaction.
func (r *Repository) CreatePurchaseTx(ctx context.Context, tx *sqlx.Tx, p *FeaturePurchase) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO feature_purchases (id, user_id, feature_id, coins_spent, duration_days, transaction_id, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
	`, p.ID, p.UserID, p.FeatureID, p.CoinsSpent, p.DurationDays, p.TransactionID, p.ExpiresAt)
	return err
}
