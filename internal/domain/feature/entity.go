package feature

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// FeatureStatus represents feature availability
type FeatureStatus string

const (
	StatusActive   FeatureStatus = "active"
	StatusInactive FeatureStatus = "inactive"
)

// Feature is a purchasable capability in the catalog.
type Feature struct {
	ID           int64         `db:"id" json:"id"`
	Code         string        `db:"code" json:"code"`
	Name         string        `db:"name" json:"name"`
	Description  string        `db:"description" json:"description"`
	Status       FeatureStatus `db:"status" json:"status"`
	PriceCoins   int64         `db:"price_coins" json:"price_coins"`
	DurationDays int           `db:"duration_days" json:"duration_days"`
}

// UserFeature is a user's grant of a feature. A grant with a nil
// expires_on never expires.
type UserFeature struct {
	ID          uuid.UUID    `db:"id" json:"-"`
	UserID      uuid.UUID    `db:"user_id" json:"-"`
	FeatureID   int64        `db:"feature_id" json:"feature_id"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	ActivatedOn time.Time    `db:"activated_on" json:"activated_on"`
	ExpiresOn   sql.NullTime `db:"expires_on" json:"-"`
}

// Current reports whether the grant is usable at the given instant.
func (uf *UserFeature) Current(now time.Time) bool {
	if !uf.IsActive {
		return false
	}
	if uf.ExpiresOn.Valid && now.After(uf.ExpiresOn.Time) {
		return false
	}
	return true
}

// FeaturePurchase is the purchase record linking a grant to the wallet
// ledger entry that paid for it.
type FeaturePurchase struct {
	ID            uuid.UUID     `db:"id" json:"purchase_id"`
	UserID        uuid.UUID     `db:"user_id" json:"-"`
	FeatureID     int64         `db:"feature_id" json:"feature_id"`
	CoinsSpent    int64         `db:"coins_spent" json:"coins_spent"`
	DurationDays  int           `db:"duration_days" json:"duration_days"`
	TransactionID uuid.NullUUID `db:"transaction_id" json:"-"`
	PurchasedAt   time.Time     `db:"purchased_at" json:"purchased_at"`
	ExpiresAt     sql.NullTime  `db:"expires_at" json:"-"`
}
