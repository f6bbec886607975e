package feature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/domain/wallet"
)

const grantCacheTTL = 30 * time.Second

// Service handles the feature catalog and coin-paid feature purchases
type Service struct {
	repo      *Repository
	walletSvc *wallet.Service
	cache     *redis.Client
}

// NewService creates a feature service. cache may be nil; lookups then
// always hit the database.
func NewService(repo *Repository, walletSvc *wallet.Service, cache *redis.Client) *Service {
	return &Service{repo: repo, walletSvc: walletSvc, cache: cache}
}

// ListCatalog returns all purchasable features.
func (s *Service) ListCatalog(ctx context.Context) ([]Feature, error) {
	return s.repo.ListActive(ctx)
}

// ListMine returns the user's grants.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]UserFeature, error) {
	return s.repo.ListGrants(ctx, userID)
}

// HasFeature reports whether the user holds a current grant for the
// given feature code. Results are cached briefly; cache failures fall
// through to the database.
func (s *Service) HasFeature(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	key := fmt.Sprintf("user_feature:%s:%s", userID, code)

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key).Result(); err == nil {
			return val == "1", nil
		}
	}

	f, err := s.repo.GetActiveByCode(ctx, code)
	if errors.Is(err, ErrFeatureNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	grant, err := s.repo.GetGrant(ctx, userID, f.ID)
	if err != nil {
		return false, err
	}
	has := grant != nil && grant.Current(time.Now())

	if s.cache != nil {
		val := "0"
		if has {
			val = "1"
		}
		if err := s.cache.Set(ctx, key, val, grantCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("feature grant cache write failed")
		}
	}

	return has, nil
}

// PurchaseFeature spends coins on a feature: the wallet debit, the
// purchase record and the grant activation commit or roll back together.
func (s *Service) PurchaseFeature(ctx context.Context, userID uuid.UUID, code string) (*FeaturePurchase, error) {
	f, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if grant, err := s.repo.GetGrant(ctx, userID, f.ID); err != nil {
		return nil, err
	} else if grant != nil && grant.Current(time.Now()) {
		return nil, ErrAlreadyActive
	}

	tx, err := s.repo.BeginTxx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	purchase := &FeaturePurchase{
		ID:           uuid.New(),
		UserID:       userID,
		FeatureID:    f.ID,
		CoinsSpent:   f.PriceCoins,
		DurationDays: f.DurationDays,
	}

	var expiresOn *time.Time
	if f.DurationDays > 0 {
		t := time.Now().AddDate(0, 0, f.DurationDays)
		expiresOn = &t
		purchase.ExpiresAt = sql.NullTime{Time: t, Valid: true}
	}

	// The debit locks the wallet row, serializing a user's purchases.
	// Only after that lock is held can the grant re-check below see
	// everything a concurrent purchase committed; the check before the
	// transaction is just a fast path.
	ref := purchase.ID.String()
	entry, err := s.walletSvc.DebitTx(ctx, tx, userID, f.PriceCoins, wallet.TransactionTypeFeatureBuy, &ref,
		fmt.Sprintf("Spent %d coins on feature %s", f.PriceCoins, f.Code))
	if err != nil {
		return nil, err
	}

	if grant, err := s.repo.GetGrantTx(ctx, tx, userID, f.ID); err != nil {
		return nil, err
	} else if grant != nil && grant.Current(time.Now()) {
		return nil, ErrAlreadyActive
	}
	purchase.TransactionID = uuid.NullUUID{UUID: entry.ID, Valid: true}

	if err := s.repo.CreatePurchaseTx(ctx, tx, purchase); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertGrantTx(ctx, tx, userID, f.ID, expiresOn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidateGrant(ctx, userID, code)

	log.Info().
		Str("user_id", userID.String()).
		Str("feature", f.Code).
		Int64("coins_spent", f.PriceCoins).
		Int64("balance_after", entry.BalanceAfter).
		Msg("feature purchased")

	return purchase, nil
}

func (s *Service) invalidateGrant(ctx context.Context, userID uuid.UUID, code string) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf("user_feature:%s:%s", userID, code)
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("feature grant cache invalidation failed")
	}
}
