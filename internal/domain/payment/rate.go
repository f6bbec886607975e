package payment

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateType distinguishes purchase rates from redemption rates
type RateType string

const (
	RatePurchase   RateType = "PURCHASE"
	RateRedemption RateType = "REDEMPTION"
)

const rateCacheTTL = 60 * time.Second

// RateStore resolves the active coin exchange rate in hundredths of a
// coin per currency unit. Rates are read through Redis; cache and DB
// failures degrade to the configured default rather than failing the
// request.
type RateStore struct {
	db           *sqlx.DB
	cache        *redis.Client
	defaultCenti int64
}

func NewRateStore(db *sqlx.DB, cache *redis.Client, defaultCenti int64) *RateStore {
	if defaultCenti <= 0 {
		defaultCenti = 100
	}
	return &RateStore{db: db, cache: cache, defaultCenti: defaultCenti}
}

// ActiveRate returns the active rate for the given type.
func (s *RateStore) ActiveRate(ctx context.Context, rateType RateType) int64 {
	key := "coin_rate:" + string(rateType)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
			if rate, err := strconv.ParseInt(raw, 10, 64); err == nil && rate > 0 {
				return rate
			}
		}
	}

	var rate int64
	err := s.db.GetContext(ctx, &rate, `
		SELECT coins_per_unit_centi FROM coin_rates
		WHERE rate_type = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`, string(rateType))
	if errors.Is(err, sql.ErrNoRows) {
		rate = s.defaultCenti
	} else if err != nil {
		log.Warn().Err(err).Str("rate_type", string(rateType)).Msg("coin rate lookup failed, using default")
		rate = s.defaultCenti
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.FormatInt(rate, 10), rateCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Msg("coin rate cache set failed")
		}
	}
	return rate
}

// SetRate replaces the active rate of the given type: the previous
// active rows are retired and the new rate inserted in one transaction.
// The cache entry is dropped so the next read picks the new rate up.
func (s *RateStore) SetRate(ctx context.Context, rateType RateType, centi int64) error {
	if centi <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE coin_rates SET is_active = FALSE
		WHERE rate_type = $1 AND is_active
	`, string(rateType)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO coin_rates (rate_type, coins_per_unit_centi, is_active)
		VALUES ($1, $2, TRUE)
	`, string(rateType), centi); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if s.cache != nil {
		key := "coin_rate:" + string(rateType)
		if err := s.cache.Del(ctx, key).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("coin rate cache invalidation failed")
		}
	}

	log.Info().Str("rate_type", string(rateType)).Int64("coins_per_unit_centi", centi).Msg("coin rate updated")
	return nil
}

// Describe renders a rate as a human-readable exchange description,
// e.g. "1.00 coins per INR 1".
func Describe(rateCenti int64, currency string) string {
	return strconv.FormatInt(rateCenti/100, 10) + "." +
		pad2(rateCenti%100) + " coins per " + currency + " 1"
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
