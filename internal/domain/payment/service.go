package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/domain/wallet"
	"github.com/coinly/coinly-api/internal/pkg/razorpay"
)

// Gateway is the slice of the payment gateway the service depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	KeyID() string
}

// Config holds payment business configuration
type Config struct {
	Currency           string
	MinAmountMinor     int64
	MaxAmountMinor     int64
	OrderExpiry        time.Duration
	KeySecret          string
	WebhookSecret      string
	MinRedemptionCoins int64
}

// Service handles coin purchase orders and confirmation reconciliation
type Service struct {
	repo      *Repository
	walletSvc *wallet.Service
	gateway   Gateway
	rates     *RateStore
	activity  *ActivityLogger
	cfg       Config
}

// NewService creates a payment service
func NewService(repo *Repository, walletSvc *wallet.Service, gateway Gateway, rates *RateStore, activity *ActivityLogger, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.OrderExpiry <= 0 {
		cfg.OrderExpiry = time.Hour
	}
	return &Service{
		repo:      repo,
		walletSvc: walletSvc,
		gateway:   gateway,
		rates:     rates,
		activity:  activity,
		cfg:       cfg,
	}
}

// ClientMeta carries request metadata for the activity log.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// CreateOrderResponse is the result of a successful order creation.
type CreateOrderResponse struct {
	Order         *Order
	GatewayKeyID  string
	ExchangeRate  string
	CoinsToCredit int64
}

// CreateOrder validates the amount, obtains a gateway order handle and
// persists a PENDING order. Nothing is persisted when the gateway call
// fails.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, amount string, meta ClientMeta) (*CreateOrderResponse, error) {
	amountMinor, err := razorpay.ParseAmountMinor(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if amountMinor < s.cfg.MinAmountMinor || amountMinor > s.cfg.MaxAmountMinor {
		return nil, fmt.Errorf("%w: allowed %s to %s %s", ErrAmountOutOfRange,
			razorpay.FormatAmountMinor(s.cfg.MinAmountMinor),
			razorpay.FormatAmountMinor(s.cfg.MaxAmountMinor),
			s.cfg.Currency)
	}

	rate := s.rates.ActiveRate(ctx, RatePurchase)
	coins := razorpay.CoinsForAmount(amountMinor, rate)

	orderID := "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	gwOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		AmountMinor: amountMinor,
		Currency:    s.cfg.Currency,
		Receipt:     orderID,
		Notes: map[string]string{
			"user_id":         userID.String(),
			"coins_to_credit": fmt.Sprintf("%d", coins),
			"purpose":         "coin_purchase",
		},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("order_id", orderID).Msg("gateway order creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	notes, _ := json.Marshal(map[string]interface{}{
		"razorpay_order": gwOrder,
	})

	order := &Order{
		ID:            uuid.New(),
		OrderID:       orderID,
		UserID:        userID,
		AmountMinor:   amountMinor,
		CoinsToCredit: coins,
		Currency:      s.cfg.Currency,
		Status:        StatusPending,
		Method:        MethodCheckout,
		RzpOrderID:    nullString(gwOrder.ID),
		Notes:         notes,
		ExpiresAt:     time.Now().Add(s.cfg.OrderExpiry),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	// Ensure the wallet exists before any confirmation can arrive.
	if _, err := s.walletSvc.GetOrCreate(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("wallet ensure failed after order creation")
	}

	s.activity.Record(ctx, LogEntry{
		UserID:    &userID,
		Type:      LogOrderCreated,
		Message:   fmt.Sprintf("Order %s created for %s %s (%d coins)", orderID, s.cfg.Currency, razorpay.FormatAmountMinor(amountMinor), coins),
		OrderID:   &order.ID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Request: map[string]interface{}{
			"amount": razorpay.FormatAmountMinor(amountMinor),
		},
		Response: map[string]interface{}{
			"razorpay_order_id": gwOrder.ID,
		},
	})

	return &CreateOrderResponse{
		Order:         order,
		GatewayKeyID:  s.gateway.KeyID(),
		ExchangeRate:  Describe(rate, s.cfg.Currency),
		CoinsToCredit: coins,
	}, nil
}

// GetOrder returns an order scoped to its owner.
func (s *Service) GetOrder(ctx context.Context, orderID string, userID uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByOrderID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// SetCoinRate replaces the active exchange rate of the given type.
// Admin operation; orders already created keep the rate they were
// priced with.
func (s *Service) SetCoinRate(ctx context.Context, rateType RateType, centi int64) error {
	if rateType != RatePurchase && rateType != RateRedemption {
		return fmt.Errorf("%w: unknown rate type %q", ErrInvalidAmount, rateType)
	}
	return s.rates.SetRate(ctx, rateType, centi)
}

// VerifyPaymentRequest is the client-side confirmation payload.
type VerifyPaymentRequest struct {
	RzpPaymentID string
	RzpOrderID   string
	RzpSignature string
}

// VerifyPayment is confirmation Path A: the checkout client posts the
// gateway handles and signature after paying. The signature is verified
// before any state is read; the transition and the wallet credit happen
// in one transaction. A repeat call for an already-settled order returns
// the existing order without touching the wallet.
func (s *Service) VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest, meta ClientMeta) (*Order, *wallet.Wallet, error) {
	if !razorpay.VerifyPaymentSignature(s.cfg.KeySecret, req.RzpOrderID, req.RzpPaymentID, req.RzpSignature) {
		log.Warn().
			Str("user_id", userID.String()).
			Str("razorpay_order_id", req.RzpOrderID).
			Msg("payment signature verification failed")
		s.activity.Record(ctx, LogEntry{
			UserID:    &userID,
			Type:      LogError,
			Message:   "Payment signature verification failed",
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Request:   map[string]interface{}{"razorpay_order_id": req.RzpOrderID},
		})
		return nil, nil, ErrInvalidSignature
	}

	order, entry, err := s.settle(ctx, req.RzpOrderID, &userID, &req.RzpPaymentID, &req.RzpSignature, nil)
	if err != nil {
		return nil, nil, err
	}

	wlt, werr := s.walletSvc.GetOrCreate(ctx, userID)
	if werr != nil {
		return nil, nil, werr
	}

	if entry != nil {
		s.activity.Record(ctx, LogEntry{
			UserID:        &userID,
			Type:          LogPaymentSuccess,
			Message:       fmt.Sprintf("Payment verified for order %s", order.OrderID),
			OrderID:       &order.ID,
			TransactionID: &entry.ID,
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			Request: map[string]interface{}{
				"razorpay_order_id":   req.RzpOrderID,
				"razorpay_payment_id": req.RzpPaymentID,
			},
			Response: map[string]interface{}{
				"coins_credited": order.CoinsToCredit,
				"balance_after":  entry.BalanceAfter,
			},
		})
	}

	return order, wlt, nil
}

// settle is the claim shared by both confirmation paths: it locks the
// pending order, applies PENDING -> PAID, credits the wallet and bumps the
// money counter in one transaction. When the order is already settled it
// returns the existing order with a nil ledger entry (idempotent no-op).
func (s *Service) settle(ctx context.Context, rzpOrderID string, userID *uuid.UUID, rzpPaymentID, rzpSignature *string, webhookData []byte) (*Order, *wallet.CoinTransaction, error) {
	tx, err := s.repo.BeginTxx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	order, err := s.repo.ClaimPendingTx(ctx, tx, rzpOrderID, userID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		// No pending order: either it never existed or it was already
		// settled by the other confirmation path.
		existing, err := s.repo.GetByGatewayOrderID(ctx, rzpOrderID, userID)
		if err != nil {
			return nil, nil, err
		}
		if existing == nil {
			return nil, nil, ErrOrderNotFound
		}
		return existing, nil, nil
	}

	if order.IsExpired(time.Now()) {
		return nil, nil, ErrOrderExpired
	}

	if err := s.repo.MarkPaidTx(ctx, tx, order.ID, rzpPaymentID, rzpSignature, webhookData); err != nil {
		return nil, nil, err
	}

	ref := order.OrderID
	entry, err := s.walletSvc.CreditTx(ctx, tx, order.UserID, order.CoinsToCredit, wallet.TransactionTypePurchase, &ref,
		fmt.Sprintf("Added %d coins via purchase", order.CoinsToCredit))
	if err != nil {
		return nil, nil, err
	}
	if err := s.walletSvc.AddMoneySpentTx(ctx, tx, order.UserID, order.AmountMinor); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	order.Status = StatusPaid
	if rzpPaymentID != nil {
		order.RzpPaymentID = nullString(*rzpPaymentID)
	}

	log.Info().
		Str("user_id", order.UserID.String()).
		Str("order_id", order.OrderID).
		Int64("coins", order.CoinsToCredit).
		Int64("balance_after", entry.BalanceAfter).
		Msg("payment settled, coins credited")

	return order, entry, nil
}

// HandleWebhook is confirmation Path B: an asynchronous gateway
// notification over the raw request body. Webhook delivery is
// at-least-once, so everything except a signature mismatch is absorbed
// into a nil return; the handler maps nil to 200 so the gateway stops
// retrying.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string, meta ClientMeta) error {
	if s.cfg.WebhookSecret != "" {
		if !razorpay.VerifyWebhookSignature(s.cfg.WebhookSecret, body, signature) {
			log.Warn().Str("ip", meta.IPAddress).Msg("webhook signature verification failed")
			s.activity.Record(ctx, LogEntry{
				Type:      LogError,
				Message:   "Webhook signature verification failed",
				IPAddress: meta.IPAddress,
				UserAgent: meta.UserAgent,
			})
			return ErrInvalidSignature
		}
	} else {
		log.Warn().Msg("webhook secret not configured, skipping signature verification")
	}

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		log.Warn().Err(err).Msg("unparsable webhook payload")
		s.activity.Record(ctx, LogEntry{
			Type:      LogError,
			Message:   "Unparsable webhook payload",
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
		return nil
	}

	s.activity.Record(ctx, LogEntry{
		Type:      LogWebhookReceived,
		Message:   fmt.Sprintf("Webhook received: %s", event.Event),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Request:   map[string]interface{}{"event": event.Event},
	})

	switch event.Event {
	case razorpay.EventPaymentCaptured, razorpay.EventOrderPaid:
		s.settleFromWebhook(ctx, event, body)
	case "payment.failed":
		s.failFromWebhook(ctx, event, body)
	default:
		log.Debug().Str("event", event.Event).Msg("ignoring unrecognized webhook event")
	}

	return nil
}

func (s *Service) settleFromWebhook(ctx context.Context, event *razorpay.WebhookEvent, body []byte) {
	rzpOrderID := event.GatewayOrderID()
	if rzpOrderID == "" {
		log.Warn().Str("event", event.Event).Msg("webhook carries no gateway order id")
		return
	}

	var rzpPaymentID *string
	if id := event.GatewayPaymentID(); id != "" {
		rzpPaymentID = &id
	}

	order, entry, err := s.settle(ctx, rzpOrderID, nil, rzpPaymentID, nil, body)
	if err != nil {
		// Absorbed: the gateway must not retry a permanently
		// unprocessable event.
		log.Error().Err(err).
			Str("event", event.Event).
			Str("razorpay_order_id", rzpOrderID).
			Msg("webhook settlement failed")
		s.activity.Record(ctx, LogEntry{
			Type:    LogError,
			Message: fmt.Sprintf("Webhook settlement failed for %s: %v", rzpOrderID, err),
			Request: map[string]interface{}{"event": event.Event, "razorpay_order_id": rzpOrderID},
		})
		return
	}

	if entry == nil {
		log.Info().
			Str("event", event.Event).
			Str("razorpay_order_id", rzpOrderID).
			Msg("webhook for already settled order, skipping")
		return
	}

	s.activity.Record(ctx, LogEntry{
		UserID:        &order.UserID,
		Type:          LogCoinsCredited,
		Message:       fmt.Sprintf("%d coins credited via webhook %s", order.CoinsToCredit, event.Event),
		OrderID:       &order.ID,
		TransactionID: &entry.ID,
		Response: map[string]interface{}{
			"coins_credited": order.CoinsToCredit,
			"balance_after":  entry.BalanceAfter,
		},
	})
}

func (s *Service) failFromWebhook(ctx context.Context, event *razorpay.WebhookEvent, body []byte) {
	rzpOrderID := event.GatewayOrderID()
	if rzpOrderID == "" {
		rzpOrderID = event.Payload.Payment.Entity.OrderID
	}
	if rzpOrderID == "" {
		return
	}

	tx, err := s.repo.BeginTxx(ctx)
	if err != nil {
		log.Error().Err(err).Msg("webhook failure handling: begin tx failed")
		return
	}
	defer tx.Rollback()

	order, err := s.repo.ClaimPendingTx(ctx, tx, rzpOrderID, nil)
	if err != nil {
		log.Error().Err(err).Str("razorpay_order_id", rzpOrderID).Msg("webhook failure handling: claim failed")
		return
	}
	if order == nil {
		return
	}
	if err := s.repo.MarkFailedTx(ctx, tx, order.ID, body); err != nil {
		log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to mark order failed")
		return
	}
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Str("order_id", order.OrderID).Msg("webhook failure handling: commit failed")
		return
	}

	s.activity.Record(ctx, LogEntry{
		UserID:  &order.UserID,
		Type:    LogPaymentFailed,
		Message: fmt.Sprintf("Payment failed for order %s", order.OrderID),
		OrderID: &order.ID,
	})
}

// RequestRedemption converts coins back to money: debits the wallet and
// records a pending payout request in one transaction.
func (s *Service) RequestRedemption(ctx context.Context, userID uuid.UUID, coins int64, bankDetails json.RawMessage, meta ClientMeta) (*CoinRedemption, error) {
	if coins < s.cfg.MinRedemptionCoins {
		return nil, fmt.Errorf("%w: minimum is %d coins", ErrRedemptionBelowMinimum, s.cfg.MinRedemptionCoins)
	}

	rate := s.rates.ActiveRate(ctx, RateRedemption)
	amountMinor := coins * 10000 / rate

	tx, err := s.repo.BeginTxx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	red := &CoinRedemption{
		ID:            uuid.New(),
		UserID:        userID,
		CoinsRedeemed: coins,
		AmountMinor:   amountMinor,
		RateCenti:     rate,
		Status:        RedemptionPending,
		BankDetails:   wallet.JSONRawMessage(bankDetails),
	}

	ref := red.ID.String()
	entry, err := s.walletSvc.DebitTx(ctx, tx, userID, coins, wallet.TransactionTypeRedemption, &ref,
		fmt.Sprintf("Spent %d coins on redemption", coins))
	if err != nil {
		return nil, err
	}
	red.TransactionID = uuid.NullUUID{UUID: entry.ID, Valid: true}

	if err := s.repo.CreateRedemptionTx(ctx, tx, red); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, LogEntry{
		UserID:        &userID,
		Type:          LogRedemptionRequest,
		Message:       fmt.Sprintf("Redemption requested: %d coins for %s %s", coins, s.cfg.Currency, razorpay.FormatAmountMinor(amountMinor)),
		TransactionID: &entry.ID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Request: map[string]interface{}{
			"coins":  coins,
			"amount": razorpay.FormatAmountMinor(amountMinor),
		},
	})

	return red, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
