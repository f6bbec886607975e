package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/domain/wallet"
	"github.com/coinly/coinly-api/internal/middleware"
	"github.com/coinly/coinly-api/internal/pkg/razorpay"
	"github.com/coinly/coinly-api/internal/pkg/response"
	"github.com/coinly/coinly-api/internal/pkg/validator"
)

const maxWebhookBody = 1 << 20

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createOrderRequest struct {
	Amount string `json:"amount" validate:"required,amount"`
}

type orderResponse struct {
	OrderID       string `json:"order_id"`
	RzpOrderID    string `json:"razorpay_order_id,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	CoinsToCredit int64  `json:"coins_to_credit"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expires_at"`
}

func toOrderResponse(o *Order) orderResponse {
	return orderResponse{
		OrderID:       o.OrderID,
		RzpOrderID:    o.RzpOrderID.String,
		Amount:        formatMinor(o.AmountMinor),
		Currency:      o.Currency,
		CoinsToCredit: o.CoinsToCredit,
		Status:        string(o.Status),
		ExpiresAt:     o.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateOrder handles POST /payments/create-order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createOrderRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationFailed(w, details)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), userID, req.Amount, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number with at most two decimal places")
		case errors.Is(err, ErrAmountOutOfRange):
			response.Error(w, http.StatusBadRequest, "AMOUNT_OUT_OF_RANGE", err.Error())
		case errors.Is(err, ErrGateway):
			log.Error().Err(err).Str("user_id", userID.String()).Msg("order creation gateway failure")
			response.BadGateway(w, "Payment gateway is unavailable, please try again")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("order creation failed")
			internalError(w, r, err)
		}
		return
	}

	response.Created(w, map[string]interface{}{
		"order":           toOrderResponse(result.Order),
		"razorpay_key_id": result.GatewayKeyID,
		"exchange_rate":   result.ExchangeRate,
	})
}

type verifyPaymentRequest struct {
	RzpPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RzpOrderID   string `json:"razorpay_order_id" validate:"required"`
	RzpSignature string `json:"razorpay_signature" validate:"required"`
}

// VerifyPayment handles POST /payments/verify-payment
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req verifyPaymentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationFailed(w, details)
		return
	}

	order, wlt, err := h.service.VerifyPayment(r.Context(), userID, VerifyPaymentRequest{
		RzpPaymentID: req.RzpPaymentID,
		RzpOrderID:   req.RzpOrderID,
		RzpSignature: req.RzpSignature,
	}, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			response.Error(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Payment signature verification failed")
		case errors.Is(err, ErrOrderExpired):
			response.Error(w, http.StatusBadRequest, "ORDER_EXPIRED", "Payment order has expired")
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "Payment order not found")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("payment verification failed")
			internalError(w, r, err)
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"message":        "Payment verified successfully",
		"order":          toOrderResponse(order),
		"wallet_balance": wlt.CoinBalance,
	})
}

// OrderStatus handles GET /payments/order-status/{orderID}
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orderID := chi.URLParam(r, "orderID")

	order, err := h.service.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.NotFound(w, "Payment order not found")
			return
		}
		log.Error().Err(err).Str("order_id", orderID).Msg("order status lookup failed")
		internalError(w, r, err)
		return
	}

	data := map[string]interface{}{
		"order":          toOrderResponse(order),
		"status_message": statusMessage(order),
	}
	if middleware.IsStaff(r.Context()) {
		data["razorpay_payment_id"] = order.RzpPaymentID.String
		data["paid_at"] = order.PaidAt.Time
	}
	response.OK(w, data)
}

func statusMessage(o *Order) string {
	switch o.Status {
	case StatusPending:
		if o.IsExpired(time.Now()) {
			return "Payment window has expired"
		}
		return "Awaiting payment"
	case StatusPaid:
		return "Payment successful, coins credited"
	case StatusFailed:
		return "Payment failed"
	case StatusCancelled:
		return "Order cancelled"
	case StatusRefunded:
		return "Payment refunded"
	}
	return string(o.Status)
}

type redeemRequest struct {
	Coins       int64           `json:"coins" validate:"required,gt=0"`
	BankDetails json.RawMessage `json:"bank_details" validate:"required"`
}

// Redeem handles POST /payments/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req redeemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationFailed(w, details)
		return
	}

	red, err := h.service.RequestRedemption(r.Context(), userID, req.Coins, req.BankDetails, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrRedemptionBelowMinimum):
			response.Error(w, http.StatusBadRequest, "REDEMPTION_BELOW_MINIMUM", err.Error())
		case errors.Is(err, wallet.ErrInsufficientBalance):
			response.Error(w, http.StatusBadRequest, "INSUFFICIENT_BALANCE", "Not enough coins for this redemption")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("redemption request failed")
			internalError(w, r, err)
		}
		return
	}

	response.Created(w, map[string]interface{}{
		"redemption": map[string]interface{}{
			"redemption_id":  red.ID,
			"coins_redeemed": red.CoinsRedeemed,
			"amount":         formatMinor(red.AmountMinor),
			"status":         red.Status,
		},
	})
}

// Webhook handles POST /webhooks/razorpay. It is unauthenticated; the
// gateway signature over the raw body is the only credential. Any
// response other than a signature failure is 200 so the gateway stops
// redelivering.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unreadable request body")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Razorpay-Signature")

	if err := h.service.HandleWebhook(r.Context(), body, signature, clientMeta(r)); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

type setRateRequest struct {
	RateType          string `json:"rate_type" validate:"required,oneof=PURCHASE REDEMPTION"`
	CoinsPerUnitCenti int64  `json:"coins_per_unit_centi" validate:"required,gt=0"`
}

// SetCoinRate handles POST /admin/payments/coin-rates
func (h *Handler) SetCoinRate(w http.ResponseWriter, r *http.Request) {
	var req setRateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationFailed(w, details)
		return
	}

	if err := h.service.SetCoinRate(r.Context(), RateType(req.RateType), req.CoinsPerUnitCenti); err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.Error(w, http.StatusBadRequest, "INVALID_RATE", "Rate must be a positive value")
			return
		}
		log.Error().Err(err).Str("rate_type", req.RateType).Msg("coin rate update failed")
		internalError(w, r, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"rate_type":            req.RateType,
		"coins_per_unit_centi": req.CoinsPerUnitCenti,
	})
}

// Routes returns the authenticated payment router.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/create-order", h.CreateOrder)
	r.Post("/verify-payment", h.VerifyPayment)
	r.Get("/order-status/{orderID}", h.OrderStatus)
	r.Post("/redeem", h.Redeem)
	return r
}

// AdminRoutes returns the staff-only payment router.
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())
	r.Post("/coin-rates", h.SetCoinRate)
	return r
}

// WebhookRoutes returns the unauthenticated webhook router.
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Webhook)
	return r
}

// internalError hides exception details from regular callers; staff see
// the underlying error.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	if middleware.IsStaff(r.Context()) {
		response.ErrorWithDetails(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error",
			map[string]string{"detail": err.Error()})
		return
	}
	response.InternalError(w)
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{
		IPAddress: middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func formatMinor(v int64) string {
	return razorpay.FormatAmountMinor(v)
}
