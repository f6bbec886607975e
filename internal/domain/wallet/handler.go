package wallet

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/middleware"
	"github.com/coinly/coinly-api/internal/pkg/response"
)

// Handler handles wallet HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates wallet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletResponse struct {
	CoinBalance      int64  `json:"coin_balance"`
	TotalCoinsEarned int64  `json:"total_coins_earned"`
	TotalCoinsSpent  int64  `json:"total_coins_spent"`
	TotalMoneySpent  string `json:"total_money_spent"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// GetWallet handles GET /payments/wallet
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	wlt, err := h.service.GetOrCreate(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("wallet lookup failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"wallet": walletResponse{
		CoinBalance:      wlt.CoinBalance,
		TotalCoinsEarned: wlt.TotalCoinsEarned,
		TotalCoinsSpent:  wlt.TotalCoinsSpent,
		TotalMoneySpent:  wlt.TotalMoneySpent(),
		CreatedAt:        wlt.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        wlt.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}})
}

// GetTransactions handles GET /payments/wallet/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	entries, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("transaction history failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"transactions": entries})
}

// Routes returns wallet router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.GetWallet)
	r.Get("/transactions", h.GetTransactions)
	return r
}
