package feature

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/domain/wallet"
	"github.com/coinly/coinly-api/internal/middleware"
	"github.com/coinly/coinly-api/internal/pkg/response"
)

// Handler handles feature HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates feature handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListCatalog handles GET /features
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	features, err := h.service.ListCatalog(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("feature catalog lookup failed")
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"features": features})
}

type grantResponse struct {
	FeatureID   int64  `json:"feature_id"`
	IsActive    bool   `json:"is_active"`
	ActivatedOn string `json:"activated_on"`
	ExpiresOn   string `json:"expires_on,omitempty"`
}

// ListMine handles GET /features/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	grants, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("feature grants lookup failed")
		response.InternalError(w)
		return
	}

	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		gr := grantResponse{
			FeatureID:   g.FeatureID,
			IsActive:    g.IsActive,
			ActivatedOn: g.ActivatedOn.Format("2006-01-02T15:04:05Z07:00"),
		}
		if g.ExpiresOn.Valid {
			gr.ExpiresOn = g.ExpiresOn.Time.Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, gr)
	}
	response.OK(w, map[string]interface{}{"features": out})
}

// Purchase handles POST /features/{code}/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	code := chi.URLParam(r, "code")

	purchase, err := h.service.PurchaseFeature(r.Context(), userID, code)
	if err != nil {
		switch {
		case errors.Is(err, ErrFeatureNotFound):
			response.NotFound(w, "Feature not found")
		case errors.Is(err, ErrAlreadyActive):
			response.Error(w, http.StatusConflict, "FEATURE_ALREADY_ACTIVE", "Feature is already active for this user")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			response.Error(w, http.StatusBadRequest, "INSUFFICIENT_BALANCE", "Not enough coins to purchase this feature")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Str("feature", code).Msg("feature purchase failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, map[string]interface{}{"purchase": purchase})
}

// Routes returns the feature router.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCatalog)
	r.Group(func(pr chi.Router) {
		pr.Use(authMiddleware)
		pr.Get("/mine", h.ListMine)
		pr.Post("/{code}/purchase", h.Purchase)
	})
	return r
}
