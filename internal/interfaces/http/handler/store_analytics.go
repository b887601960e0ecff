package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/application/storesync"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// StoreAnalytics reads the dashboard views of a client's store
type StoreAnalytics interface {
	Summary(ctx context.Context, clientID uuid.UUID) (*storesync.StoreSummary, error)
	Compare(ctx context.Context, clientID uuid.UUID, days int) (*storesync.StoreComparison, error)
}

// StoreAnalyticsHandler serves store summaries and period comparisons.
// Routes must sit behind middleware.BearerAuth.
type StoreAnalyticsHandler struct {
	BaseHandler
	analytics StoreAnalytics
	profiles  identity.ProfileRepository
	logger    *zap.Logger
}

// NewStoreAnalyticsHandler creates a new StoreAnalyticsHandler
func NewStoreAnalyticsHandler(analytics StoreAnalytics, profiles identity.ProfileRepository, log *zap.Logger) *StoreAnalyticsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreAnalyticsHandler{
		analytics: analytics,
		profiles:  profiles,
		logger:    log,
	}
}

// GetSummary handles GET /clients/:client_id/store/summary
func (h *StoreAnalyticsHandler) GetSummary(c *gin.Context) {
	clientID, ok := h.authorizeClient(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(c.Request.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to build store summary", zap.String("client_id", clientID.String()), zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetComparison handles GET /clients/:client_id/store/comparison?days=N
func (h *StoreAnalyticsHandler) GetComparison(c *gin.Context) {
	clientID, ok := h.authorizeClient(c)
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidInput), dto.ErrCodeInvalidInput, "days must be an integer")
			return
		}
		days = n
	}

	comparison, err := h.analytics.Compare(c.Request.Context(), clientID, days)
	if err != nil {
		if !errors.Is(err, storesync.ErrInvalidCompareDays) {
			h.logger.Error("Failed to compare store periods", zap.String("client_id", clientID.String()), zap.Error(err))
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, comparison)
}

// authorizeClient resolves :client_id and checks the caller may read it.
// Admins read every client; client users only themselves.
func (h *StoreAnalyticsHandler) authorizeClient(c *gin.Context) (uuid.UUID, bool) {
	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		h.BadRequest(c, "client_id must be a UUID")
		return uuid.Nil, false
	}

	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return uuid.Nil, false
	}

	profile, err := h.profiles.FindByID(c.Request.Context(), userID)
	switch {
	case errors.Is(err, identity.ErrProfileNotFound):
		h.HandleError(c, shared.ErrForbidden)
		return uuid.Nil, false
	case err != nil:
		h.logger.Error("Failed to load caller profile", zap.String("user_id", userID.String()), zap.Error(err))
		h.HandleError(c, err)
		return uuid.Nil, false
	case !profile.CanAccessClient(clientID):
		h.HandleError(c, shared.ErrForbidden)
		return uuid.Nil, false
	}
	return clientID, true
}
