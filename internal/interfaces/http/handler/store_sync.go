package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// CronSecretHeader carries the shared secret of scheduled sync calls
const CronSecretHeader = "x-cron-secret"

const gatewayAllowHeaders = "authorization, x-client-info, apikey, content-type, x-cron-secret"

// StoreSyncer runs store synchronizations
type StoreSyncer interface {
	SyncOne(ctx context.Context, integrationID uuid.UUID) (*integration.SyncResult, error)
	SyncAll(ctx context.Context) ([]integration.BatchOutcome, error)
}

// StoreSyncHandler is the sync trigger gateway. Scheduled callers
// authenticate with the cron secret, people with an admin bearer token.
type StoreSyncHandler struct {
	syncer     StoreSyncer
	verifier   auth.TokenVerifier
	profiles   identity.ProfileRepository
	cronSecret string
	logger     *zap.Logger
}

// NewStoreSyncHandler creates a new StoreSyncHandler. An empty cronSecret
// disables the cron path.
func NewStoreSyncHandler(
	syncer StoreSyncer,
	verifier auth.TokenVerifier,
	profiles identity.ProfileRepository,
	cronSecret string,
	log *zap.Logger,
) *StoreSyncHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreSyncHandler{
		syncer:     syncer,
		verifier:   verifier,
		profiles:   profiles,
		cronSecret: cronSecret,
		logger:     log,
	}
}

// Preflight answers CORS preflight requests
func (h *StoreSyncHandler) Preflight(c *gin.Context) {
	setGatewayCORS(c)
	c.String(http.StatusOK, "ok")
}

// Trigger syncs one integration, or every active integration when a cron
// call names none.
func (h *StoreSyncHandler) Trigger(c *gin.Context) {
	setGatewayCORS(c)
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	isCron := h.isCronCall(c)
	if !isCron {
		if status, ok := h.authorizeAdmin(c); !ok {
			c.JSON(status, dto.GatewayError{Error: http.StatusText(status)})
			return
		}
	}

	var req dto.SyncStoreRequest
	if raw, err := c.GetRawData(); err == nil && len(raw) > 0 {
		// Unparseable bodies count as empty
		_ = json.Unmarshal(raw, &req)
	}

	if isCron && req.IntegrationID == "" {
		h.syncAll(c)
		return
	}

	if req.IntegrationID == "" {
		c.JSON(http.StatusBadRequest, dto.GatewayError{Error: "integration_id required"})
		return
	}
	integrationID, err := uuid.Parse(req.IntegrationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.GatewayError{Error: "integration_id must be a UUID"})
		return
	}

	result, err := h.syncer.SyncOne(ctx, integrationID)
	if err != nil {
		status := syncErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("Sync request failed", zap.String("integration_id", integrationID.String()), zap.Error(err))
		}
		c.JSON(status, dto.GatewayError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SyncStoreResponse{
		SyncedOrders: result.SyncedOrders,
		SyncedDays:   result.SyncedDays,
	})
}

func (h *StoreSyncHandler) syncAll(c *gin.Context) {
	outcomes, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Batch sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.GatewayError{Error: err.Error()})
		return
	}

	items := make([]dto.BatchSyncItem, 0, len(outcomes))
	for _, o := range outcomes {
		item := dto.BatchSyncItem{ID: o.IntegrationID.String()}
		if o.Succeeded() {
			item.SyncedOrders = &o.Result.SyncedOrders
			item.SyncedDays = &o.Result.SyncedDays
		} else {
			item.Error = o.Err.Error()
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, dto.BatchSyncResponse{Synced: items})
}

// isCronCall compares the cron header with the configured secret in
// constant time. An empty configured secret never matches.
func (h *StoreSyncHandler) isCronCall(c *gin.Context) bool {
	if h.cronSecret == "" {
		return false
	}
	presented := c.GetHeader(CronSecretHeader)
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.cronSecret)) == 1
}

// authorizeAdmin verifies the bearer token and requires the admin role.
// It returns the status to answer with when the caller is rejected.
func (h *StoreSyncHandler) authorizeAdmin(c *gin.Context) (int, bool) {
	ctx := c.Request.Context()

	token := auth.BearerToken(c.GetHeader(middleware.AuthHeaderKey))
	if token == "" {
		return http.StatusUnauthorized, false
	}
	claims, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("Sync trigger rejected", zap.String("reason", "invalid token"), zap.Error(err))
		return http.StatusUnauthorized, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return http.StatusUnauthorized, false
	}

	profile, err := h.profiles.FindByID(ctx, userID)
	switch {
	case errors.Is(err, identity.ErrProfileNotFound):
		return http.StatusForbidden, false
	case err != nil:
		h.logger.Error("Failed to load caller profile", zap.String("user_id", userID.String()), zap.Error(err))
		return http.StatusInternalServerError, false
	case !profile.IsAdmin():
		h.logger.Warn("Sync trigger rejected", zap.String("reason", "not admin"), zap.String("user_id", userID.String()))
		return http.StatusForbidden, false
	}

	c.Set(middleware.JWTUserIDKey, userID.String())
	return http.StatusOK, true
}

// syncErrorStatus maps a SyncOne error to the gateway status code
func syncErrorStatus(err error) int {
	switch {
	case errors.Is(err, integration.ErrIntegrationNotFound):
		return http.StatusNotFound
	case errors.Is(err, integration.ErrUpstream),
		errors.Is(err, integration.ErrUnsupportedPlatform),
		errors.Is(err, integration.ErrIncompleteCredentials):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func setGatewayCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", gatewayAllowHeaders)
}
