package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"assetflow/events"
	"assetflow/middleware"
	"assetflow/models"
	"assetflow/utils"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// GetAuditLogs lists the most recent audit entries, newest first.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultAuditLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 || n > maxAuditLimit {
			utils.RespondWithError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	logs, err := h.Audit.List(ctx, limit)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": logs})
}

// StreamEvents upgrades the connection and subscribes it to change events.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	conn, err := events.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Logger.Info("WebSocket client connected", zap.String("userId", user.ID))
	h.Events.Serve(conn, user.ID)
}
