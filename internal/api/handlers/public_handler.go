package handlers

import (
	"net/http"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	sessionManager *tetris.SessionManager
	startedAt      time.Time
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(sm *tetris.SessionManager) *PublicHandler {
	return &PublicHandler{
		sessionManager: sm,
		startedAt:      time.Now(),
	}
}

// Health は認証不要の死活監視エンドポイントです。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": h.sessionManager.ActiveSessions(),
		"uptime_seconds":  int64(time.Since(h.startedAt).Seconds()),
	})
}
