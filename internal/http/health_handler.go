package httpapi

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler liveness probe. The DB handle is optional: in memory-only
// dev mode the probe just reports the degraded backend.
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type healthResult struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, Ok(healthResult{Status: "ok", Backend: "memory"}))
		return
	}
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Warn("Health check DB ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Fail("database unreachable"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(healthResult{Status: "ok", Backend: "postgres"}))
}
