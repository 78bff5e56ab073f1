package httpapi

import (
	"net/http"
	"strings"

	"events-hub/internal/service"

	"go.uber.org/zap"
)

// ScrapeHandler write-side API: triggering and inspecting scrape runs.
// Run and Reset mutate the store, so they are gated by the ingest token
// (the trusted ingestion identity); reads stay open.
type ScrapeHandler struct {
	ingest *service.IngestService
	token  string
	logger *zap.Logger
}

func NewScrapeHandler(ingest *service.IngestService, token string, logger *zap.Logger) *ScrapeHandler {
	return &ScrapeHandler{ingest: ingest, token: token, logger: logger}
}

// authorized checks the Authorization: Bearer header against the ingest
// token. An empty configured token disables the remote trigger entirely.
func (h *ScrapeHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	return strings.TrimPrefix(auth, "Bearer ") == h.token
}

// Run POST /api/v1/scrape/run
func (h *ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}

	summaries := h.ingest.Run(r.Context())

	failed := false
	for _, s := range summaries {
		if s.Failed() {
			failed = true
		}
	}
	if failed {
		// Partial data may have been written; the summaries carry details.
		writeJSON(w, http.StatusBadGateway, Ok(summaries))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summaries))
}

// Status GET /api/v1/scrape/status
func (h *ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.ingest.Status(r.Context())
	if err != nil {
		h.logger.Error("Failed to load scrape status", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load scrape status"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(status))
}

// Reset POST /api/v1/scrape/reset
func (h *ScrapeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}
	if err := h.ingest.ResetKillSwitch(r.Context()); err != nil {
		h.logger.Error("Failed to reset kill switch", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to reset kill switch"))
		return
	}
	writeJSON(w, http.StatusOK, Ok("reset"))
}
