package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"events-hub/internal/domain"
	"events-hub/internal/repository"

	"go.uber.org/zap"
)

// EventsHandler read-side API over the events store.
type EventsHandler struct {
	repo   repository.EventsRepository
	logger *zap.Logger
}

func NewEventsHandler(repo repository.EventsRepository, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{repo: repo, logger: logger}
}

// EventListResult paginated listing payload.
type EventListResult struct {
	Items []*domain.Event `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// parseEventFilter reads source/campus/from/to query params. from/to are
// RFC3339 and bound start_time as a closed interval.
func parseEventFilter(r *http.Request) (repository.EventFilter, string) {
	q := r.URL.Query()
	filter := repository.EventFilter{
		Source: q.Get("source"),
		Campus: q.Get("campus"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "invalid from: use RFC3339 (e.g. 2024-09-01T00:00:00Z)"
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "invalid to: use RFC3339 (e.g. 2024-09-30T23:59:59Z)"
		}
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, "invalid range: to is before from"
	}
	return filter, ""
}

func parsePaging(r *http.Request) (page, size int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(q.Get("size"))
	if size < 1 {
		size = 50
	}
	if size > 500 {
		size = 500
	}
	return page, size
}

// ListEvents GET /api/v1/events
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := parseEventFilter(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, Fail(errMsg))
		return
	}
	page, size := parsePaging(r)

	events, total, err := h.repo.ListEvents(r.Context(), filter, page, size)
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list events"))
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}

	writeJSON(w, http.StatusOK, Ok(EventListResult{
		Items: events,
		Total: total,
		Page:  page,
		Size:  size,
	}))
}

// GetEvent GET /api/v1/events/{event_id}
func (h *EventsHandler) GetEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	event, err := h.repo.GetByEventID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, Fail("event not found"))
			return
		}
		h.logger.Error("Failed to get event", zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get event"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(event))
}

// ExportEvents GET /api/v1/events/export: same filters as ListEvents,
// answers with an xlsx attachment.
func (h *EventsHandler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := parseEventFilter(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, Fail(errMsg))
		return
	}

	// Exports are capped to one maximal page.
	events, _, err := h.repo.ListEvents(r.Context(), filter, 1, exportMaxRows)
	if err != nil {
		h.logger.Error("Failed to list events for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export events"))
		return
	}

	data, filename, err := GenerateEventsExport(events)
	if err != nil {
		h.logger.Error("Failed to generate export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export events"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
