package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"events-hub/internal/domain"
	"events-hub/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedRepo(t *testing.T) *repository.MemoryEventsRepository {
	t.Helper()
	repo := repository.NewMemoryEventsRepository()

	day := func(d int) time.Time {
		return time.Date(2024, 9, d, 10, 0, 0, 0, time.UTC)
	}
	seed := []*domain.Event{
		{EventID: "evt-1", Source: "getinvolved", Title: "Welcome Fair", Campus: "College Ave",
			StartTime: day(1), SourceURL: "https://example.edu/1"},
		{EventID: "evt-2", Source: "getinvolved", Title: "Career Night", Campus: "Busch",
			StartTime: day(2), SourceURL: "https://example.edu/2"},
		{EventID: "evt-3", Source: "other", Title: "Town Hall", Campus: "Busch",
			StartTime: day(3), SourceURL: "https://example.edu/3"},
	}
	_, _, err := repo.UpsertBatch(context.Background(), seed)
	require.NoError(t, err)
	return repo
}

func newEventsRouter(t *testing.T) *Router {
	t.Helper()
	router := NewRouter(zap.NewNop())
	router.RegisterEventRoutes(NewEventsHandler(seedRepo(t), zap.NewNop()))
	return router
}

func decodeResult[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var res Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestEventsHandler_ListAll(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult[EventListResult](t, rec)
	require.Equal(t, ResultSuccess, res.Code)
	require.Equal(t, 3, res.Result.Total)
	require.Len(t, res.Result.Items, 3)
	// Chronological order.
	require.Equal(t, "evt-1", res.Result.Items[0].EventID)
	require.Equal(t, "evt-3", res.Result.Items[2].EventID)
}

func TestEventsHandler_ListFiltered(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/events?source=getinvolved&campus=Busch", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult[EventListResult](t, rec)
	require.Equal(t, 1, res.Result.Total)
	require.Equal(t, "evt-2", res.Result.Items[0].EventID)
}

func TestEventsHandler_ListTimeRangeClosedInterval(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/events?from=2024-09-02T10:00:00Z&to=2024-09-03T10:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult[EventListResult](t, rec)
	require.Equal(t, 2, res.Result.Total)
	require.Equal(t, "evt-2", res.Result.Items[0].EventID)
	require.Equal(t, "evt-3", res.Result.Items[1].EventID)
}

func TestEventsHandler_ListBadTimeParam(t *testing.T) {
	router := newEventsRouter(t)

	for _, target := range []string{
		"/api/v1/events?from=tomorrow",
		"/api/v1/events?to=2024-13-99",
		"/api/v1/events?from=2024-09-02T00:00:00Z&to=2024-09-01T00:00:00Z",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestEventsHandler_GetEvent(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/evt-2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult[*domain.Event](t, rec)
	require.Equal(t, "Career Night", res.Result.Title)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsHandler_MethodNotAllowed(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventsHandler_Export(t *testing.T) {
	router := newEventsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/events/export?source=getinvolved", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	// xlsx is a zip container.
	require.True(t, len(rec.Body.Bytes()) > 2)
	require.Equal(t, "PK", rec.Body.String()[:2])
}
