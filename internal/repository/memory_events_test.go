package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"events-hub/internal/domain"

	"github.com/stretchr/testify/require"
)

func validEvent(eventID string, start time.Time) *domain.Event {
	return &domain.Event{
		EventID:   eventID,
		Source:    "getinvolved",
		Title:     "Welcome Fair",
		StartTime: start,
		SourceURL: "https://example.edu/events/1",
	}
}

func TestMemoryEventsRepository_UpsertCreatesOncePerEventID(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	ids := []string{"evt-1", "evt-2", "evt-3"}
	for _, id := range ids {
		created, err := repo.Upsert(ctx, validEvent(id, start))
		require.NoError(t, err)
		require.True(t, created)
	}

	count, err := repo.CountBySource(ctx, "getinvolved")
	require.NoError(t, err)
	require.Equal(t, len(ids), count)
}

func TestMemoryEventsRepository_UpsertRefreshesExistingRow(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	clock := time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	created, err := repo.Upsert(ctx, validEvent("evt-1", start))
	require.NoError(t, err)
	require.True(t, created)

	first, err := repo.GetByEventID(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, clock, first.CreatedAt)
	require.Equal(t, clock, first.LastSeen)

	// Re-observe the same event_id an hour later with a new title.
	clock = clock.Add(time.Hour)
	update := validEvent("evt-1", start)
	update.Title = "Welcome Fair (Updated)"
	created, err = repo.Upsert(ctx, update)
	require.NoError(t, err)
	require.False(t, created)

	second, err := repo.GetByEventID(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, "Welcome Fair (Updated)", second.Title)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt, "created_at must never change")
	require.True(t, !second.LastSeen.Before(first.LastSeen), "last_seen must not decrease")

	count, err := repo.CountBySource(ctx, "getinvolved")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMemoryEventsRepository_LastSeenMonotonic(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	clock := time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	_, err := repo.Upsert(ctx, validEvent("evt-1", start))
	require.NoError(t, err)

	// Clock going backwards must not pull last_seen back.
	clock = clock.Add(-time.Hour)
	_, err = repo.Upsert(ctx, validEvent("evt-1", start))
	require.NoError(t, err)

	row, err := repo.GetByEventID(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC), row.LastSeen)
}

func TestMemoryEventsRepository_RejectsMissingRequiredFields(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*domain.Event)
		field  string
	}{
		{"missing event_id", func(e *domain.Event) { e.EventID = "" }, "event_id"},
		{"missing source", func(e *domain.Event) { e.Source = "" }, "source"},
		{"missing title", func(e *domain.Event) { e.Title = "" }, "title"},
		{"missing start_time", func(e *domain.Event) { e.StartTime = time.Time{} }, "start_time"},
		{"missing source_url", func(e *domain.Event) { e.SourceURL = "" }, "source_url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := validEvent("evt-x", start)
			tc.mutate(event)

			_, err := repo.Upsert(ctx, event)
			require.Error(t, err)

			var missing *domain.ErrMissingField
			require.ErrorAs(t, err, &missing)
			require.Equal(t, tc.field, missing.Field)
		})
	}
}

func TestMemoryEventsRepository_ListFiltersAndOrder(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2024, 9, d, 10, 0, 0, 0, time.UTC)
	}

	seed := []*domain.Event{
		validEvent("evt-3", day(3)),
		validEvent("evt-1", day(1)),
		validEvent("evt-2", day(2)),
	}
	seed[0].Campus = "Busch"
	seed[1].Campus = "Livingston"
	seed[2].Campus = "Busch"

	other := validEvent("evt-other", day(2))
	other.Source = "other-source"
	seed = append(seed, other)

	_, _, err := repo.UpsertBatch(ctx, seed)
	require.NoError(t, err)

	// Source filter returns only matching rows, start_time ascending.
	events, total, err := repo.ListEvents(ctx, EventFilter{Source: "getinvolved"}, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"evt-1", "evt-2", "evt-3"},
		[]string{events[0].EventID, events[1].EventID, events[2].EventID})

	// Campus filter.
	events, total, err = repo.ListEvents(ctx, EventFilter{Campus: "Busch"}, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "evt-2", events[0].EventID)

	// Closed interval [day(2), day(3)] includes both endpoints.
	from, to := day(2), day(3)
	events, total, err = repo.ListEvents(ctx, EventFilter{Source: "getinvolved", From: &from, To: &to}, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "evt-2", events[0].EventID)
	require.Equal(t, "evt-3", events[1].EventID)
}

func TestMemoryEventsRepository_ListPagination(t *testing.T) {
	repo := NewMemoryEventsRepository()
	ctx := context.Background()

	for d := 1; d <= 5; d++ {
		_, err := repo.Upsert(ctx, validEvent(
			"evt-"+time.Date(2024, 9, d, 0, 0, 0, 0, time.UTC).Format("02"),
			time.Date(2024, 9, d, 10, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
	}

	events, total, err := repo.ListEvents(ctx, EventFilter{}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, events, 2)
	require.Equal(t, "evt-03", events[0].EventID)

	// Page past the end is empty, not an error.
	events, total, err = repo.ListEvents(ctx, EventFilter{}, 9, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, events)
}

func TestMemoryEventsRepository_GetByEventIDMiss(t *testing.T) {
	repo := NewMemoryEventsRepository()

	_, err := repo.GetByEventID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
