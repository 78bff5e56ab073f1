package repository

import (
	"context"
	"time"

	"events-hub/internal/domain"
)

// EventFilter narrows List to the three indexed predicates. From/To bound
// start_time as a closed interval; nil means unbounded.
type EventFilter struct {
	Source string
	Campus string
	From   *time.Time
	To     *time.Time
}

// EventsRepository data access for the events table.
// Results are always ordered by start_time ascending (chronological listing).
type EventsRepository interface {
	// Upsert inserts the record on first observation of its event_id and
	// updates all mutable fields otherwise. created_at is set once and never
	// modified; last_seen never decreases. Returns created=true on insert.
	Upsert(ctx context.Context, event *domain.Event) (created bool, err error)

	// UpsertBatch upserts a batch and classifies rows into inserted vs
	// updated. Counts are resolved by checking existing event_ids first, so
	// they are approximate under concurrent writers (same as a single
	// scraper run observing its own batch).
	UpsertBatch(ctx context.Context, events []*domain.Event) (inserted, updated int, err error)

	// ListEvents returns matching rows with the total count for pagination.
	ListEvents(ctx context.Context, filter EventFilter, page, size int) ([]*domain.Event, int, error)

	// GetByEventID looks a row up by its natural key.
	GetByEventID(ctx context.Context, eventID string) (*domain.Event, error)

	// CountBySource feeds the scraper's refuse-to-wipe safety check.
	CountBySource(ctx context.Context, source string) (int, error)
}
