package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"events-hub/internal/domain"

	"github.com/google/uuid"
)

// MemoryEventsRepository in-memory events store used when the DB is not
// available (local dev fallback) and by unit tests. Keyed by event_id,
// same upsert semantics as the Postgres repository.
type MemoryEventsRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event // event_id -> row

	// now is swappable in tests to drive last_seen/created_at.
	now func() time.Time
}

func NewMemoryEventsRepository() *MemoryEventsRepository {
	return &MemoryEventsRepository{
		events: map[string]*domain.Event{},
		now:    time.Now,
	}
}

var _ EventsRepository = (*MemoryEventsRepository)(nil)

func (r *MemoryEventsRepository) Upsert(_ context.Context, event *domain.Event) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(event), nil
}

func (r *MemoryEventsRepository) UpsertBatch(_ context.Context, events []*domain.Event) (int, int, error) {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return 0, 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inserted, updated := 0, 0
	for _, e := range events {
		if r.upsertLocked(e) {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func (r *MemoryEventsRepository) upsertLocked(event *domain.Event) bool {
	now := r.now()

	existing, ok := r.events[event.EventID]
	if !ok {
		row := *event
		row.ID = uuid.NewString()
		row.CreatedAt = now
		row.LastSeen = now
		r.events[event.EventID] = &row
		return true
	}

	row := *event
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	// last_seen never goes backwards
	if now.After(existing.LastSeen) {
		row.LastSeen = now
	} else {
		row.LastSeen = existing.LastSeen
	}
	r.events[event.EventID] = &row
	return false
}

func (r *MemoryEventsRepository) ListEvents(_ context.Context, filter EventFilter, page, size int) ([]*domain.Event, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Event
	for _, e := range r.events {
		if filter.Source != "" && e.Source != filter.Source {
			continue
		}
		if filter.Campus != "" && e.Campus != filter.Campus {
			continue
		}
		if filter.From != nil && e.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.StartTime.After(*filter.To) {
			continue
		}
		row := *e
		matched = append(matched, &row)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
	})

	total := len(matched)
	start := (page - 1) * size
	if start >= total {
		return []*domain.Event{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryEventsRepository) GetByEventID(_ context.Context, eventID string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[eventID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	row := *e
	return &row, nil
}

func (r *MemoryEventsRepository) CountBySource(_ context.Context, source string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.events {
		if e.Source == source {
			count++
		}
	}
	return count, nil
}
