package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"events-hub/internal/domain"

	"github.com/lib/pq"
)

// PostgresEventsRepository events Repository backed by the events table.
type PostgresEventsRepository struct {
	db *sql.DB
}

// NewPostgresEventsRepository creates the events Repository.
func NewPostgresEventsRepository(db *sql.DB) *PostgresEventsRepository {
	return &PostgresEventsRepository{db: db}
}

var _ EventsRepository = (*PostgresEventsRepository)(nil)

const eventColumns = `
	id::text,
	event_id,
	source,
	title,
	COALESCE(description, ''),
	start_time,
	end_time,
	COALESCE(location, ''),
	COALESCE(campus, ''),
	COALESCE(organization, ''),
	COALESCE(category, ''),
	source_url,
	last_seen,
	created_at
`

// upsertQuery relies on the unique constraint on event_id: the storage
// engine resolves concurrent upserts, not application-level coordination.
// GREATEST keeps last_seen monotonically non-decreasing; created_at is
// deliberately absent from the UPDATE list.
const upsertQuery = `
	INSERT INTO events (
		event_id, source, title, description, start_time, end_time,
		location, campus, organization, category, source_url, last_seen
	)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6,
	        NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, now())
	ON CONFLICT (event_id) DO UPDATE SET
		source       = EXCLUDED.source,
		title        = EXCLUDED.title,
		description  = EXCLUDED.description,
		start_time   = EXCLUDED.start_time,
		end_time     = EXCLUDED.end_time,
		location     = EXCLUDED.location,
		campus       = EXCLUDED.campus,
		organization = EXCLUDED.organization,
		category     = EXCLUDED.category,
		source_url   = EXCLUDED.source_url,
		last_seen    = GREATEST(events.last_seen, EXCLUDED.last_seen)
`

// Upsert inserts or refreshes one row keyed on event_id.
func (r *PostgresEventsRepository) Upsert(ctx context.Context, event *domain.Event) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, err
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE event_id = $1)`, event.EventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing event: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, upsertQuery,
		event.EventID,
		event.Source,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Location,
		event.Campus,
		event.Organization,
		event.Category,
		event.SourceURL,
	); err != nil {
		return false, fmt.Errorf("failed to upsert event %s: %w", event.EventID, err)
	}

	return !exists, nil
}

// UpsertBatch upserts a scraped batch, classifying inserted vs updated by
// fetching the already-stored event_ids first.
func (r *PostgresEventsRepository) UpsertBatch(ctx context.Context, events []*domain.Event) (int, int, error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	for _, e := range events {
		if err := e.Validate(); err != nil {
			return 0, 0, err
		}
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EventID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM events WHERE event_id = ANY($1)`, pq.Array(ids),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query existing event_ids: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("failed to scan event_id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to iterate existing event_ids: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted, updated := 0, 0
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.EventID, e.Source, e.Title, e.Description, e.StartTime, e.EndTime,
			e.Location, e.Campus, e.Organization, e.Category, e.SourceURL,
		); err != nil {
			return 0, 0, fmt.Errorf("failed to upsert event %s: %w", e.EventID, err)
		}
		if existing[e.EventID] {
			updated++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return inserted, updated, nil
}

// ListEvents queries rows matching the filter, ordered by start_time ASC.
func (r *PostgresEventsRepository) ListEvents(ctx context.Context, filter EventFilter, page, size int) ([]*domain.Event, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}

	where := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		where = append(where, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Campus != "" {
		where = append(where, fmt.Sprintf("campus = $%d", argIdx))
		args = append(args, filter.Campus)
		argIdx++
	}
	// Closed interval [from, to] on start_time.
	if filter.From != nil {
		where = append(where, fmt.Sprintf("start_time >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("start_time <= $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM events WHERE %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE %s
		ORDER BY start_time ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, argIdx, argIdx+1)

	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, total, nil
}

// GetByEventID fetches one row by its natural key.
func (r *PostgresEventsRepository) GetByEventID(ctx context.Context, eventID string) (*domain.Event, error) {
	if eventID == "" {
		return nil, sql.ErrNoRows
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE event_id = $1`, eventColumns)

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return event, nil
}

// CountBySource counts stored rows for one upstream source.
func (r *PostgresEventsRepository) CountBySource(ctx context.Context, source string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE source = $1`, source,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events for source %s: %w", source, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var endTime sql.NullTime
	err := row.Scan(
		&e.ID,
		&e.EventID,
		&e.Source,
		&e.Title,
		&e.Description,
		&e.StartTime,
		&endTime,
		&e.Location,
		&e.Campus,
		&e.Organization,
		&e.Category,
		&e.SourceURL,
		&e.LastSeen,
		&e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	if endTime.Valid {
		t := endTime.Time
		e.EndTime = &t
	}
	return &e, nil
}
