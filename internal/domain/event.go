package domain

import (
	"fmt"
	"time"
)

// Event is one row of the events table: a single campus activity observed
// from an upstream source. EventID is the natural key assigned during
// scraping; ID is the store's internal primary key.
type Event struct {
	ID           string     `db:"id" json:"id"`
	EventID      string     `db:"event_id" json:"event_id"`
	Source       string     `db:"source" json:"source"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description,omitempty"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      *time.Time `db:"end_time" json:"end_time,omitempty"`
	Location     string     `db:"location" json:"location,omitempty"`
	Campus       string     `db:"campus" json:"campus,omitempty"`
	Organization string     `db:"organization" json:"organization,omitempty"`
	Category     string     `db:"category" json:"category,omitempty"`
	SourceURL    string     `db:"source_url" json:"source_url"`
	LastSeen     time.Time  `db:"last_seen" json:"last_seen"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// ErrMissingField marks a candidate record that cannot be stored because a
// required column would be NULL.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("event is missing required field %q", e.Field)
}

// Validate checks the NOT NULL columns before the record reaches SQL.
func (e *Event) Validate() error {
	switch {
	case e.EventID == "":
		return &ErrMissingField{Field: "event_id"}
	case e.Source == "":
		return &ErrMissingField{Field: "source"}
	case e.Title == "":
		return &ErrMissingField{Field: "title"}
	case e.StartTime.IsZero():
		return &ErrMissingField{Field: "start_time"}
	case e.SourceURL == "":
		return &ErrMissingField{Field: "source_url"}
	}
	return nil
}
