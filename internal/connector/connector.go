package connector

import (
	"context"

	"events-hub/internal/domain"
)

// Fetch paths reported in run summaries.
const (
	ViaAPI  = "api"
	ViaICal = "ical"
	ViaNone = "none"
)

// Connector fetches and normalizes events from one upstream source.
// Fetch returns the normalized batch plus which path produced it.
type Connector interface {
	Source() string
	Fetch(ctx context.Context) ([]*domain.Event, string, error)
}
