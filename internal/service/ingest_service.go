package service

import (
	"context"
	"fmt"
	"time"

	"events-hub/internal/connector"
	"events-hub/internal/domain"
	"events-hub/internal/metrics"
	"events-hub/internal/repository"
	"events-hub/internal/store"

	"go.uber.org/zap"
)

// minStoredGuard: when a scrape yields zero events but at least this many
// rows are already stored for the source, something upstream is broken and
// the run is treated as a failure instead of quietly doing nothing.
const minStoredGuard = 50

// RunSummary is the outcome of one scrape run for one source.
type RunSummary struct {
	Source   string `json:"source"`
	Via      string `json:"via"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the run should count as a failure (exit code,
// alerting).
func (s *RunSummary) Failed() bool { return s.Error != "" }

// IngestService drives connectors, enforces the kill switch, and writes
// batches through the events repository.
type IngestService struct {
	repo       repository.EventsRepository
	state      *store.ScrapeStateStore
	metrics    *metrics.Metrics
	connectors []connector.Connector
	logger     *zap.Logger
}

func NewIngestService(
	repo repository.EventsRepository,
	state *store.ScrapeStateStore,
	m *metrics.Metrics,
	connectors []connector.Connector,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		repo:       repo,
		state:      state,
		metrics:    m,
		connectors: connectors,
		logger:     logger,
	}
}

// Run executes every registered connector once.
func (s *IngestService) Run(ctx context.Context) []RunSummary {
	summaries := make([]RunSummary, 0, len(s.connectors))
	for _, c := range s.connectors {
		summaries = append(summaries, s.runOne(ctx, c))
	}
	return summaries
}

func (s *IngestService) runOne(ctx context.Context, c connector.Connector) RunSummary {
	source := c.Source()
	started := time.Now()
	summary := RunSummary{Source: source, Via: connector.ViaNone}

	finish := func() RunSummary {
		elapsed := time.Since(started)
		summary.Duration = elapsed.Round(time.Millisecond).String()
		s.metrics.ScrapeDuration.Observe(elapsed.Seconds())
		if summary.Failed() {
			s.metrics.ScrapeFailures.WithLabelValues(source).Inc()
		}
		return summary
	}

	state, err := s.state.Get(ctx, source)
	if err != nil {
		summary.Error = err.Error()
		return finish()
	}
	if state.KillSwitch {
		summary.Error = fmt.Sprintf(
			"kill switch is active for %q after %d consecutive failures; reset scrape state to resume",
			source, state.ConsecutiveFailures)
		s.logger.Error("Scrape blocked by kill switch",
			zap.String("source", source),
			zap.Int("consecutive_failures", state.ConsecutiveFailures))
		return finish()
	}

	events, via, err := c.Fetch(ctx)
	summary.Via = via
	if err != nil {
		if _, ferr := s.state.RecordFailure(ctx, source); ferr != nil {
			s.logger.Error("Failed to record scrape failure", zap.Error(ferr))
		}
		summary.Error = err.Error()
		return finish()
	}

	summary.Fetched = len(events)
	s.metrics.EventsFetched.WithLabelValues(source, via).Add(float64(len(events)))

	if len(events) == 0 {
		stored, cerr := s.repo.CountBySource(ctx, source)
		if cerr != nil {
			summary.Error = cerr.Error()
			return finish()
		}
		if stored >= minStoredGuard {
			if _, ferr := s.state.RecordFailure(ctx, source); ferr != nil {
				s.logger.Error("Failed to record scrape failure", zap.Error(ferr))
			}
			summary.Error = fmt.Sprintf(
				"fetched 0 events but %d are stored for %q; refusing to treat the source as empty",
				stored, source)
			s.logger.Error("Zero-event scrape with populated store",
				zap.String("source", source), zap.Int("stored", stored))
			return finish()
		}
		s.logger.Warn("Fetched 0 events, skipping upsert",
			zap.String("source", source), zap.Int("stored", stored))
		if _, serr := s.state.RecordSuccess(ctx, source); serr != nil {
			s.logger.Error("Failed to record scrape success", zap.Error(serr))
		}
		return finish()
	}

	deduped := dedupeByEventID(events)
	if len(deduped) < len(events) {
		s.logger.Info("Deduplicated scraped batch",
			zap.String("source", source),
			zap.Int("before", len(events)),
			zap.Int("after", len(deduped)))
	}

	inserted, updated, err := s.repo.UpsertBatch(ctx, deduped)
	if err != nil {
		if _, ferr := s.state.RecordFailure(ctx, source); ferr != nil {
			s.logger.Error("Failed to record scrape failure", zap.Error(ferr))
		}
		summary.Error = err.Error()
		return finish()
	}
	summary.Inserted = inserted
	summary.Updated = updated

	s.metrics.EventsInserted.WithLabelValues(source).Add(float64(inserted))
	s.metrics.EventsUpdated.WithLabelValues(source).Add(float64(updated))

	if _, serr := s.state.RecordSuccess(ctx, source); serr != nil {
		s.logger.Error("Failed to record scrape success", zap.Error(serr))
	}
	s.metrics.LastSuccessTS.WithLabelValues(source).SetToCurrentTime()

	s.logger.Info("Scrape complete",
		zap.String("source", source),
		zap.String("via", via),
		zap.Int("fetched", summary.Fetched),
		zap.Int("inserted", inserted),
		zap.Int("updated", updated))

	return finish()
}

// Status returns scrape state per registered source.
func (s *IngestService) Status(ctx context.Context) (map[string]*store.ScrapeState, error) {
	out := make(map[string]*store.ScrapeState, len(s.connectors))
	for _, c := range s.connectors {
		state, err := s.state.Get(ctx, c.Source())
		if err != nil {
			return nil, err
		}
		out[c.Source()] = state
	}
	return out, nil
}

// ResetKillSwitch clears failure tracking for every registered source.
func (s *IngestService) ResetKillSwitch(ctx context.Context) error {
	for _, c := range s.connectors {
		if err := s.state.Reset(ctx, c.Source()); err != nil {
			return err
		}
	}
	return nil
}

// dedupeByEventID keeps the first occurrence of each event_id: the API can
// return the same event on multiple pages, which would break a single
// batch upsert.
func dedupeByEventID(events []*domain.Event) []*domain.Event {
	seen := make(map[string]bool, len(events))
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if seen[e.EventID] {
			continue
		}
		seen[e.EventID] = true
		out = append(out, e)
	}
	return out
}
