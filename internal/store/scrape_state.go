package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ScrapeState per-source scraper bookkeeping. The kill switch blocks runs
// after too many consecutive failures until an operator resets it.
type ScrapeState struct {
	ConsecutiveFailures int        `json:"consecutive_failures"`
	KillSwitch          bool       `json:"kill_switch"`
	LastAttempt         *time.Time `json:"last_attempt,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
}

// ScrapeStateStore persists ScrapeState in the KV, one key per source.
type ScrapeStateStore struct {
	kv          KV
	maxFailures int
}

func NewScrapeStateStore(kv KV, maxFailures int) *ScrapeStateStore {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &ScrapeStateStore{kv: kv, maxFailures: maxFailures}
}

func stateKey(source string) string {
	return "scrape:state:" + source
}

// Get returns the stored state, or a zero state when none exists yet.
func (s *ScrapeStateStore) Get(ctx context.Context, source string) (*ScrapeState, error) {
	raw, err := s.kv.Get(ctx, stateKey(source))
	if err != nil {
		if err == ErrMiss {
			return &ScrapeState{}, nil
		}
		return nil, fmt.Errorf("failed to load scrape state for %s: %w", source, err)
	}

	var state ScrapeState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// Corrupt state is treated as absent rather than blocking every run.
		return &ScrapeState{}, nil
	}
	return &state, nil
}

func (s *ScrapeStateStore) save(ctx context.Context, source string, state *ScrapeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal scrape state: %w", err)
	}
	if err := s.kv.Set(ctx, stateKey(source), string(raw), 0); err != nil {
		return fmt.Errorf("failed to save scrape state for %s: %w", source, err)
	}
	return nil
}

// RecordFailure bumps the failure count and arms the kill switch once the
// threshold is reached. Returns the updated state.
func (s *ScrapeStateStore) RecordFailure(ctx context.Context, source string) (*ScrapeState, error) {
	state, err := s.Get(ctx, source)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	state.ConsecutiveFailures++
	state.LastAttempt = &now
	if state.ConsecutiveFailures >= s.maxFailures {
		state.KillSwitch = true
	}

	if err := s.save(ctx, source, state); err != nil {
		return nil, err
	}
	return state, nil
}

// RecordSuccess clears the failure count and the kill switch.
func (s *ScrapeStateStore) RecordSuccess(ctx context.Context, source string) (*ScrapeState, error) {
	state, err := s.Get(ctx, source)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	state.ConsecutiveFailures = 0
	state.KillSwitch = false
	state.LastAttempt = &now
	state.LastSuccess = &now

	if err := s.save(ctx, source, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Reset clears the kill switch manually (operator action).
func (s *ScrapeStateStore) Reset(ctx context.Context, source string) error {
	state, err := s.Get(ctx, source)
	if err != nil {
		return err
	}
	state.ConsecutiveFailures = 0
	state.KillSwitch = false
	return s.save(ctx, source, state)
}
