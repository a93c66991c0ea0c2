package ics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "calview/internal/log"
	"calview/internal/model"
)

const defaultHorizon = 365 * 24 * time.Hour

// StoreOptions tunes a Store; zero values pick defaults.
type StoreOptions struct {
	// Location is the display timezone of expanded events.
	Location *time.Location
	// Horizon bounds unbounded requests (the All view) to now ± Horizon,
	// since recurring events may never end.
	Horizon time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	// MaxOccurrencesPerEvent is passed to ExpandOccurrences.
	MaxOccurrencesPerEvent int
}

// Store keeps the parsed events of all subscribed feeds and expands them on
// demand. It is the event source of calendar views.
type Store struct {
	fetcher *Fetcher
	sources []Source
	opts    StoreOptions

	mu          sync.RWMutex
	events      []ParsedEvent
	refreshedAt time.Time
}

// NewStore builds a Store for sources; call Refresh to load them.
func NewStore(fetcher *Fetcher, sources []Source, opts StoreOptions) *Store {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Horizon <= 0 {
		opts.Horizon = defaultHorizon
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{fetcher: fetcher, sources: sources, opts: opts}
}

// Refresh fetches and parses every source and swaps in the result. Feeds
// that fail keep no events, but the others are still applied; the joined
// per-feed errors are returned.
func (s *Store) Refresh(ctx context.Context) error {
	results, fetchErr := s.fetcher.FetchAll(ctx, s.sources)
	errs := []error{fetchErr}

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body, s.opts.Location)
		if err != nil {
			appLog.Error("ics store: parse failed", err, "id", res.Source.ID)
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, events...)
	}

	s.mu.Lock()
	s.events = parsed
	s.refreshedAt = s.opts.Clock()
	s.mu.Unlock()

	appLog.Info("ics store refreshed", "sources", len(s.sources), "loaded", len(results), "events", len(parsed))
	return errors.Join(errs...)
}

// RefreshedAt reports when Refresh last completed; zero if never.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Events expands stored events overlapping [start, end). Zero bounds use
// now ± Horizon.
func (s *Store) Events(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		now := s.opts.Clock()
		start, end = now.Add(-s.opts.Horizon), now.Add(s.opts.Horizon)
	}

	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation:        s.opts.Location,
		RangeStart:             start,
		RangeEnd:               end,
		MaxOccurrencesPerEvent: s.opts.MaxOccurrencesPerEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("ics store: %w", err)
	}
	return res.Events, nil
}
