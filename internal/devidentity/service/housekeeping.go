package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/store"
)

// HousekeepingService periodically deletes expired login tickets and refresh
// tokens.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to end it.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes expired records once. Each deletion is independent.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now()

	tickets, err := s.Store.Tickets().DeleteExpiredTickets(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired login tickets", "error", err)
	}

	tokens, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed", "tickets", tickets, "refresh_tokens", tokens)
}
