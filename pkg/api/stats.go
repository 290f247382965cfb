package api

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/snooze/pkg/observability"
)

// RefreshStats updates the user and story gauges from the store
func (s *Server) RefreshStats(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	stories, err := s.store.CountStories(ctx)
	if err != nil {
		return fmt.Errorf("count stories: %w", err)
	}
	s.metrics.UsersTotal.Set(float64(users))
	s.metrics.StoriesTotal.Set(float64(stories))
	return nil
}

// StartStatsRefresher refreshes the gauges on the given cron schedule until
// ctx is cancelled
func (s *Server) StartStatsRefresher(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		defer observability.RecoverPanic(s.logger, "stats refresher")
		if err := s.RefreshStats(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to refresh stats")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}
