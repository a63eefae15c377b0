package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/metrics"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/svc/identity"
)

// Sweeper expires old sessions and drops realtime connections whose
// identity is no longer valid.
type Sweeper struct {
	store    Store
	profiles Profiles
	realtime Realtime
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration
	maxAge   time.Duration
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	Expired      int
	Disconnected int
	Failed       int
}

// NewSweeper returns a Sweeper expiring sessions in store.
func NewSweeper(store Store, profiles Profiles, opts ...Option) *Sweeper {
	o := buildOptions(opts)
	return &Sweeper{
		store:    store,
		profiles: profiles,
		realtime: o.realtime,
		log:      o.logger.With(logger.Component("session.sweeper")),
		now:      o.now,
		interval: o.config.SweepInterval,
		maxAge:   o.config.MaxAge,
	}
}

// Run sweeps on every interval tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := s.now()
			stats := s.Sweep(ctx)
			if stats.Expired+stats.Disconnected+stats.Failed > 0 {
				s.log.InfoContext(ctx, "session sweep finished",
					slog.Int("expired", stats.Expired),
					slog.Int("disconnected", stats.Disconnected),
					slog.Int("failed", stats.Failed),
					logger.Duration(s.now().Sub(start)),
				)
			}
		}
	}
}

// Sweep runs one pass. A failure on one entry never stops the others.
func (s *Sweeper) Sweep(ctx context.Context) SweepStats {
	var stats SweepStats
	s.expire(ctx, &stats)
	s.reconcile(ctx, &stats)
	return stats
}

func (s *Sweeper) expire(ctx context.Context, stats *SweepStats) {
	expired, err := s.store.ListActiveBefore(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		stats.Failed++
		s.log.ErrorContext(ctx, "failed to list expired sessions", logger.Error(err))
		return
	}

	for _, sess := range expired {
		if err := s.store.Deactivate(ctx, sess.ID); err != nil {
			stats.Failed++
			s.log.ErrorContext(ctx, "failed to deactivate expired session",
				logger.SessionID(sess.ID),
				logger.Error(err),
			)
			continue
		}
		stats.Expired++
		stats.Disconnected += s.realtime.DisconnectRoom(realtime.ProfileRoom(sess.ProfileID))
	}
	metrics.SessionsDeactivated("sweep", stats.Expired)
}

// reconcile re-checks every authenticated connection against the stores.
func (s *Sweeper) reconcile(ctx context.Context, stats *SweepStats) {
	for _, c := range s.realtime.Connections() {
		id := c.Identity()
		if !id.Authenticated() {
			continue
		}

		valid, err := s.stillValid(ctx, id.ProfileID)
		if err != nil {
			stats.Failed++
			s.log.WarnContext(ctx, "failed to verify realtime connection",
				logger.ConnID(c.ID()),
				logger.ProfileID(id.ProfileID),
				logger.Error(err),
			)
			continue
		}
		if valid {
			continue
		}

		_ = c.Close()
		stats.Disconnected++
		metrics.RealtimeForcedDisconnects("sweep", 1)
	}
}

func (s *Sweeper) stillValid(ctx context.Context, profileID string) (bool, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}

	sess, err := s.store.GetByProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return sess.Active, nil
}
