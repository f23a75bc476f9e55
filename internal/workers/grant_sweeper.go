package workers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/models"
)

// GrantSweeper periodically deletes admin grants that have expired. Expired
// grants are already refused at request time; sweeping only keeps the table small.
type GrantSweeper struct {
	db     *gorm.DB
	logger zerolog.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewGrantSweeper parses schedule (standard 5-field cron format) and returns a
// sweeper that has not been started yet.
func NewGrantSweeper(db *gorm.DB, schedule string, logger zerolog.Logger) (*GrantSweeper, error) {
	s := &GrantSweeper{
		db:     db,
		logger: logger.With().Str("worker", "grant_sweeper").Logger(),
		cron:   cron.New(),
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid grant sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one sweep immediately, then follows the schedule in the background.
func (s *GrantSweeper) Start() {
	s.run()
	s.cron.Start()
	s.logger.Info().Msg("Grant sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *GrantSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Grant sweeper stopped")
}

func (s *GrantSweeper) run() {
	if _, err := s.SweepOnce(s.now()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to sweep expired admin grants")
	}
}

// SweepOnce deletes every grant that expired at or before now and reports how
// many were removed.
func (s *GrantSweeper) SweepOnce(now time.Time) (int64, error) {
	res := s.db.Where("expires_at <= ?", now).Delete(&models.AdminGrant{})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		s.logger.Info().Int64("deleted", res.RowsAffected).Msg("Swept expired admin grants")
	} else {
		s.logger.Debug().Msg("No expired admin grants")
	}
	return res.RowsAffected, nil
}
