package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bicho/domain/entities"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// SettlementScheduler triggers settlement shortly after each scheduled draw and
// periodically sweeps recent slots that are still unsettled
type SettlementScheduler struct {
	cron          *cron.Cron
	dispatcher    SettlementDispatcher
	schedules     []*entities.DrawSchedule
	location      *time.Location
	delay         time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// NewSettlementScheduler creates a scheduler for the given draw schedules
func NewSettlementScheduler(
	dispatcher SettlementDispatcher,
	schedules []*entities.DrawSchedule,
	location *time.Location,
	delay time.Duration,
	sweepInterval time.Duration,
) *SettlementScheduler {
	if location == nil {
		location = time.UTC
	}
	return &SettlementScheduler{
		cron:          cron.New(cron.WithLocation(location)),
		dispatcher:    dispatcher,
		schedules:     schedules,
		location:      location,
		delay:         delay,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Start registers one job per draw schedule plus the sweep and starts the cron loop
func (s *SettlementScheduler) Start(ctx context.Context) error {
	for _, schedule := range s.schedules {
		spec, err := slotJobSpec(schedule, s.delay)
		if err != nil {
			return err
		}

		_, err = s.cron.AddFunc(spec, func() {
			key := s.slotKeyAt(schedule, s.now().Add(-s.delay))
			s.dispatch(ctx, key)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule settlement for %s/%s: %w", schedule.Source, schedule.TimeSlot, err)
		}

		log.WithFields(log.Fields{
			"source":   schedule.Source,
			"timeSlot": schedule.TimeSlot,
			"spec":     spec,
		}).Info("Scheduled slot settlement")
	}

	if s.sweepInterval > 0 {
		_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.sweepInterval), func() {
			s.Sweep(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule settlement sweep: %w", err)
		}
	}

	s.cron.Start()
	log.WithField("location", s.location.String()).Info("Settlement scheduler started")
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *SettlementScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Settlement scheduler stopped")
}

// Sweep re-dispatches every slot of today and yesterday whose settlement time has
// passed. Already settled slots find no candidates and cost one query.
func (s *SettlementScheduler) Sweep(ctx context.Context) {
	for _, key := range s.dueSlots(s.now()) {
		s.dispatch(ctx, key)
	}
}

// dueSlots lists the slots of the last two days whose draw time plus delay is before now
func (s *SettlementScheduler) dueSlots(now time.Time) []entities.SlotKey {
	local := now.In(s.location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)

	var due []entities.SlotKey
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		for _, schedule := range s.schedules {
			at, err := schedule.At(day, s.location)
			if err != nil {
				log.WithError(err).WithField("timeSlot", schedule.TimeSlot).Error("Invalid draw schedule")
				continue
			}
			if at.Add(s.delay).After(now) {
				continue
			}
			due = append(due, s.slotKeyAt(schedule, day))
		}
	}
	return due
}

func (s *SettlementScheduler) slotKeyAt(schedule *entities.DrawSchedule, t time.Time) entities.SlotKey {
	local := t.In(s.location)
	return entities.SlotKey{
		Date:     time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
		Source:   schedule.Source,
		TimeSlot: schedule.TimeSlot,
	}
}

func (s *SettlementScheduler) dispatch(ctx context.Context, key entities.SlotKey) {
	logger := log.WithField("slot", key.String())
	err := s.dispatcher.Dispatch(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrResultNotAvailable):
		logger.Warn("Draw result not published yet, leaving slot for the next sweep")
	default:
		logger.WithError(err).Error("Settlement dispatch failed")
	}
}

// slotJobSpec builds the daily cron spec firing delay after the draw time
func slotJobSpec(schedule *entities.DrawSchedule, delay time.Duration) (string, error) {
	hour, minute, err := schedule.Clock()
	if err != nil {
		return "", err
	}
	offset := (time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + delay) % (24 * time.Hour)
	if offset < 0 {
		offset += 24 * time.Hour
	}
	return fmt.Sprintf("%d %d * * *", int(offset/time.Minute)%60, int(offset/time.Hour)), nil
}
