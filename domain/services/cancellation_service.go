package services

import (
	"context"
	"fmt"
	"time"

	"bicho/domain/entities"
	"bicho/domain/events"
	"bicho/domain/interfaces"
	"bicho/domain/utils"

	log "github.com/sirupsen/logrus"
)

// DefaultCancelBuffer is how long before the earliest draw a wager stops being cancellable
const DefaultCancelBuffer = time.Hour

// CancellationPolicy configures the cutoff check
type CancellationPolicy struct {
	Buffer   time.Duration
	Location *time.Location   // timezone the draw schedule is expressed in
	Now      func() time.Time // nil uses time.Now
}

func (p CancellationPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p CancellationPolicy) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

// cancellationService implements the pending -> cancelled transition with its refund
type cancellationService struct {
	wagerRepo        interfaces.WagerRepository
	recordRepo       interfaces.SettlementRecordRepository
	cancellationRepo interfaces.CancellationRepository
	ledgerRepo       interfaces.LedgerRepository
	eventPublisher   interfaces.EventPublisher
	policy           CancellationPolicy
}

// NewCancellationService creates a new cancellation service
func NewCancellationService(
	wagerRepo interfaces.WagerRepository,
	recordRepo interfaces.SettlementRecordRepository,
	cancellationRepo interfaces.CancellationRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
	policy CancellationPolicy,
) interfaces.CancellationService {
	if policy.Buffer <= 0 {
		policy.Buffer = DefaultCancelBuffer
	}
	return &cancellationService{
		wagerRepo:        wagerRepo,
		recordRepo:       recordRepo,
		cancellationRepo: cancellationRepo,
		ledgerRepo:       ledgerRepo,
		eventPublisher:   eventPublisher,
		policy:           policy,
	}
}

// Cancel refunds the total stake of a pending wager and marks it cancelled
func (s *cancellationService) Cancel(ctx context.Context, wagerID int64, catalog *entities.Catalog) (*interfaces.RefundResult, error) {
	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	switch wager.State {
	case entities.WagerStatePending:
	case entities.WagerStateCancelled:
		return nil, entities.ErrNotPending
	default:
		return nil, entities.ErrAlreadyResolved
	}

	// A partially settled wager is already being resolved
	records, err := s.recordRepo.GetByWager(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement records: %w", err)
	}
	if len(records) > 0 {
		return nil, entities.ErrAlreadyResolved
	}

	now := s.policy.now()
	earliest, err := s.EarliestDraw(wager, catalog)
	if err != nil {
		return nil, err
	}
	if !s.cancellable(wager, earliest, now) {
		log.WithFields(log.Fields{
			"wagerID":      wager.ID,
			"earliestDraw": earliest,
			"now":          now,
		}).Debug("Cancellation rejected past cutoff")
		return nil, entities.ErrTooLateToCancel
	}

	wager.Cancel(now.UTC())
	if err := s.wagerRepo.Cancel(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to cancel wager %d: %w", wager.ID, err)
	}

	record := &entities.CancellationRecord{
		WagerID:        wager.ID,
		OwnerID:        wager.OwnerID,
		Refund:         wager.TotalStake,
		EarliestDrawAt: earliest,
		CancelledAt:    now.UTC(),
	}
	if err := s.cancellationRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create cancellation record: %w", err)
	}

	entry := &entities.LedgerEntry{
		AccountID:      wager.OwnerID,
		Amount:         wager.TotalStake,
		EntryType:      entities.EntryTypeCancellationRefund,
		RelatedType:    entities.RelatedTypeCancellation,
		RelatedID:      record.ID,
		IdempotencyKey: entities.RefundKey(wager.ID),
		Metadata: map[string]any{
			"wager_id": wager.ID,
		},
	}
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, entry); err != nil {
		return nil, fmt.Errorf("failed to refund wager %d: %w", wager.ID, err)
	}

	if err := s.eventPublisher.Publish(events.WagerCancelledEvent{
		WagerID: wager.ID,
		OwnerID: wager.OwnerID,
		Amount:  wager.TotalStake,
		Display: wager.TotalStake.String(),
	}); err != nil {
		log.WithError(err).WithField("wagerID", wager.ID).Error("Failed to publish wager cancelled event")
	}

	return &interfaces.RefundResult{
		WagerID:        wager.ID,
		OwnerID:        wager.OwnerID,
		Amount:         wager.TotalStake,
		CancellationID: record.ID,
		CancelledAt:    record.CancelledAt,
	}, nil
}

// EarliestDraw returns the first draw instant among the slots the wager targets
func (s *cancellationService) EarliestDraw(wager *entities.Wager, catalog *entities.Catalog) (time.Time, error) {
	var earliest time.Time
	for _, ref := range wager.SlotRefs() {
		schedule, err := catalog.Schedule(ref.Source, ref.TimeSlot)
		if err != nil {
			return time.Time{}, fmt.Errorf("wager %d targets an unscheduled slot: %w", wager.ID, err)
		}
		at, err := schedule.At(wager.PlayDate, s.policy.location())
		if err != nil {
			return time.Time{}, err
		}
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
	}
	if earliest.IsZero() {
		return time.Time{}, fmt.Errorf("wager %d targets no draw", wager.ID)
	}
	return earliest, nil
}

// cancellable requires strictly more than the buffer before the earliest draw.
// A play date already in the past is never cancellable.
func (s *cancellationService) cancellable(wager *entities.Wager, earliest, now time.Time) bool {
	local := now.In(s.policy.location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	playDate := time.Date(wager.PlayDate.Year(), wager.PlayDate.Month(), wager.PlayDate.Day(), 0, 0, 0, 0, time.UTC)
	if playDate.Before(today) {
		return false
	}
	return earliest.Sub(now) > s.policy.Buffer
}
