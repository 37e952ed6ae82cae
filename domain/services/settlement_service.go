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

// settlementService implements the per-wager step of the settlement job.
// It is constructed per unit of work; every call runs inside one transaction.
type settlementService struct {
	wagerRepo      interfaces.WagerRepository
	recordRepo     interfaces.SettlementRecordRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	wagerRepo interfaces.WagerRepository,
	recordRepo interfaces.SettlementRecordRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		wagerRepo:      wagerRepo,
		recordRepo:     recordRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// SettleWager applies the draw result to one wager
func (s *settlementService) SettleWager(ctx context.Context, wagerID int64, result *entities.DrawResult, catalog *entities.Catalog) (*interfaces.WagerSettlement, error) {
	key := result.Key()

	// Lock the wager; cancellation takes the same lock
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
		return nil, entities.ErrAlreadyCancelled
	default:
		return nil, fmt.Errorf("wager %d is %s: %w", wager.ID, wager.State, entities.ErrConcurrencyConflict)
	}

	if !wager.TargetsSlot(key) {
		return nil, fmt.Errorf("wager %d does not target slot %s", wager.ID, key)
	}

	// Idempotency guard
	exists, err := s.recordRepo.ExistsForSlot(ctx, wager.ID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check settlement record: %w", err)
	}
	if exists {
		return nil, entities.ErrSlotAlreadySettled
	}

	if err := wager.Validate(); err != nil {
		return nil, err
	}
	if err := catalog.CheckScheduled(wager.SlotRefs()); err != nil {
		return nil, fmt.Errorf("wager %d can never finalize: %w", wager.ID, err)
	}

	betType, err := catalog.BetType(wager.BetTypeCode)
	if err != nil {
		return nil, err
	}
	placement, err := catalog.Placement(wager.PlacementCode)
	if err != nil {
		return nil, err
	}
	resolved, err := ResolveMultiplier(betType, placement)
	if err != nil {
		return nil, err
	}
	if resolved != wager.DeclaredMultiplier {
		// The declared multiplier was advertised at bet time and is what gets paid
		log.WithFields(log.Fields{
			"wagerID":            wager.ID,
			"declaredMultiplier": wager.DeclaredMultiplier,
			"resolvedMultiplier": resolved,
			"betType":            betType.Code,
			"placement":          placement.Code,
		}).Warn("Declared multiplier differs from current catalog")
	}

	var matches []entities.GuessMatch
	for _, guess := range wager.Guesses {
		outcome, err := Match(guess, betType, placement, result)
		if err != nil {
			return nil, fmt.Errorf("failed to match guess of wager %d: %w", wager.ID, err)
		}
		if outcome.Won {
			matches = append(matches, entities.GuessMatch{
				Guess:          guess,
				Positions:      outcome.Positions,
				WinningNumbers: outcome.WinningNumbers,
			})
		}
	}

	// One payout per winning guess at this slot
	prize := wager.UnitStake.Mul(wager.DeclaredMultiplier * int64(len(matches)))

	record := &entities.SettlementRecord{
		WagerID:            wager.ID,
		DrawDate:           key.Date,
		Source:             key.Source,
		TimeSlot:           key.TimeSlot,
		DrawResultID:       result.ID,
		Won:                len(matches) > 0,
		WinningGuesses:     len(matches),
		Prize:              prize,
		DeclaredMultiplier: wager.DeclaredMultiplier,
		ResolvedMultiplier: resolved,
		Matches:            matches,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create settlement record: %w", err)
	}

	settlement := &interfaces.WagerSettlement{
		WagerID: wager.ID,
		OwnerID: wager.OwnerID,
		Record:  record,
		State:   wager.State,
	}

	records, err := s.recordRepo.GetByWager(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement records: %w", err)
	}
	if !allSlotsResolved(wager, records) {
		return settlement, nil
	}

	total := entities.SumPrizes(records)
	wager.Resolve(total, time.Now().UTC())
	if err := s.wagerRepo.Resolve(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to resolve wager %d: %w", wager.ID, err)
	}

	settlement.Finalized = true
	settlement.State = wager.State
	settlement.Prize = total

	if total > 0 {
		recordIDs := make([]int64, 0, len(records))
		// The credit points at the latest winning record
		var relatedID int64
		for _, r := range records {
			if !r.Won {
				continue
			}
			recordIDs = append(recordIDs, r.ID)
			relatedID = max(relatedID, r.ID)
		}
		entry := &entities.LedgerEntry{
			AccountID:      wager.OwnerID,
			Amount:         total,
			EntryType:      entities.EntryTypeSettlementPayout,
			RelatedType:    entities.RelatedTypeSettlementRecord,
			RelatedID:      relatedID,
			IdempotencyKey: entities.PayoutKey(wager.ID),
			Metadata: map[string]any{
				"wager_id":              wager.ID,
				"winning_record_ids":    recordIDs,
				"declared_multiplier":   wager.DeclaredMultiplier,
				"unit_stake":            wager.UnitStake.String(),
				"finalized_by_slot":     key.String(),
				"settlement_record_cnt": len(records),
			},
		}
		if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, entry); err != nil {
			return nil, fmt.Errorf("failed to credit payout for wager %d: %w", wager.ID, err)
		}
		settlement.Credited = total

		if err := s.eventPublisher.Publish(events.WagerWonEvent{
			WagerID: wager.ID,
			OwnerID: wager.OwnerID,
			Amount:  total,
			Display: total.String(),
		}); err != nil {
			log.WithError(err).WithField("wagerID", wager.ID).Error("Failed to publish wager won event")
		}
	}

	return settlement, nil
}

// allSlotsResolved reports whether every slot the wager targets has a record
func allSlotsResolved(wager *entities.Wager, records []*entities.SettlementRecord) bool {
	resolved := make(map[string]bool, len(records))
	for _, r := range records {
		resolved[r.Key().String()] = true
	}
	for _, ref := range wager.SlotRefs() {
		if !resolved[ref.String()] {
			return false
		}
	}
	return true
}
