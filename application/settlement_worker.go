package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bicho/domain/entities"
	"bicho/domain/events"
	"bicho/domain/interfaces"
	"bicho/domain/services"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultSettlementWorkers bounds concurrent per-wager transactions when unset
const DefaultSettlementWorkers = 8

// SettlementSummary reports what one run did for one slot
type SettlementSummary struct {
	DrawDate  string         `json:"draw_date"`
	Source    string         `json:"source"`
	TimeSlot  string         `json:"time_slot"`
	Verified  int            `json:"verified"`
	Won       int            `json:"won"`
	Lost      int            `json:"lost"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	TotalPaid entities.Cents `json:"total_paid_cents"`
	Failures  []WagerFailure `json:"failures,omitempty"`
}

// WagerFailure describes a wager the run could not settle
type WagerFailure struct {
	WagerID int64  `json:"wager_id"`
	Reason  string `json:"reason"`
}

// SettlementMetrics receives run results
type SettlementMetrics interface {
	RecordSettlementRun(summary *SettlementSummary, duration time.Duration)
	RecordSettlementFailure(source, timeSlot, reason string)
}

// SettlementWorker settles every pending wager of a published draw
type SettlementWorker struct {
	uowFactory     UnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
	metrics        SettlementMetrics
	workers        int
}

// NewSettlementWorker creates a new settlement worker. metrics may be nil.
func NewSettlementWorker(uowFactory UnitOfWorkFactory, eventPublisher interfaces.EventPublisher, metrics SettlementMetrics, workers int) *SettlementWorker {
	if workers < 1 {
		workers = DefaultSettlementWorkers
	}
	return &SettlementWorker{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		metrics:        metrics,
		workers:        workers,
	}
}

type wagerOutcome struct {
	wagerID    int64
	settlement *interfaces.WagerSettlement
	skipped    bool
	err        error
}

// Settle runs the settlement job for one slot. It returns ErrResultNotAvailable if the
// draw has not been published; re-running it after success is a no-op.
func (w *SettlementWorker) Settle(ctx context.Context, key entities.SlotKey) (*SettlementSummary, error) {
	start := time.Now()
	logger := log.WithFields(log.Fields{
		"drawDate": key.DateString(),
		"source":   key.Source,
		"timeSlot": key.TimeSlot,
	})

	result, catalog, wagerIDs, err := w.loadSlot(ctx, key)
	if err != nil {
		reason := "load_failed"
		if errors.Is(err, entities.ErrResultNotAvailable) {
			reason = "result_not_available"
		}
		w.recordFailure(key, reason)
		return nil, err
	}

	summary := &SettlementSummary{
		DrawDate: key.DateString(),
		Source:   key.Source,
		TimeSlot: key.TimeSlot,
	}

	logger.WithField("candidates", len(wagerIDs)).Info("Starting settlement run")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, wagerID := range wagerIDs {
		g.Go(func() error {
			outcome := w.settleOne(gctx, wagerID, result, catalog)
			mu.Lock()
			summary.apply(outcome)
			mu.Unlock()
			// Failures stay inside the summary so one wager never cancels the rest
			return nil
		})
	}
	_ = g.Wait()

	event := events.SlotSettledEvent{
		DrawDate:  summary.DrawDate,
		Source:    summary.Source,
		TimeSlot:  summary.TimeSlot,
		Verified:  summary.Verified,
		Won:       summary.Won,
		Lost:      summary.Lost,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		TotalPaid: summary.TotalPaid,
	}
	if err := w.eventPublisher.Publish(event); err != nil {
		logger.WithError(err).Error("Failed to publish slot settled event")
	}

	duration := time.Since(start)
	if w.metrics != nil {
		w.metrics.RecordSettlementRun(summary, duration)
	}

	logger.WithFields(log.Fields{
		"verified":  summary.Verified,
		"won":       summary.Won,
		"lost":      summary.Lost,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"totalPaid": summary.TotalPaid.String(),
		"duration":  duration,
	}).Info("Completed settlement run")

	return summary, nil
}

// loadSlot reads the result, the catalog snapshot and the candidate wagers in one
// read transaction
func (w *SettlementWorker) loadSlot(ctx context.Context, key entities.SlotKey) (*entities.DrawResult, *entities.Catalog, []int64, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := uow.DrawResultRepository().GetBySlot(ctx, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get draw result: %w", err)
	}
	if result == nil {
		return nil, nil, nil, entities.ErrResultNotAvailable
	}
	if err := result.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("draw result for %s is malformed: %w", key, err)
	}

	catalog, err := LoadCatalog(ctx, uow.CatalogRepository())
	if err != nil {
		return nil, nil, nil, err
	}

	wagerIDs, err := uow.WagerRepository().GetPendingIDsForSlot(ctx, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}

	return result, catalog, wagerIDs, nil
}

// settleOne applies the result to one wager inside its own unit of work
func (w *SettlementWorker) settleOne(ctx context.Context, wagerID int64, result *entities.DrawResult, catalog *entities.Catalog) wagerOutcome {
	logger := log.WithFields(log.Fields{
		"wagerID": wagerID,
		"slot":    result.Key().String(),
	})

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return wagerOutcome{wagerID: wagerID, err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer uow.Rollback()

	settlementService := services.NewSettlementService(
		uow.WagerRepository(),
		uow.SettlementRecordRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)

	settlement, err := settlementService.SettleWager(ctx, wagerID, result, catalog)
	if err != nil {
		if isSettlementSkip(err) {
			logger.WithError(err).Info("Skipping wager")
			return wagerOutcome{wagerID: wagerID, skipped: true}
		}
		logger.WithError(err).Error("Failed to settle wager")
		return wagerOutcome{wagerID: wagerID, err: err}
	}

	if err := uow.Commit(); err != nil {
		logger.WithError(err).Error("Failed to commit wager settlement")
		return wagerOutcome{wagerID: wagerID, err: err}
	}

	logger.WithFields(log.Fields{
		"state":     settlement.State,
		"finalized": settlement.Finalized,
		"credited":  settlement.Credited.String(),
	}).Debug("Settled wager")

	return wagerOutcome{wagerID: wagerID, settlement: settlement}
}

// isSettlementSkip reports errors meaning another actor already made progress
func isSettlementSkip(err error) bool {
	return errors.Is(err, entities.ErrAlreadyCancelled) ||
		errors.Is(err, entities.ErrConcurrencyConflict) ||
		errors.Is(err, entities.ErrSlotAlreadySettled) ||
		errors.Is(err, entities.ErrWagerNotFound)
}

func (s *SettlementSummary) apply(o wagerOutcome) {
	switch {
	case o.err != nil:
		s.Failed++
		s.Failures = append(s.Failures, WagerFailure{WagerID: o.wagerID, Reason: o.err.Error()})
	case o.skipped:
		s.Skipped++
	default:
		s.Verified++
		s.TotalPaid += o.settlement.Credited
		if o.settlement.Finalized {
			switch o.settlement.State {
			case entities.WagerStateWon:
				s.Won++
			case entities.WagerStateLost:
				s.Lost++
			}
		}
	}
}

func (w *SettlementWorker) recordFailure(key entities.SlotKey, reason string) {
	if w.metrics != nil {
		w.metrics.RecordSettlementFailure(key.Source, key.TimeSlot, reason)
	}
}
