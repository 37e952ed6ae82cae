package application

import (
	"context"
	"errors"
	"fmt"

	"bicho/domain/entities"
	"bicho/domain/interfaces"
	"bicho/domain/services"

	log "github.com/sirupsen/logrus"
)

// Cancellation result codes, shared by metrics and the HTTP API
const (
	CancelResultOK            = "ok"
	CancelResultNotPending    = "not_pending"
	CancelResultTooLate       = "too_late_to_cancel"
	CancelResultResolved      = "already_resolved"
	CancelResultNotFound      = "wager_not_found"
	CancelResultConflict      = "concurrency_conflict"
	CancelResultMisconfigured = "configuration_error"
	CancelResultInternalError = "error"
)

// CancellationMetrics receives cancellation results
type CancellationMetrics interface {
	RecordCancellation(result string)
}

// CancellationHandler runs a cancellation request in its own unit of work
type CancellationHandler struct {
	uowFactory UnitOfWorkFactory
	policy     services.CancellationPolicy
	metrics    CancellationMetrics
}

// NewCancellationHandler creates a new cancellation handler. metrics may be nil.
func NewCancellationHandler(uowFactory UnitOfWorkFactory, policy services.CancellationPolicy, metrics CancellationMetrics) *CancellationHandler {
	return &CancellationHandler{
		uowFactory: uowFactory,
		policy:     policy,
		metrics:    metrics,
	}
}

// Cancel refunds and cancels a pending wager
func (h *CancellationHandler) Cancel(ctx context.Context, wagerID int64) (*interfaces.RefundResult, error) {
	result, err := h.cancel(ctx, wagerID)

	code := CancellationResultCode(err)
	if h.metrics != nil {
		h.metrics.RecordCancellation(code)
	}

	logger := log.WithFields(log.Fields{"wagerID": wagerID, "result": code})
	switch code {
	case CancelResultOK:
		logger.WithField("refund", result.Amount.String()).Info("Wager cancelled")
	case CancelResultInternalError:
		logger.WithError(err).Error("Failed to cancel wager")
	case CancelResultMisconfigured:
		logger.WithError(err).Error("Wager references catalog entries that do not exist")
	default:
		logger.Info("Cancellation rejected")
	}

	return result, err
}

func (h *CancellationHandler) cancel(ctx context.Context, wagerID int64) (*interfaces.RefundResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	catalog, err := LoadCatalog(ctx, uow.CatalogRepository())
	if err != nil {
		return nil, err
	}

	cancellationService := services.NewCancellationService(
		uow.WagerRepository(),
		uow.SettlementRecordRepository(),
		uow.CancellationRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
		h.policy,
	)

	result, err := cancellationService.Cancel(ctx, wagerID, catalog)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return result, nil
}

// CancellationResultCode maps a Cancel error to its stable result code
func CancellationResultCode(err error) string {
	switch {
	case err == nil:
		return CancelResultOK
	case errors.Is(err, entities.ErrNotPending):
		return CancelResultNotPending
	case errors.Is(err, entities.ErrTooLateToCancel):
		return CancelResultTooLate
	case errors.Is(err, entities.ErrAlreadyResolved):
		return CancelResultResolved
	case errors.Is(err, entities.ErrWagerNotFound):
		return CancelResultNotFound
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return CancelResultConflict
	case errors.As(err, new(*entities.ConfigurationError)):
		return CancelResultMisconfigured
	default:
		return CancelResultInternalError
	}
}
