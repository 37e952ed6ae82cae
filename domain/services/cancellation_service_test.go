package services

import (
	"context"
	"testing"
	"time"

	"bicho/domain/entities"
	"bicho/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// RJ/PT draws at 14:20
var testDrawTime = time.Date(2026, 3, 14, 14, 20, 0, 0, time.UTC)

func newCancellationServiceAt(m *TestMocks, now time.Time) *cancellationService {
	return NewCancellationService(
		m.WagerRepo, m.RecordRepo, m.CancellationRepo, m.LedgerRepo, m.EventPublisher,
		CancellationPolicy{Buffer: time.Hour, Location: time.UTC, Now: func() time.Time { return now }},
	).(*cancellationService)
}

func TestCancellationService_Cancel_Cutoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		now        time.Time
		wantErr    error
		wantRefund bool
	}{
		{name: "90 minutes before draw", now: testDrawTime.Add(-90 * time.Minute), wantRefund: true},
		{name: "45 minutes before draw", now: testDrawTime.Add(-45 * time.Minute), wantErr: entities.ErrTooLateToCancel},
		{name: "exactly one hour before draw", now: testDrawTime.Add(-time.Hour), wantErr: entities.ErrTooLateToCancel},
		{name: "after draw", now: testDrawTime.Add(time.Minute), wantErr: entities.ErrTooLateToCancel},
		{name: "play date in the past", now: testDrawTime.AddDate(0, 0, 1).Add(-10 * time.Hour), wantErr: entities.ErrTooLateToCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			mocks := NewTestMocks()
			service := newCancellationServiceAt(mocks, tt.now)
			wager := createTestWager()

			mocks.WagerRepo.On("GetByIDForUpdate", ctx, TestWagerID).Return(wager, nil)
			mocks.RecordRepo.On("GetByWager", ctx, TestWagerID).Return([]*entities.SettlementRecord{}, nil)
			if tt.wantRefund {
				mocks.WagerRepo.On("Cancel", ctx, mock.MatchedBy(func(w *entities.Wager) bool {
					return w.State == entities.WagerStateCancelled
				})).Return(nil)
				mocks.CancellationRepo.On("Create", ctx, mock.AnythingOfType("*entities.CancellationRecord")).
					Run(func(args mock.Arguments) { args.Get(1).(*entities.CancellationRecord).ID = 5 }).
					Return(nil)
				mocks.ExpectLedgerAppend(9, 1000)
				mocks.ExpectEventPublish(events.EventTypeBalanceChange)
				mocks.EventPublisher.On("Publish", events.WagerCancelledEvent{
					WagerID: TestWagerID,
					OwnerID: TestOwnerID,
					Amount:  200,
					Display: "2.00",
				}).Return(nil)
			}

			refund, err := service.Cancel(ctx, TestWagerID, entities.DefaultCatalog())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, entities.IsCancellationRejection(err))
				assert.Nil(t, refund)
				mocks.WagerRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
				mocks.LedgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, wager.TotalStake, refund.Amount)
				assert.Equal(t, int64(5), refund.CancellationID)
				assert.Equal(t, entities.WagerStateCancelled, wager.State)
				mocks.LedgerRepo.AssertCalled(t, "Append", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
					return e.IdempotencyKey == "wager:1:refund" &&
						e.Amount == 200 &&
						e.RelatedType == entities.RelatedTypeCancellation &&
						e.RelatedID == 5
				}))
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestCancellationService_Cancel_UsesEarliestTargetedDraw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mocks := NewTestMocks()
	// 10:30 is more than an hour before PT (14:20) but less than one before PTM (11:20)
	service := newCancellationServiceAt(mocks, time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC))
	wager := createTestWager(func(w *entities.Wager) { w.TimeSlots = []string{"PT", "PTM"} })

	mocks.WagerRepo.On("GetByIDForUpdate", ctx, TestWagerID).Return(wager, nil)
	mocks.RecordRepo.On("GetByWager", ctx, TestWagerID).Return([]*entities.SettlementRecord{}, nil)

	_, err := service.Cancel(ctx, TestWagerID, entities.DefaultCatalog())

	assert.ErrorIs(t, err, entities.ErrTooLateToCancel)
	mocks.AssertAllExpectations(t)
}

func TestCancellationService_Cancel_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setupMocks func(*TestMocks)
		wantErr    error
	}{
		{
			name: "unknown wager",
			setupMocks: func(m *TestMocks) {
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(nil, nil)
			},
			wantErr: entities.ErrWagerNotFound,
		},
		{
			name: "already cancelled",
			setupMocks: func(m *TestMocks) {
				w := createTestWager(func(w *entities.Wager) { w.State = entities.WagerStateCancelled })
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(w, nil)
			},
			wantErr: entities.ErrNotPending,
		},
		{
			name: "won",
			setupMocks: func(m *TestMocks) {
				w := createTestWager(func(w *entities.Wager) { w.State = entities.WagerStateWon })
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(w, nil)
			},
			wantErr: entities.ErrAlreadyResolved,
		},
		{
			name: "lost",
			setupMocks: func(m *TestMocks) {
				w := createTestWager(func(w *entities.Wager) { w.State = entities.WagerStateLost })
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(w, nil)
			},
			wantErr: entities.ErrAlreadyResolved,
		},
		{
			name: "partially settled",
			setupMocks: func(m *TestMocks) {
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(createTestWager(), nil)
				m.RecordRepo.On("GetByWager", mock.Anything, TestWagerID).
					Return([]*entities.SettlementRecord{{ID: 1, WagerID: TestWagerID}}, nil)
			},
			wantErr: entities.ErrAlreadyResolved,
		},
		{
			name: "settlement won the race",
			setupMocks: func(m *TestMocks) {
				m.WagerRepo.On("GetByIDForUpdate", mock.Anything, TestWagerID).Return(createTestWager(), nil)
				m.RecordRepo.On("GetByWager", mock.Anything, TestWagerID).Return([]*entities.SettlementRecord{}, nil)
				m.WagerRepo.On("Cancel", mock.Anything, mock.Anything).Return(entities.ErrConcurrencyConflict)
			},
			wantErr: entities.ErrConcurrencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			service := newCancellationServiceAt(mocks, testDrawTime.Add(-3*time.Hour))
			tt.setupMocks(mocks)

			refund, err := service.Cancel(context.Background(), TestWagerID, entities.DefaultCatalog())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, refund)
			mocks.LedgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestCancellationService_Cancel_DuplicateRefundFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mocks := NewTestMocks()
	service := newCancellationServiceAt(mocks, testDrawTime.Add(-3*time.Hour))

	mocks.WagerRepo.On("GetByIDForUpdate", ctx, TestWagerID).Return(createTestWager(), nil)
	mocks.RecordRepo.On("GetByWager", ctx, TestWagerID).Return([]*entities.SettlementRecord{}, nil)
	mocks.WagerRepo.On("Cancel", ctx, mock.Anything).Return(nil)
	mocks.CancellationRepo.On("Create", ctx, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*entities.CancellationRecord).ID = 5 }).
		Return(nil)
	mocks.LedgerRepo.On("Append", ctx, mock.Anything).Return(entities.ErrDuplicateLedgerEntry)

	_, err := service.Cancel(ctx, TestWagerID, entities.DefaultCatalog())

	assert.ErrorIs(t, err, entities.ErrDuplicateLedgerEntry)
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	mocks.AssertAllExpectations(t)
}

func TestCancellationService_Cancel_UnscheduledSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mocks := NewTestMocks()
	service := newCancellationServiceAt(mocks, testDrawTime.Add(-3*time.Hour))
	wager := createTestWager(func(w *entities.Wager) { w.Sources = []string{"RJ", "FEDERAL"} })

	mocks.WagerRepo.On("GetByIDForUpdate", ctx, TestWagerID).Return(wager, nil)
	mocks.RecordRepo.On("GetByWager", ctx, TestWagerID).Return([]*entities.SettlementRecord{}, nil)

	_, err := service.Cancel(ctx, TestWagerID, entities.DefaultCatalog())

	require.Error(t, err)
	assert.False(t, entities.IsCancellationRejection(err))
	var cfgErr *entities.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "FEDERAL", cfgErr.Source)
	assert.Equal(t, "PT", cfgErr.TimeSlot)
	mocks.WagerRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	mocks.LedgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	mocks.AssertAllExpectations(t)
}
