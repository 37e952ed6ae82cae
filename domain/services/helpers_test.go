package services

import (
	"testing"
	"time"

	"bicho/domain/entities"
	"bicho/domain/events"
	"bicho/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

const (
	TestWagerID = int64(1)
	TestOwnerID = int64(100)
)

var testPlayDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	WagerRepo        *testhelpers.MockWagerRepository
	RecordRepo       *testhelpers.MockSettlementRecordRepository
	CancellationRepo *testhelpers.MockCancellationRepository
	LedgerRepo       *testhelpers.MockLedgerRepository
	EventPublisher   *testhelpers.MockEventPublisher
	Cache            *testhelpers.MockBalanceCache
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		WagerRepo:        &testhelpers.MockWagerRepository{},
		RecordRepo:       &testhelpers.MockSettlementRecordRepository{},
		CancellationRepo: &testhelpers.MockCancellationRepository{},
		LedgerRepo:       &testhelpers.MockLedgerRepository{},
		EventPublisher:   &testhelpers.MockEventPublisher{},
		Cache:            &testhelpers.MockBalanceCache{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.WagerRepo.AssertExpectations(t)
	m.RecordRepo.AssertExpectations(t)
	m.CancellationRepo.AssertExpectations(t)
	m.LedgerRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.Cache.AssertExpectations(t)
}

// ExpectEventPublish sets up event publisher mock expectations
func (m *TestMocks) ExpectEventPublish(eventType events.EventType) *mock.Call {
	return m.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// ExpectLedgerAppend accepts an append and fills in the generated fields
func (m *TestMocks) ExpectLedgerAppend(id int64, balanceBefore entities.Cents) *mock.Call {
	return m.LedgerRepo.On("Append", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).
		Run(func(args mock.Arguments) {
			entry := args.Get(1).(*entities.LedgerEntry)
			entry.ID = id
			entry.BalanceAfter = balanceBefore + entry.Amount
		}).
		Return(nil)
}

// createTestWager builds a valid pending milhar wager on the first prize
func createTestWager(opts ...func(*entities.Wager)) *entities.Wager {
	w := &entities.Wager{
		ID:                 TestWagerID,
		OwnerID:            TestOwnerID,
		BetTypeCode:        "milhar",
		PlacementCode:      "1",
		Guesses:            []string{"1234"},
		TimeSlots:          []string{"PT"},
		Sources:            []string{"RJ"},
		PlayDate:           testPlayDate,
		UnitStake:          200,
		DeclaredMultiplier: 4000,
		State:              entities.WagerStatePending,
		CreatedAt:          testPlayDate.Add(-2 * time.Hour),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.TotalStake = entities.CalculateTotalStake(w.UnitStake, len(w.Guesses), len(w.Sources))
	return w
}

func createTestResult(timeSlot string, numbers ...string) *entities.DrawResult {
	return &entities.DrawResult{
		ID:       42,
		DrawDate: testPlayDate,
		Source:   "RJ",
		TimeSlot: timeSlot,
		Numbers:  numbers,
	}
}

// copyWager returns a fresh copy so each mocked lock sees the stored state
func copyWager(w *entities.Wager) *entities.Wager {
	c := *w
	return &c
}
