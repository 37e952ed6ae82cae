package testhelpers

import (
	"context"

	"bicho/domain/entities"
	"bicho/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetBetTypes(ctx context.Context) ([]*entities.BetType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BetType), args.Error(1)
}

func (m *MockCatalogRepository) GetPlacements(ctx context.Context) ([]*entities.Placement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Placement), args.Error(1)
}

func (m *MockCatalogRepository) GetDrawSchedules(ctx context.Context) ([]*entities.DrawSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DrawSchedule), args.Error(1)
}

// MockDrawResultRepository is a mock implementation of DrawResultRepository
type MockDrawResultRepository struct {
	mock.Mock
}

func (m *MockDrawResultRepository) GetBySlot(ctx context.Context, key entities.SlotKey) (*entities.DrawResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawResult), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if rf, ok := args.Get(0).(func(context.Context, int64) *entities.Wager); ok {
		return rf(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetPendingIDsForSlot(ctx context.Context, key entities.SlotKey) ([]int64, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockWagerRepository) Resolve(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) Cancel(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

// MockSettlementRecordRepository is a mock implementation of SettlementRecordRepository
type MockSettlementRecordRepository struct {
	mock.Mock
}

func (m *MockSettlementRecordRepository) Create(ctx context.Context, record *entities.SettlementRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSettlementRecordRepository) ExistsForSlot(ctx context.Context, wagerID int64, key entities.SlotKey) (bool, error) {
	args := m.Called(ctx, wagerID, key)
	if rf, ok := args.Get(0).(func(context.Context, int64, entities.SlotKey) bool); ok {
		return rf(ctx, wagerID, key), args.Error(1)
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockSettlementRecordRepository) GetByWager(ctx context.Context, wagerID int64) ([]*entities.SettlementRecord, error) {
	args := m.Called(ctx, wagerID)
	if rf, ok := args.Get(0).(func(context.Context, int64) []*entities.SettlementRecord); ok {
		return rf(ctx, wagerID), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementRecord), args.Error(1)
}

// MockCancellationRepository is a mock implementation of CancellationRepository
type MockCancellationRepository struct {
	mock.Mock
}

func (m *MockCancellationRepository) Create(ctx context.Context, record *entities.CancellationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCancellationRepository) GetByWager(ctx context.Context, wagerID int64) (*entities.CancellationRecord, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CancellationRecord), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumByAccount(ctx context.Context, accountID int64) (entities.Cents, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(entities.Cents), args.Error(1)
}

func (m *MockLedgerRepository) GetProjectedBalance(ctx context.Context, accountID int64) (*entities.BalanceProjection, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceProjection), args.Error(1)
}

func (m *MockLedgerRepository) RebuildProjections(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockBalanceCache is a mock implementation of BalanceCache
type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) Get(ctx context.Context, accountID int64) (entities.Cents, bool, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(entities.Cents), args.Bool(1), args.Error(2)
}

func (m *MockBalanceCache) Set(ctx context.Context, accountID int64, balance entities.Cents, lastEntryID int64) error {
	args := m.Called(ctx, accountID, balance, lastEntryID)
	return args.Error(0)
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, accountID int64, lastEntryID int64) error {
	args := m.Called(ctx, accountID, lastEntryID)
	return args.Error(0)
}
