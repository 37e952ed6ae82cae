package application_test

import (
	"context"
	"sync"
	"time"

	"bicho/application"
	"bicho/domain/entities"
	"bicho/domain/events"
	"bicho/domain/interfaces"
	"bicho/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

var testPlayDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// fakeRepos is shared by every unit of work a fake factory hands out
type fakeRepos struct {
	Catalog      *testhelpers.MockCatalogRepository
	DrawResults  *testhelpers.MockDrawResultRepository
	Wagers       *testhelpers.MockWagerRepository
	Records      *testhelpers.MockSettlementRecordRepository
	Cancellation *testhelpers.MockCancellationRepository
	Ledger       *testhelpers.MockLedgerRepository
	Sink         *testhelpers.RecordingPublisher

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func newFakeRepos() *fakeRepos {
	r := &fakeRepos{
		Catalog:      &testhelpers.MockCatalogRepository{},
		DrawResults:  &testhelpers.MockDrawResultRepository{},
		Wagers:       &testhelpers.MockWagerRepository{},
		Records:      &testhelpers.MockSettlementRecordRepository{},
		Cancellation: &testhelpers.MockCancellationRepository{},
		Ledger:       &testhelpers.MockLedgerRepository{},
		Sink:         testhelpers.NewRecordingPublisher(),
	}
	r.Catalog.On("GetBetTypes", mock.Anything).Return(entities.DefaultBetTypes(), nil).Maybe()
	r.Catalog.On("GetPlacements", mock.Anything).Return(entities.DefaultPlacements(), nil).Maybe()
	r.Catalog.On("GetDrawSchedules", mock.Anything).Return(entities.DefaultDrawSchedules(), nil).Maybe()
	return r
}

func (r *fakeRepos) Create() application.UnitOfWork {
	return &fakeUnitOfWork{repos: r, publisher: testhelpers.NewTransactionalPublisher(r.Sink)}
}

func (r *fakeRepos) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

type fakeUnitOfWork struct {
	repos     *fakeRepos
	publisher interfaces.TransactionalEventPublisher
	done      bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *fakeUnitOfWork) Commit() error {
	u.done = true
	u.repos.mu.Lock()
	u.repos.commits++
	u.repos.mu.Unlock()
	return u.publisher.Flush(context.Background())
}

func (u *fakeUnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.repos.mu.Lock()
	u.repos.rollbacks++
	u.repos.mu.Unlock()
	u.publisher.Discard()
	return nil
}

func (u *fakeUnitOfWork) CatalogRepository() interfaces.CatalogRepository { return u.repos.Catalog }
func (u *fakeUnitOfWork) DrawResultRepository() interfaces.DrawResultRepository {
	return u.repos.DrawResults
}
func (u *fakeUnitOfWork) WagerRepository() interfaces.WagerRepository { return u.repos.Wagers }
func (u *fakeUnitOfWork) SettlementRecordRepository() interfaces.SettlementRecordRepository {
	return u.repos.Records
}
func (u *fakeUnitOfWork) CancellationRepository() interfaces.CancellationRepository {
	return u.repos.Cancellation
}
func (u *fakeUnitOfWork) LedgerRepository() interfaces.LedgerRepository { return u.repos.Ledger }
func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher          { return u.publisher }

// recordingMetrics captures metric calls
type recordingMetrics struct {
	mu            sync.Mutex
	runs          []*application.SettlementSummary
	failures      []string
	cancellations []string
}

func (m *recordingMetrics) RecordSettlementRun(summary *application.SettlementSummary, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, summary)
}

func (m *recordingMetrics) RecordSettlementFailure(source, timeSlot, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
}

func (m *recordingMetrics) RecordCancellation(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations = append(m.cancellations, result)
}

func newPendingWager(id int64, opts ...func(*entities.Wager)) *entities.Wager {
	w := &entities.Wager{
		ID:                 id,
		OwnerID:            100 + id,
		BetTypeCode:        "milhar",
		PlacementCode:      "1",
		Guesses:            []string{"1234"},
		TimeSlots:          []string{"PT"},
		Sources:            []string{"RJ"},
		PlayDate:           testPlayDate,
		UnitStake:          200,
		DeclaredMultiplier: 4000,
		State:              entities.WagerStatePending,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.TotalStake = entities.CalculateTotalStake(w.UnitStake, len(w.Guesses), len(w.Sources))
	return w
}

func eventsOfType(sink *testhelpers.RecordingPublisher, eventType events.EventType) []events.Event {
	return sink.OfType(eventType)
}
