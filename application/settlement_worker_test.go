package application_test

import (
	"context"
	"testing"

	"bicho/application"
	"bicho/domain/entities"
	"bicho/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementWorker_ResultNotAvailable(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	metrics := &recordingMetrics{}
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(nil, nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, metrics, 2)
	summary, err := worker.Settle(context.Background(), key)

	assert.ErrorIs(t, err, entities.ErrResultNotAvailable)
	assert.Nil(t, summary)
	assert.Equal(t, []string{"result_not_available"}, metrics.failures)
	assert.Empty(t, repos.Sink.Events())
	repos.Wagers.AssertNotCalled(t, "GetPendingIDsForSlot", mock.Anything, mock.Anything)
}

func TestSettlementWorker_IsolatesPerWagerOutcomes(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	metrics := &recordingMetrics{}
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	result := &entities.DrawResult{
		ID:       42,
		DrawDate: testPlayDate,
		Source:   "RJ",
		TimeSlot: "PT",
		Numbers:  []string{"1234", "5678", "9012", "3456", "7890"},
	}

	winner := newPendingWager(1)
	cancelled := newPendingWager(2, func(w *entities.Wager) { w.State = entities.WagerStateCancelled })
	misconfigured := newPendingWager(3, func(w *entities.Wager) { w.BetTypeCode = "loteca" })
	loser := newPendingWager(4, func(w *entities.Wager) { w.Guesses = []string{"0042"} })

	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(result, nil)
	repos.Wagers.On("GetPendingIDsForSlot", mock.Anything, key).Return([]int64{1, 2, 3, 4}, nil)
	for _, w := range []*entities.Wager{winner, cancelled, misconfigured, loser} {
		repos.Wagers.On("GetByIDForUpdate", mock.Anything, w.ID).Return(w, nil)
	}
	repos.Wagers.On("Resolve", mock.Anything, mock.AnythingOfType("*entities.Wager")).Return(nil)
	repos.Records.On("ExistsForSlot", mock.Anything, mock.Anything, key).Return(false, nil)
	repos.Records.On("Create", mock.Anything, mock.AnythingOfType("*entities.SettlementRecord")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*entities.SettlementRecord)
			record.ID = 100 + record.WagerID
		}).
		Return(nil)
	repos.Records.On("GetByWager", mock.Anything, int64(1)).Return([]*entities.SettlementRecord{
		{ID: 101, WagerID: 1, DrawDate: testPlayDate, Source: "RJ", TimeSlot: "PT", Won: true, Prize: 800000},
	}, nil)
	repos.Records.On("GetByWager", mock.Anything, int64(4)).Return([]*entities.SettlementRecord{
		{ID: 104, WagerID: 4, DrawDate: testPlayDate, Source: "RJ", TimeSlot: "PT"},
	}, nil)
	repos.Ledger.On("Append", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).
		Run(func(args mock.Arguments) {
			entry := args.Get(1).(*entities.LedgerEntry)
			entry.ID = 9
			entry.BalanceAfter = entry.Amount
		}).
		Return(nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, metrics, 2)
	summary, err := worker.Settle(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Verified)
	assert.Equal(t, 1, summary.Won)
	assert.Equal(t, 1, summary.Lost)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, entities.Cents(800000), summary.TotalPaid)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, int64(3), summary.Failures[0].WagerID)
	assert.Equal(t, 2, repos.Commits())

	won := eventsOfType(repos.Sink, events.EventTypeWagerWon)
	require.Len(t, won, 1)
	assert.Equal(t, int64(1), won[0].(events.WagerWonEvent).WagerID)
	assert.Len(t, eventsOfType(repos.Sink, events.EventTypeBalanceChange), 1)

	settled := eventsOfType(repos.Sink, events.EventTypeSlotSettled)
	require.Len(t, settled, 1)
	assert.Equal(t, 2, settled[0].(events.SlotSettledEvent).Verified)

	require.Len(t, metrics.runs, 1)
	assert.Same(t, summary, metrics.runs[0])
}

func TestSettlementWorker_NoCandidates(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	result := &entities.DrawResult{
		ID:       42,
		DrawDate: testPlayDate,
		Source:   "RJ",
		TimeSlot: "PT",
		Numbers:  []string{"1234", "5678", "9012", "3456", "7890"},
	}

	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(result, nil)
	repos.Wagers.On("GetPendingIDsForSlot", mock.Anything, key).Return([]int64{}, nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, nil, 0)
	summary, err := worker.Settle(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, application.SettlementSummary{DrawDate: "2026-03-14", Source: "RJ", TimeSlot: "PT"}, *summary)
	assert.Equal(t, 0, repos.Commits())
}

func TestSettlementWorker_MalformedResult(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	result := &entities.DrawResult{ID: 42, DrawDate: testPlayDate, Source: "RJ", TimeSlot: "PT", Numbers: []string{"12a4"}}
	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(result, nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, nil, 1)
	_, err := worker.Settle(context.Background(), key)

	var digitsErr *entities.InvalidDigitsError
	assert.ErrorAs(t, err, &digitsErr)
}

func TestSettlementWorker_ShortResultFailsTheSlot(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	result := &entities.DrawResult{ID: 42, DrawDate: testPlayDate, Source: "RJ", TimeSlot: "PT", Numbers: []string{"1234", "5678"}}
	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(result, nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, nil, 1)
	summary, err := worker.Settle(context.Background(), key)

	assert.Nil(t, summary)
	var digitsErr *entities.InvalidDigitsError
	assert.ErrorAs(t, err, &digitsErr)
	repos.Wagers.AssertNotCalled(t, "GetPendingIDsForSlot", mock.Anything, mock.Anything)
}

func TestSettlementWorker_UnscheduledSlotCountsAsFailed(t *testing.T) {
	t.Parallel()

	repos := newFakeRepos()
	key := entities.SlotKey{Date: testPlayDate, Source: "RJ", TimeSlot: "PT"}
	result := &entities.DrawResult{
		ID:       42,
		DrawDate: testPlayDate,
		Source:   "RJ",
		TimeSlot: "PT",
		Numbers:  []string{"1234", "5678", "9012", "3456", "7890"},
	}
	wager := newPendingWager(1, func(w *entities.Wager) { w.Sources = []string{"RJ", "FEDERAL"} })

	repos.DrawResults.On("GetBySlot", mock.Anything, key).Return(result, nil)
	repos.Wagers.On("GetPendingIDsForSlot", mock.Anything, key).Return([]int64{1}, nil)
	repos.Wagers.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(wager, nil)
	repos.Records.On("ExistsForSlot", mock.Anything, int64(1), key).Return(false, nil)

	worker := application.NewSettlementWorker(repos, repos.Sink, nil, 1)
	summary, err := worker.Settle(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Won)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].Reason, "source FEDERAL, time slot PT")
	assert.Equal(t, 0, repos.Commits())
	repos.Records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
