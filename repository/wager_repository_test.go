package repository

import (
	"context"
	"testing"
	"time"

	"bicho/domain/entities"
	"bicho/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWagerRepository_GetPendingIDsForSlot(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewWagerRepository(testDB.DB)

	target := testutil.InsertWager(t, testDB.DB, testutil.CreateTestWager(100))

	otherSlot := testutil.CreateTestWager(101)
	otherSlot.TimeSlots = []string{"PTN"}
	testutil.InsertWager(t, testDB.DB, otherSlot)

	otherDay := testutil.CreateTestWager(102)
	otherDay.PlayDate = testutil.PlayDate.AddDate(0, 0, 1)
	testutil.InsertWager(t, testDB.DB, otherDay)

	cancelled := testutil.CreateTestWager(103)
	cancelled.State = entities.WagerStateCancelled
	testutil.InsertWager(t, testDB.DB, cancelled)

	multi := testutil.CreateTestWager(104)
	multi.TimeSlots = []string{"PTM", "PT"}
	multi = testutil.InsertWager(t, testDB.DB, multi)

	key := testutil.SlotKey("RJ", "PT")
	ids, err := repo.GetPendingIDsForSlot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []int64{target.ID, multi.ID}, ids)

	// A settlement record for the slot removes the wager from the candidates
	result := testutil.InsertDrawResult(t, testDB.DB, key, "1234", "5678", "9012", "3456", "7890")
	recordRepo := NewSettlementRecordRepository(testDB.DB)
	require.NoError(t, recordRepo.Create(ctx, &entities.SettlementRecord{
		WagerID:            target.ID,
		DrawDate:           key.Date,
		Source:             key.Source,
		TimeSlot:           key.TimeSlot,
		DrawResultID:       result.ID,
		DeclaredMultiplier: 4000,
		ResolvedMultiplier: 4000,
	}))

	ids, err = repo.GetPendingIDsForSlot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []int64{multi.ID}, ids)
}

func TestWagerRepository_ConditionalTransitions(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewWagerRepository(testDB.DB)

	wager := testutil.InsertWager(t, testDB.DB, testutil.CreateTestWager(100))

	loaded, err := repo.GetByID(ctx, wager.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"1234"}, loaded.Guesses)
	assert.Equal(t, entities.WagerStatePending, loaded.State)
	assert.Nil(t, loaded.Prize)
	assert.Equal(t, testutil.PlayDate, loaded.PlayDate.UTC())

	loaded.Resolve(800000, time.Now())
	require.NoError(t, repo.Resolve(ctx, loaded))

	// Second writer loses the CAS
	stale := *wager
	stale.Cancel(time.Now())
	assert.ErrorIs(t, repo.Cancel(ctx, &stale), entities.ErrConcurrencyConflict)

	again := *loaded
	assert.ErrorIs(t, repo.Resolve(ctx, &again), entities.ErrConcurrencyConflict)

	stored, err := repo.GetByID(ctx, wager.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WagerStateWon, stored.State)
	require.NotNil(t, stored.Prize)
	assert.Equal(t, entities.Cents(800000), *stored.Prize)

	missing, err := repo.GetByID(ctx, wager.ID+1000)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSettlementRecordRepository_OnePerWagerSlot(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSettlementRecordRepository(testDB.DB)

	wager := testutil.InsertWager(t, testDB.DB, testutil.CreateTestWager(100))
	key := testutil.SlotKey("RJ", "PT")
	result := testutil.InsertDrawResult(t, testDB.DB, key, "1234", "5678", "9012", "3456", "7890")

	newRecord := func() *entities.SettlementRecord {
		return &entities.SettlementRecord{
			WagerID:            wager.ID,
			DrawDate:           key.Date,
			Source:             key.Source,
			TimeSlot:           key.TimeSlot,
			DrawResultID:       result.ID,
			Won:                true,
			WinningGuesses:     1,
			Prize:              800000,
			DeclaredMultiplier: 4000,
			ResolvedMultiplier: 4000,
			Matches: []entities.GuessMatch{
				{Guess: "1234", Positions: []int{1}, WinningNumbers: []string{"1234"}},
			},
		}
	}

	require.NoError(t, repo.Create(ctx, newRecord()))
	assert.ErrorIs(t, repo.Create(ctx, newRecord()), entities.ErrSlotAlreadySettled)

	exists, err := repo.ExistsForSlot(ctx, wager.ID, key)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForSlot(ctx, wager.ID, testutil.SlotKey("RJ", "PTN"))
	require.NoError(t, err)
	assert.False(t, exists)

	records, err := repo.GetByWager(ctx, wager.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, key.String(), records[0].Key().String())
	assert.Equal(t, []entities.GuessMatch{{Guess: "1234", Positions: []int{1}, WinningNumbers: []string{"1234"}}}, records[0].Matches)

	drawRepo := NewDrawResultRepository(testDB.DB)
	loaded, err := drawRepo.GetBySlot(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, result.Numbers, loaded.Numbers)

	unpublished, err := drawRepo.GetBySlot(ctx, testutil.SlotKey("RJ", "COR"))
	require.NoError(t, err)
	assert.Nil(t, unpublished)
}

func TestCatalogRepository_MatchesDefaults(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewCatalogRepository(testDB.DB)

	betTypes, err := repo.GetBetTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, betTypes, len(entities.DefaultBetTypes()))

	placements, err := repo.GetPlacements(ctx)
	require.NoError(t, err)
	assert.Len(t, placements, len(entities.DefaultPlacements()))

	schedules, err := repo.GetDrawSchedules(ctx)
	require.NoError(t, err)

	catalog := entities.NewCatalog(betTypes, placements, schedules)
	assert.Empty(t, catalog.Problems())

	for _, want := range entities.DefaultBetTypes() {
		got, err := catalog.BetType(want.Code)
		require.NoError(t, err, want.Code)
		assert.Equal(t, want.BaseMultiplier, got.BaseMultiplier, want.Code)
	}
	for _, want := range entities.DefaultDrawSchedules() {
		got, err := catalog.Schedule(want.Source, want.TimeSlot)
		require.NoError(t, err)
		assert.Equal(t, want.DrawTime, got.DrawTime)
	}
}

func TestDrawResults_RejectShortDraws(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	_, err := testDB.DB.Exec(ctx, `
		INSERT INTO draw_results (draw_date, source, time_slot, numbers)
		VALUES ($1, $2, $3, $4)
	`, testutil.PlayDate, "RJ", "PT", []string{"1234", "5678", "9012", "3456"})
	assert.Error(t, err)

	result, err := NewDrawResultRepository(testDB.DB).GetBySlot(ctx, testutil.SlotKey("RJ", "PT"))
	require.NoError(t, err)
	assert.Nil(t, result)
}
