package services

import (
	"testing"

	"bicho/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBetType(t *testing.T, code string) *entities.BetType {
	t.Helper()
	b, err := entities.DefaultCatalog().BetType(code)
	require.NoError(t, err)
	return b
}

func mustPlacement(t *testing.T, code string) *entities.Placement {
	t.Helper()
	p, err := entities.DefaultCatalog().Placement(code)
	require.NoError(t, err)
	return p
}

func drawWith(numbers ...string) *entities.DrawResult {
	return &entities.DrawResult{ID: 1, Source: "RJ", TimeSlot: "PT", Numbers: numbers}
}

func TestMatch_SimpleTypes(t *testing.T) {
	t.Parallel()

	result := drawWith("1234", "5678", "0042", "9100", "4321", "7796", "3317")

	tests := []struct {
		name      string
		betType   string
		placement string
		guess     string
		wantWon   bool
		wantPos   int
	}{
		{name: "milhar first prize", betType: "milhar", placement: "1", guess: "1234", wantWon: true, wantPos: 1},
		{name: "milhar first prize miss", betType: "milhar", placement: "1", guess: "4321", wantWon: false},
		{name: "milhar 1/5 matches fifth", betType: "milhar", placement: "1/5", guess: "4321", wantWon: true, wantPos: 5},
		{name: "milhar 1e5 matches fifth", betType: "milhar", placement: "1e5", guess: "4321", wantWon: true, wantPos: 5},
		{name: "milhar 1e5 ignores third", betType: "milhar", placement: "1e5", guess: "0042", wantWon: false},
		{name: "milhar keeps leading zeros", betType: "milhar", placement: "1/3", guess: "0042", wantWon: true, wantPos: 3},
		{name: "centena last three", betType: "centena", placement: "1", guess: "234", wantWon: true, wantPos: 1},
		{name: "centena with leading zero", betType: "centena", placement: "1/3", guess: "042", wantWon: true, wantPos: 3},
		{name: "dezena last two", betType: "dezena", placement: "1/3", guess: "78", wantWon: true, wantPos: 2},
		{name: "unidade last digit", betType: "unidade", placement: "1", guess: "4", wantWon: true, wantPos: 1},
		{name: "unidade miss", betType: "unidade", placement: "1", guess: "5", wantWon: false},
		{name: "grupo 25 wraps to 00", betType: "grupo", placement: "1/5", guess: "25", wantWon: true, wantPos: 4},
		{name: "grupo 24 holds 96", betType: "grupo", placement: "1/7", guess: "24", wantWon: true, wantPos: 6},
		{name: "grupo 09 from ending 34", betType: "grupo", placement: "1", guess: "09", wantWon: true, wantPos: 1},
		{name: "multi position returns first hit", betType: "dezena", placement: "1/7", guess: "17", wantWon: true, wantPos: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome, err := Match(tt.guess, mustBetType(t, tt.betType), mustPlacement(t, tt.placement), result)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWon, outcome.Won)
			if tt.wantWon {
				assert.Equal(t, tt.wantPos, outcome.Position)
				number, _ := result.NumberAt(tt.wantPos)
				assert.Equal(t, number, outcome.WinningNumber)
			}
		})
	}
}

func TestMatch_GroupWraparound(t *testing.T) {
	t.Parallel()

	grupo := mustBetType(t, "grupo")
	first := mustPlacement(t, "1")

	outcome, err := Match("25", grupo, first, drawWith("4500"))
	require.NoError(t, err)
	assert.True(t, outcome.Won, "ending 00 belongs to group 25")

	outcome, err = Match("25", grupo, first, drawWith("4596"))
	require.NoError(t, err)
	assert.False(t, outcome.Won, "ending 96 belongs to group 24")
}

func TestMatch_Combination(t *testing.T) {
	t.Parallel()

	// groups: 1234->09, 5678->20, 0042->11, 9100->25, 4321->06
	result := drawWith("1234", "5678", "0042", "9100", "4321")

	tests := []struct {
		name          string
		betType       string
		placement     string
		guess         string
		wantWon       bool
		wantPositions []int
	}{
		{name: "duque de grupo both present", betType: "duque_grupo", placement: "c1/5", guess: "09-25", wantWon: true, wantPositions: []int{1, 4}},
		{name: "duque de grupo order does not matter", betType: "duque_grupo", placement: "c1/5", guess: "25-09", wantWon: true, wantPositions: []int{4, 1}},
		{name: "duque de grupo one missing", betType: "duque_grupo", placement: "c1/5", guess: "09-01", wantWon: false},
		{name: "repeated group needs distinct positions", betType: "duque_grupo", placement: "c1/5", guess: "09-09", wantWon: false},
		{name: "terno de grupo", betType: "terno_grupo", placement: "c1/5", guess: "20,11,06", wantWon: true, wantPositions: []int{2, 3, 5}},
		{name: "duque de dezena", betType: "duque_dezena", placement: "c1/5", guess: "42 21", wantWon: true, wantPositions: []int{3, 5}},
		{name: "terno de dezena miss", betType: "terno_dezena", placement: "c1/5", guess: "34/78/99", wantWon: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome, err := Match(tt.guess, mustBetType(t, tt.betType), mustPlacement(t, tt.placement), result)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWon, outcome.Won)
			if tt.wantWon {
				assert.Equal(t, tt.wantPositions, outcome.Positions)
				assert.Len(t, outcome.WinningNumbers, len(tt.wantPositions))
			}
		})
	}
}

func TestMatch_CombinationFailsClosedOnShortPool(t *testing.T) {
	t.Parallel()

	// sena needs six positions; the draw only publishes five
	result := drawWith("1234", "5678", "0042", "9100", "4321")

	outcome, err := Match("09-20-11-25-06-01", mustBetType(t, "sena_grupo"), mustPlacement(t, "c1/7"), result)
	require.NoError(t, err)
	assert.False(t, outcome.Won)

	outcome, err = Match("09-20-11-25-06", mustBetType(t, "quina_grupo"), mustPlacement(t, "1"), result)
	require.NoError(t, err)
	assert.False(t, outcome.Won, "single position cannot hold five picks")
}

func TestMatch_Ordered(t *testing.T) {
	t.Parallel()

	result := drawWith("1234", "5678", "0042")
	passe := mustBetType(t, "passe")
	palpitao := mustBetType(t, "palpitao")
	p12 := mustPlacement(t, "p1/2")

	outcome, err := Match("09-20", passe, p12, result)
	require.NoError(t, err)
	assert.True(t, outcome.Won)
	assert.Equal(t, []int{1, 2}, outcome.Positions)

	outcome, err = Match("20-09", passe, p12, result)
	require.NoError(t, err)
	assert.False(t, outcome.Won, "passe is order sensitive")

	outcome, err = Match("34-78", palpitao, p12, result)
	require.NoError(t, err)
	assert.True(t, outcome.Won)

	outcome, err = Match("34-42", palpitao, p12, result)
	require.NoError(t, err)
	assert.False(t, outcome.Won)
}

func TestMatch_InvalidGuesses(t *testing.T) {
	t.Parallel()

	result := drawWith("1234")

	tests := []struct {
		name    string
		betType string
		guess   string
	}{
		{name: "milhar with three digits", betType: "milhar", guess: "123"},
		{name: "milhar with letters", betType: "milhar", guess: "12a4"},
		{name: "group out of range", betType: "grupo", guess: "26"},
		{name: "group zero", betType: "grupo", guess: "00"},
		{name: "duque with one pick", betType: "duque_grupo", guess: "09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Match(tt.guess, mustBetType(t, tt.betType), mustPlacement(t, "1"), result)
			var digitsErr *entities.InvalidDigitsError
			assert.ErrorAs(t, err, &digitsErr)
		})
	}
}

func TestMatch_UnknownCategory(t *testing.T) {
	t.Parallel()

	betType := &entities.BetType{Code: "x", Category: "mystery", Unit: entities.MatchUnitDigits, Digits: 4, Picks: 1, BaseMultiplier: 1}
	_, err := Match("1234", betType, mustPlacement(t, "1"), drawWith("1234"))
	var cfgErr *entities.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMatchAt_RejectsMalformedDrawNumber(t *testing.T) {
	t.Parallel()

	_, err := MatchAt("34", entities.MatchUnitDigits, "234")
	var digitsErr *entities.InvalidDigitsError
	assert.ErrorAs(t, err, &digitsErr)
}
