package entities

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupOf_TotalOverEndings(t *testing.T) {
	t.Parallel()

	counts := make(map[int]int)
	for ending := 0; ending <= 99; ending++ {
		group, err := GroupOf(ending)
		require.NoError(t, err, "ending %02d", ending)
		assert.GreaterOrEqual(t, group, 1)
		assert.LessOrEqual(t, group, GroupCount)
		counts[group]++
	}

	assert.Len(t, counts, GroupCount)
	for group, n := range counts {
		assert.Equal(t, 4, n, "group %d", group)
	}
}

func TestGroupOf_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ending int
		want   int
	}{
		{ending: 0, want: 25},
		{ending: 1, want: 1},
		{ending: 4, want: 1},
		{ending: 5, want: 2},
		{ending: 34, want: 9},
		{ending: 96, want: 24},
		{ending: 97, want: 25},
		{ending: 98, want: 25},
		{ending: 99, want: 25},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02d", tt.ending), func(t *testing.T) {
			t.Parallel()

			got, err := GroupOf(tt.ending)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupOf_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, ending := range []int{-1, 100} {
		_, err := GroupOf(ending)
		var digitsErr *InvalidDigitsError
		assert.ErrorAs(t, err, &digitsErr)
	}
}

func TestGroupOfNumber(t *testing.T) {
	t.Parallel()

	group, err := GroupOfNumber("4500")
	require.NoError(t, err)
	assert.Equal(t, 25, group)

	group, err = GroupOfNumber("0001")
	require.NoError(t, err)
	assert.Equal(t, 1, group)

	_, err = GroupOfNumber("7")
	assert.Error(t, err)

	_, err = GroupOfNumber("12a4")
	assert.Error(t, err)
}

func TestGroupEndings_AgreeWithGroupOf(t *testing.T) {
	t.Parallel()

	for group := 1; group <= GroupCount; group++ {
		endings, err := GroupEndings(group)
		require.NoError(t, err)
		require.Len(t, endings, 4)
		for _, e := range endings {
			got, err := GroupOfNumber("00" + e)
			require.NoError(t, err)
			assert.Equal(t, group, got, "ending %s", e)
		}
	}

	endings, _ := GroupEndings(25)
	assert.Equal(t, []string{"97", "98", "99", "00"}, endings)
	assert.Equal(t, "Vaca", AnimalName(25))
	assert.Equal(t, "", AnimalName(26))
}

func TestParseGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		guess   string
		want    int
		wantErr bool
	}{
		{guess: "01", want: 1},
		{guess: "25", want: 25},
		{guess: "00", wantErr: true},
		{guess: "26", wantErr: true},
		{guess: "", wantErr: true},
		{guess: "x1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.guess, func(t *testing.T) {
			t.Parallel()

			got, err := ParseGroup(tt.guess)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
