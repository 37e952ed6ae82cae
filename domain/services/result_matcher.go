package services

import (
	"fmt"

	"bicho/domain/entities"
)

// MatchOutcome describes whether a guess won against a draw and where
type MatchOutcome struct {
	Won            bool
	Position       int    // first winning position
	WinningNumber  string // drawn number at Position
	Positions      []int  // every position used; one per sub-guess for composite types
	WinningNumbers []string
}

// MatchAt applies the extraction rule of a single sub-guess to one drawn number.
// Digit units compare the last len(pick) digits; group units compare the animal
// group of the last two digits.
func MatchAt(pick string, unit entities.MatchUnit, number string) (bool, error) {
	if len(number) != 4 {
		return false, &entities.InvalidDigitsError{Value: number, Reason: "drawn numbers have four digits"}
	}
	switch unit {
	case entities.MatchUnitDigits:
		if len(pick) < 1 || len(pick) > 4 {
			return false, &entities.InvalidDigitsError{Value: pick, Reason: "digit picks have 1 to 4 digits"}
		}
		return number[len(number)-len(pick):] == pick, nil
	case entities.MatchUnitGroup:
		want, err := entities.ParseGroup(pick)
		if err != nil {
			return false, err
		}
		got, err := entities.GroupOfNumber(number)
		if err != nil {
			return false, err
		}
		return want == got, nil
	default:
		return false, &entities.ConfigurationError{Reason: fmt.Sprintf("unknown match unit %q", unit)}
	}
}

// Match evaluates one stored guess of a wager against a draw result at the positions
// of its placement
func Match(guess string, betType *entities.BetType, placement *entities.Placement, result *entities.DrawResult) (MatchOutcome, error) {
	picks, err := betType.SplitGuess(guess)
	if err != nil {
		return MatchOutcome{}, err
	}

	switch betType.Category {
	case entities.CategoryDigits, entities.CategoryGroup:
		return matchAnyPosition(picks[0], betType.Unit, placement.Positions, result)
	case entities.CategoryCombination:
		return matchCombination(picks, betType.Unit, placement.Positions, result)
	case entities.CategoryOrdered:
		return matchOrdered(picks, betType.Unit, placement.Positions, result)
	default:
		return MatchOutcome{}, &entities.ConfigurationError{BetType: betType.Code, Reason: fmt.Sprintf("unknown category %q", betType.Category)}
	}
}

// matchAnyPosition checks each targeted position independently; the first hit wins
func matchAnyPosition(pick string, unit entities.MatchUnit, positions []int, result *entities.DrawResult) (MatchOutcome, error) {
	for _, pos := range positions {
		number, ok := result.NumberAt(pos)
		if !ok {
			continue
		}
		won, err := MatchAt(pick, unit, number)
		if err != nil {
			return MatchOutcome{}, err
		}
		if won {
			return newOutcome([]int{pos}, []string{number}), nil
		}
	}
	return MatchOutcome{}, nil
}

// matchCombination needs every pick to match at a distinct position of the pool.
// A pool with fewer drawn positions than picks cannot win.
func matchCombination(picks []string, unit entities.MatchUnit, positions []int, result *entities.DrawResult) (MatchOutcome, error) {
	pool := make([]int, 0, len(positions))
	for _, pos := range positions {
		if _, ok := result.NumberAt(pos); ok {
			pool = append(pool, pos)
		}
	}
	if len(pool) < len(picks) {
		return MatchOutcome{}, nil
	}

	// hits[i][j]: pick i matches pool position j
	hits := make([][]bool, len(picks))
	for i, pick := range picks {
		hits[i] = make([]bool, len(pool))
		for j, pos := range pool {
			number, _ := result.NumberAt(pos)
			won, err := MatchAt(pick, unit, number)
			if err != nil {
				return MatchOutcome{}, err
			}
			hits[i][j] = won
		}
	}

	used := make([]bool, len(pool))
	assigned := make([]int, len(picks))
	var assign func(i int) bool
	assign = func(i int) bool {
		if i == len(picks) {
			return true
		}
		for j := range pool {
			if used[j] || !hits[i][j] {
				continue
			}
			used[j] = true
			assigned[i] = pool[j]
			if assign(i + 1) {
				return true
			}
			used[j] = false
		}
		return false
	}
	if !assign(0) {
		return MatchOutcome{}, nil
	}

	numbers := make([]string, len(assigned))
	for i, pos := range assigned {
		numbers[i], _ = result.NumberAt(pos)
	}
	return newOutcome(assigned, numbers), nil
}

// matchOrdered needs pick i to match at the i-th declared position
func matchOrdered(picks []string, unit entities.MatchUnit, positions []int, result *entities.DrawResult) (MatchOutcome, error) {
	if len(positions) < len(picks) {
		return MatchOutcome{}, nil
	}
	numbers := make([]string, len(picks))
	for i, pick := range picks {
		number, ok := result.NumberAt(positions[i])
		if !ok {
			return MatchOutcome{}, nil
		}
		won, err := MatchAt(pick, unit, number)
		if err != nil {
			return MatchOutcome{}, err
		}
		if !won {
			return MatchOutcome{}, nil
		}
		numbers[i] = number
	}
	return newOutcome(append([]int(nil), positions[:len(picks)]...), numbers), nil
}

func newOutcome(positions []int, numbers []string) MatchOutcome {
	return MatchOutcome{
		Won:            true,
		Position:       positions[0],
		WinningNumber:  numbers[0],
		Positions:      positions,
		WinningNumbers: numbers,
	}
}
