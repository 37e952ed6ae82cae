package entities

import (
	"fmt"
	"strings"
	"time"
)

// BetCategory is the closed set of matching strategies a bet type can use
type BetCategory string

const (
	// CategoryDigits matches the last N digits of a single drawn number (milhar, centena, dezena, unidade)
	CategoryDigits BetCategory = "digits"
	// CategoryGroup matches the animal group derived from the last two digits (grupo)
	CategoryGroup BetCategory = "group"
	// CategoryCombination needs every sub-guess to match at a distinct position (duque, terno, quadra, quina, sena)
	CategoryCombination BetCategory = "combination"
	// CategoryOrdered needs sub-guess i to match at the i-th targeted position (passe, palpitão)
	CategoryOrdered BetCategory = "ordered"
)

// MatchUnit is how a single sub-guess is compared against a drawn number
type MatchUnit string

const (
	MatchUnitDigits MatchUnit = "digits"
	MatchUnitGroup  MatchUnit = "group"
)

// BetType is a catalog entry ("modalidade")
type BetType struct {
	Code           string      `db:"code"`
	Name           string      `db:"name"`
	Category       BetCategory `db:"category"`
	Unit           MatchUnit   `db:"unit"`
	Digits         int         `db:"digits"` // digits per sub-guess; 2 for group units
	Picks          int         `db:"picks"`  // sub-guesses per guess; 1 for simple types
	BaseMultiplier int64       `db:"base_multiplier"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// IsComposite returns true if a guess of this type carries several sub-guesses
func (b *BetType) IsComposite() bool {
	return b.Category == CategoryCombination || b.Category == CategoryOrdered
}

// Validate checks catalog invariants
func (b *BetType) Validate() error {
	fail := func(reason string) error {
		return &ConfigurationError{BetType: b.Code, Reason: reason}
	}
	if b.BaseMultiplier <= 0 {
		return fail("base multiplier must be positive")
	}
	switch b.Category {
	case CategoryDigits:
		if b.Unit != MatchUnitDigits || b.Picks != 1 {
			return fail("digits bet types match one digit sequence")
		}
	case CategoryGroup:
		if b.Unit != MatchUnitGroup || b.Picks != 1 {
			return fail("group bet types match one group")
		}
	case CategoryCombination, CategoryOrdered:
		if b.Picks < 2 {
			return fail("composite bet types need at least two picks")
		}
		if b.Unit != MatchUnitDigits && b.Unit != MatchUnitGroup {
			return fail(fmt.Sprintf("unknown match unit %q", b.Unit))
		}
	default:
		return fail(fmt.Sprintf("unknown category %q", b.Category))
	}
	if b.Digits < 1 || b.Digits > 4 {
		return fail("digit length must be within 1..4")
	}
	if b.Unit == MatchUnitGroup && b.Digits != 2 {
		return fail("group guesses are two-digit codes")
	}
	return nil
}

// SplitGuess breaks a stored guess into its sub-guesses and checks each one's shape.
// Leading zeros are significant: "0042" is a valid milhar guess distinct from "42".
func (b *BetType) SplitGuess(guess string) ([]string, error) {
	parts := []string{strings.TrimSpace(guess)}
	if b.IsComposite() {
		parts = strings.FieldsFunc(guess, func(r rune) bool {
			return r == '-' || r == ',' || r == '/' || r == ' '
		})
	}
	if len(parts) != b.Picks {
		return nil, &InvalidDigitsError{Value: guess, Reason: fmt.Sprintf("expected %d sub-guesses, got %d", b.Picks, len(parts))}
	}
	for _, p := range parts {
		if len(p) != b.Digits || !isDigits(p) {
			return nil, &InvalidDigitsError{Value: guess, Reason: fmt.Sprintf("each pick must be exactly %d digits", b.Digits)}
		}
		if b.Unit == MatchUnitGroup {
			if _, err := ParseGroup(p); err != nil {
				return nil, err
			}
		}
	}
	return parts, nil
}

// DefaultBetTypes is the catalog seeded on a fresh database
func DefaultBetTypes() []*BetType {
	return []*BetType{
		{Code: "milhar", Name: "Milhar", Category: CategoryDigits, Unit: MatchUnitDigits, Digits: 4, Picks: 1, BaseMultiplier: 4000},
		{Code: "centena", Name: "Centena", Category: CategoryDigits, Unit: MatchUnitDigits, Digits: 3, Picks: 1, BaseMultiplier: 600},
		{Code: "dezena", Name: "Dezena", Category: CategoryDigits, Unit: MatchUnitDigits, Digits: 2, Picks: 1, BaseMultiplier: 60},
		{Code: "unidade", Name: "Unidade", Category: CategoryDigits, Unit: MatchUnitDigits, Digits: 1, Picks: 1, BaseMultiplier: 8},
		{Code: "grupo", Name: "Grupo", Category: CategoryGroup, Unit: MatchUnitGroup, Digits: 2, Picks: 1, BaseMultiplier: 18},
		{Code: "duque_grupo", Name: "Duque de Grupo", Category: CategoryCombination, Unit: MatchUnitGroup, Digits: 2, Picks: 2, BaseMultiplier: 16},
		{Code: "terno_grupo", Name: "Terno de Grupo", Category: CategoryCombination, Unit: MatchUnitGroup, Digits: 2, Picks: 3, BaseMultiplier: 150},
		{Code: "quadra_grupo", Name: "Quadra de Grupo", Category: CategoryCombination, Unit: MatchUnitGroup, Digits: 2, Picks: 4, BaseMultiplier: 1000},
		{Code: "quina_grupo", Name: "Quina de Grupo", Category: CategoryCombination, Unit: MatchUnitGroup, Digits: 2, Picks: 5, BaseMultiplier: 5000},
		{Code: "sena_grupo", Name: "Sena de Grupo", Category: CategoryCombination, Unit: MatchUnitGroup, Digits: 2, Picks: 6, BaseMultiplier: 10000},
		{Code: "duque_dezena", Name: "Duque de Dezena", Category: CategoryCombination, Unit: MatchUnitDigits, Digits: 2, Picks: 2, BaseMultiplier: 300},
		{Code: "terno_dezena", Name: "Terno de Dezena", Category: CategoryCombination, Unit: MatchUnitDigits, Digits: 2, Picks: 3, BaseMultiplier: 5000},
		{Code: "passe", Name: "Passe Vai", Category: CategoryOrdered, Unit: MatchUnitGroup, Digits: 2, Picks: 2, BaseMultiplier: 90},
		{Code: "palpitao", Name: "Palpitão", Category: CategoryOrdered, Unit: MatchUnitDigits, Digits: 2, Picks: 2, BaseMultiplier: 800},
	}
}
