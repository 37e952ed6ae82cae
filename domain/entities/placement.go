package entities

import (
	"fmt"
	"time"
)

// PlacementShape is the closed set of position layouts a placement can have
type PlacementShape string

const (
	// ShapeSingle targets exactly one drawn position
	ShapeSingle PlacementShape = "single"
	// ShapeAnyOf targets several positions; a simple guess wins at any of them,
	// a composite guess draws its distinct positions from this pool
	ShapeAnyOf PlacementShape = "any_of"
)

// Placement is a catalog entry ("colocação")
type Placement struct {
	Code      string    `db:"code"`
	Label     string    `db:"label"`
	Positions []int     `db:"positions"` // 1-based drawn positions, in declared order
	Factor    int64     `db:"factor"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Shape derives the placement shape from its positions
func (p *Placement) Shape() PlacementShape {
	if len(p.Positions) == 1 {
		return ShapeSingle
	}
	return ShapeAnyOf
}

// Validate checks catalog invariants
func (p *Placement) Validate() error {
	if p.Factor <= 0 {
		return &ConfigurationError{Placement: p.Code, Reason: "factor must be at least 1"}
	}
	if len(p.Positions) == 0 {
		return &ConfigurationError{Placement: p.Code, Reason: "placement targets no position"}
	}
	seen := make(map[int]bool, len(p.Positions))
	for _, pos := range p.Positions {
		if pos < 1 {
			return &ConfigurationError{Placement: p.Code, Reason: fmt.Sprintf("invalid position %d", pos)}
		}
		if seen[pos] {
			return &ConfigurationError{Placement: p.Code, Reason: fmt.Sprintf("position %d listed twice", pos)}
		}
		seen[pos] = true
	}
	return nil
}

func positionsRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// DefaultPlacements is the catalog seeded on a fresh database
func DefaultPlacements() []*Placement {
	return []*Placement{
		{Code: "1", Label: "1º prêmio", Positions: []int{1}, Factor: 1},
		{Code: "1/3", Label: "1º ao 3º prêmio", Positions: positionsRange(1, 3), Factor: 3},
		{Code: "1/5", Label: "1º ao 5º prêmio", Positions: positionsRange(1, 5), Factor: 5},
		{Code: "1/7", Label: "1º ao 7º prêmio", Positions: positionsRange(1, 7), Factor: 7},
		{Code: "1e5", Label: "1º e 5º prêmio", Positions: []int{1, 5}, Factor: 2},
		{Code: "c1/5", Label: "Combinado 1º ao 5º", Positions: positionsRange(1, 5), Factor: 1},
		{Code: "c1/7", Label: "Combinado 1º ao 7º", Positions: positionsRange(1, 7), Factor: 1},
		{Code: "p1/2", Label: "Passe 1º e 2º", Positions: []int{1, 2}, Factor: 1},
	}
}
