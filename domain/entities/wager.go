package entities

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// WagerState represents the lifecycle state of a wager
type WagerState string

const (
	WagerStatePending   WagerState = "pending"
	WagerStateWon       WagerState = "won"
	WagerStateLost      WagerState = "lost"
	WagerStateCancelled WagerState = "cancelled"
)

// IsTerminal returns true for won, lost and cancelled
func (s WagerState) IsTerminal() bool {
	return s == WagerStateWon || s == WagerStateLost || s == WagerStateCancelled
}

var validate = validator.New()

// Wager ("aposta") as handed over by bet placement. After creation only the
// settlement job and the cancellation guard write State, Prize and ResolvedAt.
type Wager struct {
	ID                 int64      `db:"id"`
	OwnerID            int64      `db:"owner_id" validate:"gt=0"`
	BetTypeCode        string     `db:"bet_type_code" validate:"required"`
	PlacementCode      string     `db:"placement_code" validate:"required"`
	Guesses            []string   `db:"guesses" validate:"min=1,dive,required"`
	TimeSlots          []string   `db:"time_slots" validate:"min=1,unique,dive,required"`
	Sources            []string   `db:"sources" validate:"min=1,unique,dive,required"`
	PlayDate           time.Time  `db:"play_date" validate:"required"`
	UnitStake          Cents      `db:"unit_stake" validate:"gt=0"`
	DeclaredMultiplier int64      `db:"declared_multiplier" validate:"gt=0"`
	TotalStake         Cents      `db:"total_stake" validate:"gt=0"`
	State              WagerState `db:"state" validate:"oneof=pending won lost cancelled"`
	Prize              *Cents     `db:"prize"`
	CreatedAt          time.Time  `db:"created_at"`
	ResolvedAt         *time.Time `db:"resolved_at"`
}

// CalculateTotalStake computes unit stake × guess count × max(1, source count)
func CalculateTotalStake(unitStake Cents, guessCount, sourceCount int) Cents {
	if sourceCount < 1 {
		sourceCount = 1
	}
	return unitStake.Mul(int64(guessCount) * int64(sourceCount))
}

// Validate checks the wager's shape. Bet placement already validated it; the engine
// only re-checks what it relies on.
func (w *Wager) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid wager %d: %w", w.ID, err)
	}
	if expected := CalculateTotalStake(w.UnitStake, len(w.Guesses), len(w.Sources)); w.TotalStake != expected {
		return fmt.Errorf("invalid wager %d: total stake %s does not match %s", w.ID, w.TotalStake, expected)
	}
	return nil
}

// IsPending returns true if the wager can still be settled or cancelled
func (w *Wager) IsPending() bool {
	return w.State == WagerStatePending
}

// SlotRefs lists every draw slot the wager targets
func (w *Wager) SlotRefs() []SlotKey {
	refs := make([]SlotKey, 0, len(w.Sources)*len(w.TimeSlots))
	for _, source := range w.Sources {
		for _, slot := range w.TimeSlots {
			refs = append(refs, SlotKey{Date: w.PlayDate, Source: source, TimeSlot: slot})
		}
	}
	return refs
}

// TargetsSlot returns true if the wager references the given slot
func (w *Wager) TargetsSlot(key SlotKey) bool {
	if w.PlayDate.Format(DateLayout) != key.DateString() {
		return false
	}
	for _, ref := range w.SlotRefs() {
		if ref.Source == key.Source && ref.TimeSlot == key.TimeSlot {
			return true
		}
	}
	return false
}

// Resolve writes the terminal settlement outcome onto the wager
func (w *Wager) Resolve(prize Cents, at time.Time) {
	w.Prize = &prize
	w.ResolvedAt = &at
	if prize > 0 {
		w.State = WagerStateWon
	} else {
		w.State = WagerStateLost
	}
}

// Cancel marks the wager as cancelled
func (w *Wager) Cancel(at time.Time) {
	w.State = WagerStateCancelled
	w.ResolvedAt = &at
}
