package entities

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical play/draw date format
const DateLayout = "2006-01-02"

// SlotKey identifies one draw: the unit the settlement job works on
type SlotKey struct {
	Date     time.Time `json:"-"`
	Source   string    `json:"source"`
	TimeSlot string    `json:"time_slot"`
}

// NewSlotKey parses a date string and builds a slot key
func NewSlotKey(date, source, timeSlot string) (SlotKey, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return SlotKey{}, fmt.Errorf("invalid draw date %q: %w", date, err)
	}
	if source == "" || timeSlot == "" {
		return SlotKey{}, fmt.Errorf("source and time slot are required")
	}
	return SlotKey{Date: d, Source: source, TimeSlot: timeSlot}, nil
}

// DateString returns the draw date in DateLayout
func (k SlotKey) DateString() string {
	return k.Date.Format(DateLayout)
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.DateString(), k.Source, k.TimeSlot)
}

// DrawResult is a published, immutable draw: one four-digit number per position
type DrawResult struct {
	ID          int64     `db:"id"`
	DrawDate    time.Time `db:"draw_date"`
	Source      string    `db:"source"`
	TimeSlot    string    `db:"time_slot"`
	Numbers     []string  `db:"numbers"` // Numbers[0] is the 1st prize
	PublishedAt time.Time `db:"published_at"`
}

// NumberAt returns the winning number at a 1-based position
func (r *DrawResult) NumberAt(position int) (string, bool) {
	if position < 1 || position > len(r.Numbers) {
		return "", false
	}
	return r.Numbers[position-1], true
}

// Key returns the slot this result belongs to
func (r *DrawResult) Key() SlotKey {
	return SlotKey{Date: r.DrawDate, Source: r.Source, TimeSlot: r.TimeSlot}
}

// MinDrawPositions is the fewest prizes a published draw carries
const MinDrawPositions = 5

// Validate checks the draw has at least MinDrawPositions four-digit numbers
func (r *DrawResult) Validate() error {
	if len(r.Numbers) < MinDrawPositions {
		return &InvalidDigitsError{
			Value:  strings.Join(r.Numbers, ","),
			Reason: fmt.Sprintf("draw result %d has %d positions, want at least %d", r.ID, len(r.Numbers), MinDrawPositions),
		}
	}
	for i, n := range r.Numbers {
		if len(n) != 4 || !isDigits(n) {
			return &InvalidDigitsError{Value: n, Reason: fmt.Sprintf("position %d is not a four-digit number", i+1)}
		}
	}
	return nil
}
