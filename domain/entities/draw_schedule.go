package entities

import (
	"fmt"
	"time"
)

// DrawSchedule maps a (source, time-slot) to the clock time its draw happens
type DrawSchedule struct {
	Source   string `db:"source"`
	TimeSlot string `db:"time_slot"`
	DrawTime string `db:"draw_time"` // "HH:MM" in the operator's timezone
}

// Clock parses DrawTime into hour and minute
func (s *DrawSchedule) Clock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", s.DrawTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid draw time %q for %s/%s: %w", s.DrawTime, s.Source, s.TimeSlot, err)
	}
	return t.Hour(), t.Minute(), nil
}

// At returns the draw instant on the given play date
func (s *DrawSchedule) At(date time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, err := s.Clock()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), nil
}

// DefaultDrawSchedules is the schedule seeded on a fresh database
func DefaultDrawSchedules() []*DrawSchedule {
	return []*DrawSchedule{
		{Source: "RJ", TimeSlot: "PTM", DrawTime: "11:20"},
		{Source: "RJ", TimeSlot: "PT", DrawTime: "14:20"},
		{Source: "RJ", TimeSlot: "PTV", DrawTime: "16:20"},
		{Source: "RJ", TimeSlot: "PTN", DrawTime: "18:20"},
		{Source: "RJ", TimeSlot: "COR", DrawTime: "21:20"},
		{Source: "FEDERAL", TimeSlot: "FED", DrawTime: "19:00"},
	}
}
