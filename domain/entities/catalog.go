package entities

import "sort"

// Catalog is an immutable snapshot of bet types, placements and draw schedules
// taken once per settlement run. Entries failing validation are kept aside so
// lookups for them report the original ConfigurationError while the rest of
// the catalog stays usable.
type Catalog struct {
	betTypes   map[string]*BetType
	placements map[string]*Placement
	schedules  map[string]*DrawSchedule
	rejected   map[string]error
}

// NewCatalog validates and indexes catalog rows by code
func NewCatalog(betTypes []*BetType, placements []*Placement, schedules []*DrawSchedule) *Catalog {
	c := &Catalog{
		betTypes:   make(map[string]*BetType, len(betTypes)),
		placements: make(map[string]*Placement, len(placements)),
		schedules:  make(map[string]*DrawSchedule, len(schedules)),
		rejected:   make(map[string]error),
	}
	for _, b := range betTypes {
		if err := b.Validate(); err != nil {
			c.rejected[betTypeKey(b.Code)] = err
			continue
		}
		c.betTypes[b.Code] = b
	}
	for _, p := range placements {
		if err := p.Validate(); err != nil {
			c.rejected[placementKey(p.Code)] = err
			continue
		}
		c.placements[p.Code] = p
	}
	for _, s := range schedules {
		c.schedules[scheduleKey(s.Source, s.TimeSlot)] = s
	}
	return c
}

// DefaultCatalog builds a catalog from the shipped defaults
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultBetTypes(), DefaultPlacements(), DefaultDrawSchedules())
}

func betTypeKey(code string) string   { return "bet_type:" + code }
func placementKey(code string) string { return "placement:" + code }

func scheduleKey(source, timeSlot string) string {
	return source + "|" + timeSlot
}

// BetType looks up a bet type by code
func (c *Catalog) BetType(code string) (*BetType, error) {
	if err, ok := c.rejected[betTypeKey(code)]; ok {
		return nil, err
	}
	b, ok := c.betTypes[code]
	if !ok {
		return nil, &ConfigurationError{BetType: code, Reason: "unknown bet type"}
	}
	return b, nil
}

// Placement looks up a placement by code
func (c *Catalog) Placement(code string) (*Placement, error) {
	if err, ok := c.rejected[placementKey(code)]; ok {
		return nil, err
	}
	p, ok := c.placements[code]
	if !ok {
		return nil, &ConfigurationError{Placement: code, Reason: "unknown placement"}
	}
	return p, nil
}

// Schedule looks up the draw schedule for a (source, time-slot)
func (c *Catalog) Schedule(source, timeSlot string) (*DrawSchedule, error) {
	s, ok := c.schedules[scheduleKey(source, timeSlot)]
	if !ok {
		return nil, &ConfigurationError{Source: source, TimeSlot: timeSlot, Reason: "no draw schedule"}
	}
	return s, nil
}

// CheckScheduled returns a ConfigurationError for the first slot without a draw
// schedule. A wager targeting such a slot could never collect all its results.
func (c *Catalog) CheckScheduled(refs []SlotKey) error {
	for _, ref := range refs {
		if _, err := c.Schedule(ref.Source, ref.TimeSlot); err != nil {
			return err
		}
	}
	return nil
}

// Schedules returns every draw schedule ordered by draw time
func (c *Catalog) Schedules() []*DrawSchedule {
	out := make([]*DrawSchedule, 0, len(c.schedules))
	for _, s := range c.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DrawTime != out[j].DrawTime {
			return out[i].DrawTime < out[j].DrawTime
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Problems lists the validation errors of rejected entries
func (c *Catalog) Problems() []error {
	keys := make([]string, 0, len(c.rejected))
	for k := range c.rejected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]error, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.rejected[k])
	}
	return out
}
