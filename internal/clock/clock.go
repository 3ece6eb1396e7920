package clock

import (
	"fmt"
	"time"
)

// DefaultZone is the civil zone stamped on persisted instants when the config
// does not override it. The reference deployment runs on GMT+3.
const DefaultZone = "Asia/Riyadh"

const defaultOffsetSeconds = 3 * 60 * 60

// Zoned is the production clock: wall time pinned to one fixed location.
type Zoned struct {
	loc *time.Location
}

// New resolves the named zone, falling back to a fixed +03:00 offset when the
// tz database is unavailable on the host.
func New(zone string) (*Zoned, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		if zone == DefaultZone {
			return &Zoned{loc: time.FixedZone("+03", defaultOffsetSeconds)}, nil
		}
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Zoned{loc: loc}, nil
}

func (c *Zoned) Now() time.Time {
	return time.Now().In(c.loc)
}

// Manual is a test clock whose time only moves when told to.
type Manual struct {
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() time.Time {
	return c.now
}

func (c *Manual) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *Manual) Set(t time.Time) {
	c.now = t
}
