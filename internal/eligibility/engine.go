// Package eligibility decides whether registration for a workshop event is
// currently open. It performs no I/O: results depend only on the event catalog
// and the injected clock.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/models"
)

const (
	ReasonNotFound       = "event not found"
	ReasonDeadlinePassed = "deadline passed"
	ReasonOpen           = "registration is open"

	defaultDeadlineTime = "23:59"
)

// Status is the result of an eligibility check. Event is the catalog entry
// that was checked, nil when the id is unknown.
type Status struct {
	IsOpen   bool                  `json:"is_open"`
	Reason   string                `json:"reason"`
	Deadline *time.Time            `json:"deadline"`
	Event    *models.WorkshopEvent `json:"-"`
}

// Remaining is a calendar-agnostic countdown to a deadline.
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Expired bool `json:"expired"`
}

// Engine evaluates event deadlines against a clock.
type Engine struct {
	catalog *events.Catalog
	loc     *time.Location
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone deadlines are interpreted in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an eligibility engine over catalog.
func NewEngine(catalog *events.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckStatus reports whether eventID currently accepts registrations.
// The deadline instant itself is still open; anything after it is closed.
func (e *Engine) CheckStatus(eventID string) Status {
	ev, ok := e.catalog.Get(eventID)
	if !ok {
		return Status{IsOpen: false, Reason: ReasonNotFound}
	}
	if !ev.HasDeadline() {
		return Status{IsOpen: true, Reason: ReasonOpen, Event: &ev}
	}
	deadline, err := ParseDeadline(ev.Deadline, ev.DeadlineTime, e.loc)
	if err != nil {
		// catalog validation already checked the shape, so this is a bad calendar date
		return Status{IsOpen: false, Reason: err.Error(), Event: &ev}
	}
	if e.now().After(deadline) {
		return Status{IsOpen: false, Reason: ReasonDeadlinePassed, Deadline: &deadline, Event: &ev}
	}
	return Status{IsOpen: true, Reason: ReasonOpen, Deadline: &deadline, Event: &ev}
}

// TimeRemaining decomposes deadline-now into whole days, hours, minutes and seconds.
func (e *Engine) TimeRemaining(deadline time.Time) Remaining {
	diff := deadline.Sub(e.now())
	if diff <= 0 {
		return Remaining{Expired: true}
	}
	total := int(diff / time.Second)
	return Remaining{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// ParseDeadline builds the closing instant from a YYYY-MM-DD date and optional
// HH:MM time. The instant is the last millisecond of that minute in loc.
func ParseDeadline(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline date %q", date)
	}
	if clock == "" {
		clock = defaultDeadlineTime
	}
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid deadline time %q", clock)
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid deadline time %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 59, 999*int(time.Millisecond), loc), nil
}

// FormatDeadline renders a deadline for display, e.g. "November 11, 2025 at 11:59 PM".
func FormatDeadline(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

// FormatCountdown renders r as DD:HH:MM:SS.
func FormatCountdown(r Remaining) string {
	if r.Expired {
		return "00:00:00:00"
	}
	return fmt.Sprintf("%02d:%02d:%02d:%02d", r.Days, r.Hours, r.Minutes, r.Seconds)
}
