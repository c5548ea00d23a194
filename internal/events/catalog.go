// Package events holds the workshop event catalog loaded once at startup.
package events

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/aura-webinar/workshops/internal/models"
)

// DefaultEventID is the event served when no catalog file is configured.
const DefaultEventID = "youthai-explorer-2025-nov"

var (
	ErrEmptyCatalog = errors.New("event catalog is empty")
	ErrInvalidEvent = errors.New("invalid workshop event")

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// Catalog maps event identifiers to their immutable configuration.
type Catalog struct {
	events map[string]models.WorkshopEvent
}

type catalogFile struct {
	Events []models.WorkshopEvent `yaml:"events"`
}

// NewCatalog validates events and indexes them by ID.
func NewCatalog(list ...models.WorkshopEvent) (*Catalog, error) {
	if len(list) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{events: make(map[string]models.WorkshopEvent, len(list))}
	for _, ev := range list {
		if err := validate(ev); err != nil {
			return nil, err
		}
		if _, dup := c.events[ev.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidEvent, ev.ID)
		}
		c.events[ev.ID] = ev
	}
	return c, nil
}

// Default returns the built-in catalog with the November 2025 Explorer workshop.
func Default() *Catalog {
	c, _ := NewCatalog(models.WorkshopEvent{
		ID:           DefaultEventID,
		Name:         "YouthAI Explorer Level - November 2025",
		Level:        "Explorer Level",
		MaxCapacity:  12,
		StartDate:    "2025-11-15",
		EndDate:      "2025-12-20",
		Deadline:     "2025-11-11",
		DeadlineTime: "23:59",
	})
	return c
}

// Load reads a YAML catalog file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode event catalog: %w", err)
	}
	return NewCatalog(f.Events...)
}

// Get returns the event with the given ID.
func (c *Catalog) Get(id string) (models.WorkshopEvent, bool) {
	ev, ok := c.events[id]
	return ev, ok
}

// Len returns the number of configured events.
func (c *Catalog) Len() int { return len(c.events) }

func validate(ev models.WorkshopEvent) error {
	switch {
	case ev.ID == "":
		return fmt.Errorf("%w: id required", ErrInvalidEvent)
	case ev.MaxCapacity <= 0:
		return fmt.Errorf("%w: %s: max_capacity must be positive", ErrInvalidEvent, ev.ID)
	case ev.StartDate != "" && !datePattern.MatchString(ev.StartDate):
		return fmt.Errorf("%w: %s: start_date must be YYYY-MM-DD", ErrInvalidEvent, ev.ID)
	case ev.EndDate != "" && !datePattern.MatchString(ev.EndDate):
		return fmt.Errorf("%w: %s: end_date must be YYYY-MM-DD", ErrInvalidEvent, ev.ID)
	case ev.Deadline != "" && !datePattern.MatchString(ev.Deadline):
		return fmt.Errorf("%w: %s: registration_deadline must be YYYY-MM-DD", ErrInvalidEvent, ev.ID)
	case ev.DeadlineTime != "" && !timePattern.MatchString(ev.DeadlineTime):
		return fmt.Errorf("%w: %s: registration_deadline_time must be HH:MM", ErrInvalidEvent, ev.ID)
	case ev.DeadlineTime != "" && ev.Deadline == "":
		return fmt.Errorf("%w: %s: deadline time without deadline date", ErrInvalidEvent, ev.ID)
	}
	return nil
}
