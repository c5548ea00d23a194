package models

// WorkshopEvent is the static configuration of one workshop run.
// Dates are YYYY-MM-DD; DeadlineTime is HH:MM in the configured local timezone.
type WorkshopEvent struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Level        string `json:"level" yaml:"level"`
	MaxCapacity  int    `json:"max_capacity" yaml:"max_capacity"`
	StartDate    string `json:"start_date" yaml:"start_date"`
	EndDate      string `json:"end_date" yaml:"end_date"`
	Deadline     string `json:"registration_deadline,omitempty" yaml:"registration_deadline"`
	DeadlineTime string `json:"registration_deadline_time,omitempty" yaml:"registration_deadline_time"`
}

// HasDeadline reports whether registration closes at a configured date.
func (e WorkshopEvent) HasDeadline() bool {
	return e.Deadline != ""
}
