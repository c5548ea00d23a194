package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the admission outcome stored with a registration.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusWaitlisted RegistrationStatus = "waitlisted"
)

// Grade is the student's grade bracket as submitted by the form.
type Grade string

const (
	Grade9OrBelow  Grade = "9_or_below"
	Grade10        Grade = "10"
	Grade11        Grade = "11"
	Grade12OrAbove Grade = "12_or_above"
)

// Grades lists the accepted grade values in display order.
var Grades = []Grade{Grade9OrBelow, Grade10, Grade11, Grade12OrAbove}

// Valid reports whether g is one of the accepted grade values.
func (g Grade) Valid() bool {
	for _, v := range Grades {
		if g == v {
			return true
		}
	}
	return false
}

// Registration is one student's application to a workshop event.
// Student and parent emails must differ (case-insensitive); records are never
// updated after insert.
type Registration struct {
	ID                uuid.UUID          `json:"id"`
	StudentName       string             `json:"student_name"`
	StudentEmail      string             `json:"student_email"`
	StudentGrade      Grade              `json:"student_grade"`
	StudentExperience string             `json:"student_experience,omitempty"`
	ParentName        string             `json:"parent_name"`
	ParentEmail       string             `json:"parent_email"`
	ParentPhone       string             `json:"parent_phone"`
	WorkshopLevel     string             `json:"workshop_level"`
	EventID           string             `json:"workshop_event_id"`
	Motivation        string             `json:"motivation"`
	Status            RegistrationStatus `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
}
