package admin

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/aura-webinar/workshops/internal/models"
)

var rosterHeader = []string{
	"id", "created_at", "status",
	"student_name", "student_email", "student_grade", "student_experience",
	"parent_name", "parent_email", "parent_phone",
	"workshop_level", "motivation",
}

// WriteRoster writes recs as CSV with a header row.
func WriteRoster(w io.Writer, recs []models.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.ID.String(),
			r.CreatedAt.UTC().Format(time.RFC3339),
			string(r.Status),
			r.StudentName,
			r.StudentEmail,
			string(r.StudentGrade),
			r.StudentExperience,
			r.ParentName,
			r.ParentEmail,
			r.ParentPhone,
			r.WorkshopLevel,
			r.Motivation,
		}
		for i := range row {
			row[i] = neutralize(row[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// neutralize stops spreadsheet apps from evaluating free-text cells as formulas.
func neutralize(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}

// Summary counts an event's records by status.
type Summary struct {
	Capacity   int `json:"capacity"`
	Registered int `json:"registered"`
	Waitlisted int `json:"waitlisted"`
	Remaining  int `json:"remaining"`
}

func summarize(ev models.WorkshopEvent, recs []models.Registration) Summary {
	s := Summary{Capacity: ev.MaxCapacity}
	for _, r := range recs {
		switch r.Status {
		case models.StatusRegistered:
			s.Registered++
		case models.StatusWaitlisted:
			s.Waitlisted++
		}
	}
	if s.Remaining = s.Capacity - s.Registered; s.Remaining < 0 {
		s.Remaining = 0
	}
	return s
}
