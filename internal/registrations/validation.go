package registrations

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aura-webinar/workshops/internal/models"
)

const (
	minNameLen       = 2
	minMotivationLen = 10
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
)

// Form is the registration form as submitted.
type Form struct {
	EventID           string `json:"workshopEventId"`
	StudentName       string `json:"studentName"`
	StudentEmail      string `json:"studentEmail"`
	StudentGrade      string `json:"studentGrade"`
	StudentExperience string `json:"studentExperience"`
	ParentName        string `json:"parentName"`
	ParentEmail       string `json:"parentEmail"`
	ParentPhone       string `json:"parentPhone"`
	WorkshopLevel     string `json:"workshopLevel"`
	Motivation        string `json:"motivation"`
}

// FieldError is a validation failure for one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// FieldErrors collects every failing field of a form.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field has at least one error.
func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Normalize trims every field, title-cases names and lower-cases emails.
func Normalize(f Form) Form {
	return Form{
		EventID:           strings.TrimSpace(f.EventID),
		StudentName:       FormatName(f.StudentName),
		StudentEmail:      strings.ToLower(strings.TrimSpace(f.StudentEmail)),
		StudentGrade:      strings.TrimSpace(f.StudentGrade),
		StudentExperience: strings.TrimSpace(f.StudentExperience),
		ParentName:        FormatName(f.ParentName),
		ParentEmail:       strings.ToLower(strings.TrimSpace(f.ParentEmail)),
		ParentPhone:       strings.TrimSpace(f.ParentPhone),
		WorkshopLevel:     strings.TrimSpace(f.WorkshopLevel),
		Motivation:        strings.TrimSpace(f.Motivation),
	}
}

// Validate checks every field and returns all failures together.
func Validate(f Form) FieldErrors {
	var errs FieldErrors
	add := func(field, msg string) { errs = append(errs, FieldError{Field: field, Message: msg}) }

	checkName := func(field, value, requiredMsg string) {
		switch {
		case strings.TrimSpace(value) == "":
			add(field, requiredMsg)
		case !ValidName(value):
			add(field, "Please enter a valid name (at least 2 characters, letters only)")
		}
	}
	checkEmail := func(field, value, requiredMsg string) {
		switch {
		case strings.TrimSpace(value) == "":
			add(field, requiredMsg)
		case !ValidEmail(value):
			add(field, "Please enter a valid email address")
		}
	}

	checkName("studentName", f.StudentName, "Student name is required")
	checkEmail("studentEmail", f.StudentEmail, "Student email is required")

	switch {
	case f.StudentGrade == "":
		add("studentGrade", "Please select a grade level")
	case !models.Grade(f.StudentGrade).Valid():
		add("studentGrade", "Please select a valid grade level")
	}

	checkName("parentName", f.ParentName, "Parent/guardian name is required")
	checkEmail("parentEmail", f.ParentEmail, "Parent/guardian email is required")

	student, parent := strings.TrimSpace(f.StudentEmail), strings.TrimSpace(f.ParentEmail)
	if student != "" && strings.EqualFold(student, parent) {
		add("parentEmail", "Parent email should be different from student email")
	}

	switch {
	case strings.TrimSpace(f.ParentPhone) == "":
		add("parentPhone", "Parent/guardian phone is required")
	case !ValidPhone(f.ParentPhone):
		add("parentPhone", "Please enter a valid 10-digit phone number")
	}

	if m := strings.TrimSpace(f.Motivation); m != "" && utf8.RuneCountInString(m) < minMotivationLen {
		add("motivation", "Please provide more details (at least 10 characters) or leave blank")
	}
	return errs
}

// ValidEmail checks the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidName accepts letters, spaces, hyphens and apostrophes, at least two characters after trimming.
func ValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return len(trimmed) >= minNameLen && namePattern.MatchString(trimmed)
}

// ValidPhone accepts any input with exactly 10 or 11 digits.
func ValidPhone(phone string) bool {
	n := len(PhoneDigits(phone))
	return n == 10 || n == 11
}

// PhoneDigits strips everything but ASCII digits.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a valid phone as (XXX) XXX-XXXX, prefixed with +C for 11 digits.
// Invalid input is returned unchanged.
func FormatPhone(phone string) string {
	d := PhoneDigits(phone)
	switch len(d) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	case 11:
		return fmt.Sprintf("+%s (%s) %s-%s", d[:1], d[1:4], d[4:7], d[7:])
	}
	return phone
}

// FormatName capitalises the first letter of each word and lower-cases the rest.
func FormatName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
