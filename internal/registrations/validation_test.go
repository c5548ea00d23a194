package registrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validForm() Form {
	return Form{
		EventID:       "youthai-explorer-2025-nov",
		StudentName:   "Ada Lovelace",
		StudentEmail:  "ada@example.com",
		StudentGrade:  "10",
		ParentName:    "Anne Byron",
		ParentEmail:   "anne@example.com",
		ParentPhone:   "555-123-4567",
		WorkshopLevel: "Explorer Level",
		Motivation:    "I want to build robots that can learn.",
	}
}

func TestValidate_AcceptsValidForm(t *testing.T) {
	require.Empty(t, Validate(validForm()))
}

func TestValidate_AggregatesEveryFailure(t *testing.T) {
	errs := Validate(Form{})
	for _, field := range []string{"studentName", "studentEmail", "studentGrade", "parentName", "parentEmail", "parentPhone"} {
		require.True(t, errs.Has(field), "expected error on %s", field)
	}
	require.False(t, errs.Has("motivation"))
	require.Len(t, errs, 6)
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"one letter name", func(f *Form) { f.StudentName = " A " }, "studentName"},
		{"digits in name", func(f *Form) { f.ParentName = "R2 D2" }, "parentName"},
		{"email without tld", func(f *Form) { f.StudentEmail = "ada@example" }, "studentEmail"},
		{"email with space", func(f *Form) { f.ParentEmail = "an ne@example.com" }, "parentEmail"},
		{"unknown grade", func(f *Form) { f.StudentGrade = "8" }, "studentGrade"},
		{"short phone", func(f *Form) { f.ParentPhone = "555-1234" }, "parentPhone"},
		{"long phone", func(f *Form) { f.ParentPhone = "+44 20 7946 0958 12" }, "parentPhone"},
		{"short motivation", func(f *Form) { f.Motivation = "robots" }, "motivation"},
		{"same emails", func(f *Form) { f.ParentEmail = "ADA@Example.com" }, "parentEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.edit(&f)
			errs := Validate(f)
			require.Len(t, errs, 1, errs.Error())
			require.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_BlankMotivationAllowed(t *testing.T) {
	f := validForm()
	f.Motivation = "   "
	require.Empty(t, Validate(f))
}

func TestValidate_LongFreeTextAllowed(t *testing.T) {
	f := validForm()
	f.Motivation = strings.Repeat("I want to build robots. ", 500)
	f.StudentExperience = strings.Repeat("x", 5000)
	require.Empty(t, Validate(f))
}

func TestValidate_ApostropheAndHyphenNames(t *testing.T) {
	f := validForm()
	f.StudentName = "Mary-Jane O'Brien"
	require.Empty(t, Validate(f))
}

func TestNormalize(t *testing.T) {
	f := Normalize(Form{
		StudentName:  "  mARY   jane o'brien ",
		StudentEmail: "  Mary@Example.COM ",
		ParentName:   "ANNE",
		ParentEmail:  "Anne@Example.com",
		ParentPhone:  " 5551234567 ",
	})
	require.Equal(t, "Mary Jane O'brien", f.StudentName)
	require.Equal(t, "mary@example.com", f.StudentEmail)
	require.Equal(t, "Anne", f.ParentName)
	require.Equal(t, "anne@example.com", f.ParentEmail)
	require.Equal(t, "5551234567", f.ParentPhone)
}

func TestFormatPhone(t *testing.T) {
	require.Equal(t, "(555) 123-4567", FormatPhone("555.123.4567"))
	require.Equal(t, "+1 (555) 123-4567", FormatPhone("1 (555) 123-4567"))
	require.Equal(t, "12345", FormatPhone("12345"))
}

func TestValidPhone_DigitCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.StringMatching(`[0-9]{0,14}`).Draw(t, "digits")
		sep := rapid.SampledFrom([]string{"", " ", "-", ".", "()", "+"}).Draw(t, "sep")

		var b strings.Builder
		for i, r := range digits {
			if i > 0 && i%3 == 0 {
				b.WriteString(sep)
			}
			b.WriteRune(r)
		}
		want := len(digits) == 10 || len(digits) == 11
		if got := ValidPhone(b.String()); got != want {
			t.Fatalf("ValidPhone(%q) = %v, want %v", b.String(), got, want)
		}
	})
}

func TestValidEmail_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		local := rapid.StringMatching(`[a-z0-9._+-]{1,12}`).Draw(t, "local")
		domain := rapid.StringMatching(`[a-z0-9-]{1,12}`).Draw(t, "domain")
		tld := rapid.StringMatching(`[a-z]{2,6}`).Draw(t, "tld")

		email := local + "@" + domain + "." + tld
		if !ValidEmail(email) {
			t.Fatalf("ValidEmail(%q) = false", email)
		}
		if ValidEmail(local + " @" + domain + "." + tld) {
			t.Fatalf("email with whitespace accepted")
		}
		if ValidEmail(local + domain + "." + tld) {
			t.Fatalf("email without @ accepted")
		}
	})
}

func TestDistinctEmails_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		email := rapid.StringMatching(`[a-z]{1,8}@[a-z]{1,8}\.[a-z]{2,4}`).Draw(t, "email")
		upper := rapid.Bool().Draw(t, "upper")

		f := validForm()
		f.StudentEmail = email
		f.ParentEmail = email
		if upper {
			f.ParentEmail = strings.ToUpper(email)
		}
		if !Validate(f).Has("parentEmail") {
			t.Fatalf("identical emails %q / %q accepted", f.StudentEmail, f.ParentEmail)
		}
	})
}
