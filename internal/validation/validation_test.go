package validation

import (
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(errs []types.FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func validForm() types.StudentForm {
	return types.StudentForm{
		Name:               "Maria Oliveira",
		Email:              "maria@example.com",
		StudentID:          "ABC12345",
		SelectedActivities: []string{"act-1"},
	}
}

func TestValidateStudentForm_Valid(t *testing.T) {
	v := New()

	res := v.ValidateStudentForm(validForm(), StudentRules{KnownActivities: []string{"act-1"}})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidateStudentForm_ReportsEveryField(t *testing.T) {
	v := New()

	res := v.ValidateStudentForm(types.StudentForm{
		Name:  "",
		Email: "email-invalido",
	}, StudentRules{})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"name", "email", "studentId", "selectedActivities"}, fields(res.Errors))
	assert.Equal(t, "name is required", res.Errors[0].Message)
	assert.Equal(t, "email must be a valid address", res.Errors[1].Message)
	assert.Equal(t, "student id is required", res.Errors[2].Message)
	assert.Equal(t, "select at least one activity", res.Errors[3].Message)
}

func TestValidateStudentForm_StudentID(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		id      string
		isValid bool
	}{
		{name: "six_chars", id: "abc123", isValid: true},
		{name: "twelve_chars", id: "ABCDEF123456", isValid: true},
		{name: "too_short", id: "abc12", isValid: false},
		{name: "too_long", id: "ABCDEF1234567", isValid: false},
		{name: "dash", id: "abc-123", isValid: false},
		{name: "space", id: "abc 123", isValid: false},
		{name: "accent", id: "joão123", isValid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.StudentID = tt.id

			res := v.ValidateStudentForm(form, StudentRules{})

			assert.Equal(t, tt.isValid, res.Valid)
			if !tt.isValid {
				assert.Equal(t, []string{"studentId"}, fields(res.Errors))
			}
		})
	}
}

func TestValidateStudentForm_ExistingID(t *testing.T) {
	v := New()

	res := v.ValidateStudentForm(validForm(), StudentRules{ExistingIDs: []string{"ABC12345"}})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.FieldError{Field: "studentId", Message: "student id is already in use"}, res.Errors[0])
}

func TestValidateStudentForm_ActivitySelection(t *testing.T) {
	v := New()
	known := []string{"a1", "a2", "a3", "a4", "a5", "a6"}

	tests := []struct {
		name     string
		selected []string
		message  string
	}{
		{name: "nil", selected: nil, message: "select at least one activity"},
		{name: "empty", selected: []string{}, message: "select at least one activity"},
		{name: "six", selected: known, message: "select at most 5 activities"},
		{name: "unknown", selected: []string{"a1", "zz"}, message: "unknown activity: zz"},
		{name: "five", selected: known[:5]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.SelectedActivities = tt.selected

			res := v.ValidateStudentForm(form, StudentRules{KnownActivities: known})

			if tt.message == "" {
				assert.True(t, res.Valid)
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, "selectedActivities", res.Errors[0].Field)
			assert.Equal(t, tt.message, res.Errors[0].Message)
		})
	}
}

func TestValidateStudentForm_Name(t *testing.T) {
	v := New()

	form := validForm()
	form.Name = " A "
	res := v.ValidateStudentForm(form, StudentRules{})
	assert.Equal(t, []string{"name"}, fields(res.Errors))

	form.Name = "Madonna"
	res = v.ValidateStudentForm(form, StudentRules{})
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "name", res.Warnings[0].Field)
}

func TestValidateStudentForm_EmailTypoIsWarning(t *testing.T) {
	v := New()

	form := validForm()
	form.Email = "Maria@Gmial.com"
	res := v.ValidateStudentForm(form, StudentRules{})

	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.FieldError{Field: "email", Message: "did you mean maria@gmail.com?"}, res.Warnings[0])
}

func TestSuggestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
		ok    bool
	}{
		{email: "joao@gmai.com", want: "joao@gmail.com", ok: true},
		{email: "joao@yahooo.com", want: "joao@yahoo.com", ok: true},
		{email: "joao@hotmial.com", want: "joao@hotmail.com", ok: true},
		{email: "joao@gmail.com"},
		{email: "not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, ok := SuggestEmail(tt.email)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.co"))
	assert.True(t, IsValidEmail("first.last@uni.edu.br"))
	assert.False(t, IsValidEmail("email-invalido"))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("a b@c.com"))
	assert.False(t, IsValidEmail(""))
}

func TestValidateStudentUpdate(t *testing.T) {
	v := New()

	empty := ""
	bad := "nope"
	res := v.ValidateStudentUpdate(types.StudentUpdate{
		Name:               &empty,
		Email:              &bad,
		SelectedActivities: []string{},
	}, nil)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"name", "email", "selectedActivities"}, fields(res.Errors))

	res = v.ValidateStudentUpdate(types.StudentUpdate{}, nil)
	assert.True(t, res.Valid)

	res = v.ValidateStudentUpdate(types.StudentUpdate{SelectedActivities: []string{"x"}}, []string{"y"})
	assert.Equal(t, []string{"selectedActivities"}, fields(res.Errors))
}

func TestValidateActivityForm(t *testing.T) {
	v := New()

	res := v.ValidateActivityForm(types.ActivityForm{Name: "Chess Club", Description: "Weekly chess practice"})
	assert.True(t, res.Valid)

	res = v.ValidateActivityForm(types.ActivityForm{Name: " ab ", Description: "too short"})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"name", "description"}, fields(res.Errors))
	assert.Equal(t, "activity name must have at least 3 characters", res.Errors[0].Message)
	assert.Equal(t, "description must have at least 10 characters", res.Errors[1].Message)
}

func TestValidateActivityUpdate(t *testing.T) {
	v := New()

	short := "ab"
	res := v.ValidateActivityUpdate(types.ActivityUpdate{Name: &short})
	assert.Equal(t, []string{"name"}, fields(res.Errors))

	desc := "A long enough description"
	res = v.ValidateActivityUpdate(types.ActivityUpdate{Description: &desc})
	assert.True(t, res.Valid)
}

func TestValidateRegistration(t *testing.T) {
	v := New()
	v.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	res := v.ValidateRegistration(types.RegistrationRequest{
		EntryID: "1.1",
		Units:   2,
		Year:    2024,
		Link:    "https://example.com/certificate.pdf",
	})
	assert.True(t, res.Valid)

	res = v.ValidateRegistration(types.RegistrationRequest{
		Units: 0,
		Year:  2027,
		Link:  "url-invalida",
	})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"entryId", "units", "year", "link"}, fields(res.Errors))
}
