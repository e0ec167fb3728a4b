// Package validation checks student, activity and point-registration
// input.
//
// Shape rules are struct tags evaluated by go-playground/validator; the
// custom tags are registered in New. Business rules that need the store
// (existing ids, known activities) run afterwards. Every field is checked
// so callers can show all problems at once, and each field yields at most
// one error.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/go-playground/validator/v10"
)

var (
	emailRegex     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	studentIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{6,12}$`)
)

const (
	nameMinLen        = 2
	nameMaxLen        = 100
	emailMaxLen       = 254
	activityNameMin   = 3
	descriptionMinLen = 10
	maxSelected       = 5
	firstActivityYear = 1950
)

// Common domain typos and the domain the user most likely meant.
var domainTypos = map[string]string{
	"gmial.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"gamil.com":   "gmail.com",
	"yahooo.com":  "yahoo.com",
	"hotmial.com": "hotmail.com",
	"outlok.com":  "outlook.com",
}

// messages maps field and failing tag to the message shown to the user.
var messages = map[string]map[string]string{
	"name": {
		"required":      "name is required",
		"full_name":     fmt.Sprintf("name must be %d-%d characters long", nameMinLen, nameMaxLen),
		"activity_name": fmt.Sprintf("activity name must have at least %d characters", activityNameMin),
	},
	"email": {
		"required":    "email is required",
		"email_shape": "email must be a valid address",
	},
	"studentId": {
		"required":   "student id is required",
		"student_id": "student id must be 6-12 alphanumeric characters (letters and digits only)",
	},
	"selectedActivities": {
		"min": "select at least one activity",
		"max": fmt.Sprintf("select at most %d activities", maxSelected),
	},
	"description": {
		"required":             "description is required",
		"activity_description": fmt.Sprintf("description must have at least %d characters", descriptionMinLen),
	},
	"entryId": {
		"required": "catalog entry is required",
	},
	"units": {
		"min": "units must be at least 1",
		"max": "units must be at most 20",
	},
	"year": {
		"required":      "activity year is required",
		"activity_year": fmt.Sprintf("activity year must be between %d and the current year", firstActivityYear),
	},
	"link": {
		"http_url": "proof link must be a valid http(s) URL",
	},
}

// Validator runs field and form validation.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a Validator with the custom tags registered.
func New() *Validator {
	v := &Validator{validate: validator.New(), now: time.Now}

	// Report fields by their JSON name so errors match the payload.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.validate.RegisterValidation("full_name", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return n >= nameMinLen && n <= nameMaxLen
	})
	v.validate.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	v.validate.RegisterValidation("student_id", func(fl validator.FieldLevel) bool {
		return IsValidStudentID(fl.Field().String())
	})
	v.validate.RegisterValidation("activity_name", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= activityNameMin
	})
	v.validate.RegisterValidation("activity_description", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= descriptionMinLen
	})
	v.validate.RegisterValidation("activity_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= firstActivityYear && year <= v.now().Year()
	})

	return v
}

// IsValidEmail reports whether email has the local@domain.tld shape.
func IsValidEmail(email string) bool {
	return len(email) <= emailMaxLen && emailRegex.MatchString(strings.TrimSpace(email))
}

// IsValidStudentID reports whether id is 6-12 ASCII letters or digits.
func IsValidStudentID(id string) bool {
	return studentIDRegex.MatchString(id)
}

// SuggestEmail returns the corrected address when email's domain is a
// known typo.
func SuggestEmail(email string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(lower, "@")
	if !ok {
		return "", false
	}
	fixed, ok := domainTypos[domain]
	if !ok {
		return "", false
	}
	return local + "@" + fixed, true
}

func message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid", field)
}

// structErrors converts validator output into one FieldError per field,
// keeping the order in which fields were declared.
func (v *Validator) structErrors(s any) []types.FieldError {
	errs := make([]types.FieldError, 0)

	err := v.validate.Struct(s)
	if err == nil {
		return errs
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(errs, types.FieldError{Field: "form", Message: err.Error()})
	}

	for _, fe := range verrs {
		field := fe.Field()
		if hasField(errs, field) {
			continue
		}
		errs = append(errs, types.FieldError{Field: field, Message: message(field, fe.Tag())})
	}
	return errs
}

// varError validates a single value against tag and reports it under field.
func (v *Validator) varError(field string, value any, tag string) *types.FieldError {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &types.FieldError{Field: field, Message: err.Error()}
	}
	return &types.FieldError{Field: field, Message: message(field, verrs[0].Tag())}
}

func hasField(errs []types.FieldError, field string) bool {
	return slices.ContainsFunc(errs, func(e types.FieldError) bool { return e.Field == field })
}

func result(errs, warnings []types.FieldError) types.ValidationResult {
	if errs == nil {
		errs = []types.FieldError{}
	}
	return types.ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// StudentRules carries the store-dependent inputs to student validation.
// A nil KnownActivities skips the known-activity check.
type StudentRules struct {
	ExistingIDs     []string
	KnownActivities []string
}

// ValidateStudentForm checks every field of a registration form.
func (v *Validator) ValidateStudentForm(form types.StudentForm, rules StudentRules) types.ValidationResult {
	errs := v.structErrors(form)

	if !hasField(errs, "studentId") && slices.Contains(rules.ExistingIDs, form.StudentID) {
		errs = append(errs, types.FieldError{Field: "studentId", Message: "student id is already in use"})
	}
	if !hasField(errs, "selectedActivities") {
		if fe := unknownActivity(form.SelectedActivities, rules.KnownActivities); fe != nil {
			errs = append(errs, *fe)
		}
	}

	return result(errs, studentWarnings(form.Name, form.Email, errs))
}

// ValidateStudentUpdate checks only the fields present in update.
func (v *Validator) ValidateStudentUpdate(update types.StudentUpdate, knownActivities []string) types.ValidationResult {
	var errs []types.FieldError
	var name, email string

	if update.Name != nil {
		name = *update.Name
		if fe := v.varError("name", name, "required,full_name"); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if update.Email != nil {
		email = *update.Email
		if fe := v.varError("email", email, "required,email_shape"); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if update.SelectedActivities != nil {
		if fe := v.varError("selectedActivities", update.SelectedActivities, "min=1,max=5"); fe != nil {
			errs = append(errs, *fe)
		} else if fe := unknownActivity(update.SelectedActivities, knownActivities); fe != nil {
			errs = append(errs, *fe)
		}
	}

	return result(errs, studentWarnings(name, email, errs))
}

func unknownActivity(selected, known []string) *types.FieldError {
	if known == nil {
		return nil
	}
	for _, id := range selected {
		if !slices.Contains(known, id) {
			return &types.FieldError{Field: "selectedActivities", Message: fmt.Sprintf("unknown activity: %s", id)}
		}
	}
	return nil
}

// studentWarnings returns soft problems for fields that passed validation.
func studentWarnings(name, email string, errs []types.FieldError) []types.FieldError {
	var warnings []types.FieldError

	if name != "" && !hasField(errs, "name") && len(strings.Fields(name)) < 2 {
		warnings = append(warnings, types.FieldError{
			Field:   "name",
			Message: "enter the full name (first and last name)",
		})
	}
	if email != "" && !hasField(errs, "email") {
		if suggestion, ok := SuggestEmail(email); ok {
			warnings = append(warnings, types.FieldError{
				Field:   "email",
				Message: fmt.Sprintf("did you mean %s?", suggestion),
			})
		}
	}
	return warnings
}

// ValidateActivityForm checks a new activity.
func (v *Validator) ValidateActivityForm(form types.ActivityForm) types.ValidationResult {
	return result(v.structErrors(form), nil)
}

// ValidateActivityUpdate checks only the fields present in update.
func (v *Validator) ValidateActivityUpdate(update types.ActivityUpdate) types.ValidationResult {
	var errs []types.FieldError
	if update.Name != nil {
		if fe := v.varError("name", *update.Name, "required,activity_name"); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if update.Description != nil {
		if fe := v.varError("description", *update.Description, "required,activity_description"); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return result(errs, nil)
}

// ValidateRegistration checks a point registration request.
func (v *Validator) ValidateRegistration(req types.RegistrationRequest) types.ValidationResult {
	return result(v.structErrors(req), nil)
}
