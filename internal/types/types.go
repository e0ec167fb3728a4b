// Package types holds the shared data structures used across the
// application. Every other package may import it; it imports nothing
// from this module.
package types

import "time"

// Student represents a registered student.
//
// ID and RegisteredAt are fixed at creation: updates never touch them.
// Activities keeps the order in which the student selected them.
type Student struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Activities   []string  `json:"activities"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Activity is an extracurricular activity students can enroll in.
//
// StudentCount is derived from the student collection every time an
// activity is read. It is never stored.
type Activity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	StudentCount int       `json:"studentCount"`
}

// StudentForm is the registration payload submitted for a new student.
//
// The validate:"..." tags are checked by the validation package; the
// custom tags (full_name, email_shape, student_id) are registered there.
type StudentForm struct {
	Name               string   `json:"name"               validate:"required,full_name"`
	Email              string   `json:"email"              validate:"required,email_shape"`
	StudentID          string   `json:"studentId"          validate:"required,student_id"`
	SelectedActivities []string `json:"selectedActivities" validate:"min=1,max=5"`
}

// StudentUpdate carries a partial update. Nil fields are left unchanged.
type StudentUpdate struct {
	Name               *string  `json:"name,omitempty"`
	Email              *string  `json:"email,omitempty"`
	SelectedActivities []string `json:"selectedActivities,omitempty"`
}

// ActivityForm is the payload for creating an activity.
type ActivityForm struct {
	Name        string `json:"name"        validate:"required,activity_name"`
	Description string `json:"description" validate:"required,activity_description"`
}

// ActivityUpdate carries a partial activity update.
type ActivityUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// RegistrationRequest asks for points for one catalog entry.
// Units is the multiplier (semesters, hours, ...) applied to the entry's
// base points when the registration is built.
type RegistrationRequest struct {
	EntryID string `json:"entryId" validate:"required"`
	Units   int    `json:"units"   validate:"min=1,max=20"`
	Year    int    `json:"year"    validate:"required,activity_year"`
	Link    string `json:"link"    validate:"omitempty,http_url"`
}

// FieldError is a single validation problem attached to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a whole form.
// Valid is true iff Errors is empty; Warnings never affect validity.
type ValidationResult struct {
	Valid    bool         `json:"isValid"`
	Errors   []FieldError `json:"errors"`
	Warnings []FieldError `json:"warnings,omitempty"`
}

// Failure codes carried by Result.Code.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeInternal   = "internal"
)

// Result is the uniform envelope returned by every service operation.
//
// On success only Data is meaningful. On failure Error holds a
// human-readable message, Code classifies the failure, and Errors lists
// the individual field problems when the failure came from validation.
type Result[T any] struct {
	Success  bool         `json:"success"`
	Data     T            `json:"data"`
	Error    string       `json:"error,omitempty"`
	Code     string       `json:"code,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Warnings []FieldError `json:"warnings,omitempty"`
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed Result with the given code and message.
func Fail[T any](code, message string) Result[T] {
	return Result[T]{Code: code, Error: message}
}
