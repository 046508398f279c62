// Package validator performs field-level validation of incoming
// payloads. Validators are pure and synchronous: they return a list of
// structured field errors instead of throwing, never touch the
// database, and an empty list means valid. Uniqueness against the
// database is not checked here; that lives in the repositories'
// ExistsByName/ExistsByTitle and is sequenced by the services.
package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Error codes attached to FieldError records. Clients switch on these
// rather than parsing messages.
const (
	CodeRequired      = "REQUIRED"
	CodeTooShort      = "TOO_SHORT"
	CodeTooLong       = "TOO_LONG"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeInvalidValue  = "INVALID_VALUE"
	CodeDuplicate     = "DUPLICATE"
	CodeMismatch      = "MISMATCH"
	CodeNegative      = "NEGATIVE"
)

// FieldError describes one invalid field. Message is safe to surface
// verbatim so a UI can highlight the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationErrors is the error type returned by every validator. A
// nil or empty list means the payload is valid.
type ValidationErrors []FieldError

// Error implements the error interface by joining the field messages.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "valid"
	}
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// colorPattern accepts 3- or 6-digit hex colors with a leading hash.
var colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// unsafeChars are rejected in names and titles as a defense against
// unescaped rendering downstream.
const unsafeChars = `<>"'&`

func checkName(errs ValidationErrors, field, value string, min, max int) ValidationErrors {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required", Code: CodeRequired})
	}
	if len(trimmed) < min {
		return append(errs, FieldError{
			Field: field, Message: fmt.Sprintf("%s must be at least %d characters", field, min), Code: CodeTooShort})
	}
	if len(trimmed) > max {
		return append(errs, FieldError{
			Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max), Code: CodeTooLong})
	}
	if strings.ContainsAny(trimmed, unsafeChars) {
		return append(errs, FieldError{
			Field: field, Message: field + ` must not contain <>"'& characters`, Code: CodeInvalidFormat})
	}
	return errs
}

func checkMaxLen(errs ValidationErrors, field, value string, max int) ValidationErrors {
	if len(value) > max {
		return append(errs, FieldError{
			Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max), Code: CodeTooLong})
	}
	return errs
}

func checkColor(errs ValidationErrors, field, value string) ValidationErrors {
	if value != "" && !colorPattern.MatchString(value) {
		return append(errs, FieldError{
			Field: field, Message: field + " must be a hex color like #RRGGBB", Code: CodeInvalidFormat})
	}
	return errs
}

func checkRequired(errs ValidationErrors, field, value string) ValidationErrors {
	if strings.TrimSpace(value) == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required", Code: CodeRequired})
	}
	return errs
}

// ValidateReorder checks the cross-field consistency of a bulk
// position update before any repository write is attempted: parallel
// slices of equal length, all ids unique, all positions unique and
// non-negative.
func ValidateReorder(ids []string, positions []int) ValidationErrors {
	var errs ValidationErrors
	if len(ids) == 0 {
		errs = append(errs, FieldError{Field: "ids", Message: "ids is required", Code: CodeRequired})
	}
	if len(ids) != len(positions) {
		errs = append(errs, FieldError{
			Field: "positions", Message: "ids and positions must have the same length", Code: CodeMismatch})
		return errs
	}
	seenID := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seenID[id] {
			errs = append(errs, FieldError{
				Field: "ids", Message: "duplicate id: " + id, Code: CodeDuplicate})
		}
		seenID[id] = true
	}
	seenPos := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 {
			errs = append(errs, FieldError{
				Field: "positions", Message: fmt.Sprintf("position %d is negative", p), Code: CodeNegative})
		}
		if seenPos[p] {
			errs = append(errs, FieldError{
				Field: "positions", Message: fmt.Sprintf("duplicate position: %d", p), Code: CodeDuplicate})
		}
		seenPos[p] = true
	}
	return errs
}
