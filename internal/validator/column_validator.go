package validator

import (
	"github.com/taskhub/kanban-api/internal/model"
)

// Column field bounds.
const (
	columnTitleMin = 2
	columnTitleMax = 100
)

// ColumnValidator validates column create and update payloads.
type ColumnValidator struct{}

// NewColumnValidator constructs a ColumnValidator.
func NewColumnValidator() *ColumnValidator { return &ColumnValidator{} }

// ValidateCreate checks a column creation payload.
func (v *ColumnValidator) ValidateCreate(in model.ColumnCreate) ValidationErrors {
	var errs ValidationErrors
	errs = checkRequired(errs, "board_id", in.BoardID)
	errs = checkName(errs, "title", in.Title, columnTitleMin, columnTitleMax)
	errs = checkColor(errs, "color", in.Color)
	if in.WIPLimit < 0 {
		errs = append(errs, FieldError{
			Field: "wip_limit", Message: "wip_limit must not be negative", Code: CodeNegative})
	}
	if in.Settings != nil && in.Settings.DefaultTaskPriority != "" && !model.ValidPriority(in.Settings.DefaultTaskPriority) {
		errs = append(errs, FieldError{
			Field: "settings.default_task_priority", Message: "default task priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	return errs
}

// ValidateUpdate checks a partial column update. Only supplied (non
// nil) fields are validated.
func (v *ColumnValidator) ValidateUpdate(in model.ColumnUpdate) ValidationErrors {
	var errs ValidationErrors
	if in.Title != nil {
		errs = checkName(errs, "title", *in.Title, columnTitleMin, columnTitleMax)
	}
	if in.Color != nil {
		errs = checkColor(errs, "color", *in.Color)
	}
	if in.WIPLimit != nil && *in.WIPLimit < 0 {
		errs = append(errs, FieldError{
			Field: "wip_limit", Message: "wip_limit must not be negative", Code: CodeNegative})
	}
	if in.Settings != nil && in.Settings.DefaultTaskPriority != "" && !model.ValidPriority(in.Settings.DefaultTaskPriority) {
		errs = append(errs, FieldError{
			Field: "settings.default_task_priority", Message: "default task priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	return errs
}

// ValidateReorder checks a bulk column reorder payload.
func (v *ColumnValidator) ValidateReorder(ids []string, positions []int) ValidationErrors {
	return ValidateReorder(ids, positions)
}
