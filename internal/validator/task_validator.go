package validator

import (
	"github.com/taskhub/kanban-api/internal/model"
)

// Task field bounds.
const (
	taskTitleMin = 2
	taskTitleMax = 200
	taskDescMax  = 5000
	taskTagMax   = 50
)

// TaskValidator validates task create and update payloads.
type TaskValidator struct{}

// NewTaskValidator constructs a TaskValidator.
func NewTaskValidator() *TaskValidator { return &TaskValidator{} }

func checkTags(errs ValidationErrors, tags []string) ValidationErrors {
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if tag == "" {
			errs = append(errs, FieldError{Field: "tags", Message: "tags must not be empty strings", Code: CodeRequired})
			continue
		}
		if len(tag) > taskTagMax {
			errs = append(errs, FieldError{Field: "tags", Message: "tag too long: " + tag, Code: CodeTooLong})
		}
		if seen[tag] {
			errs = append(errs, FieldError{Field: "tags", Message: "duplicate tag: " + tag, Code: CodeDuplicate})
		}
		seen[tag] = true
	}
	return errs
}

// ValidateCreate checks a task creation payload.
func (v *TaskValidator) ValidateCreate(in model.TaskCreate) ValidationErrors {
	var errs ValidationErrors
	errs = checkRequired(errs, "board_id", in.BoardID)
	errs = checkRequired(errs, "column_id", in.ColumnID)
	errs = checkName(errs, "title", in.Title, taskTitleMin, taskTitleMax)
	errs = checkMaxLen(errs, "description", in.Description, taskDescMax)
	if in.Status != "" && !model.ValidStatus(in.Status) {
		errs = append(errs, FieldError{
			Field: "status", Message: "status must be todo, in_progress, review, done or blocked", Code: CodeInvalidValue})
	}
	if in.Priority != "" && !model.ValidPriority(in.Priority) {
		errs = append(errs, FieldError{
			Field: "priority", Message: "priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	if in.EstimatedHours < 0 {
		errs = append(errs, FieldError{
			Field: "estimated_hours", Message: "estimated_hours must not be negative", Code: CodeNegative})
	}
	errs = checkTags(errs, in.Tags)
	return errs
}

// ValidateUpdate checks a partial task update. Only supplied (non
// nil) fields are validated.
func (v *TaskValidator) ValidateUpdate(in model.TaskUpdate) ValidationErrors {
	var errs ValidationErrors
	if in.Title != nil {
		errs = checkName(errs, "title", *in.Title, taskTitleMin, taskTitleMax)
	}
	if in.Description != nil {
		errs = checkMaxLen(errs, "description", *in.Description, taskDescMax)
	}
	if in.Status != nil && !model.ValidStatus(*in.Status) {
		errs = append(errs, FieldError{
			Field: "status", Message: "status must be todo, in_progress, review, done or blocked", Code: CodeInvalidValue})
	}
	if in.Priority != nil && !model.ValidPriority(*in.Priority) {
		errs = append(errs, FieldError{
			Field: "priority", Message: "priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		errs = append(errs, FieldError{
			Field: "estimated_hours", Message: "estimated_hours must not be negative", Code: CodeNegative})
	}
	if in.ActualHours != nil && *in.ActualHours < 0 {
		errs = append(errs, FieldError{
			Field: "actual_hours", Message: "actual_hours must not be negative", Code: CodeNegative})
	}
	if in.Tags != nil {
		errs = checkTags(errs, *in.Tags)
	}
	return errs
}

// ValidateReorder checks a bulk task reorder payload.
func (v *TaskValidator) ValidateReorder(ids []string, positions []int) ValidationErrors {
	return ValidateReorder(ids, positions)
}
