package validator

import (
	"github.com/taskhub/kanban-api/internal/model"
)

// Board field bounds.
const (
	boardNameMin = 2
	boardNameMax = 100
	boardDescMax = 1000
)

// BoardValidator validates board create and update payloads.
type BoardValidator struct{}

// NewBoardValidator constructs a BoardValidator. The validator is
// stateless; the constructor exists for symmetry with the services
// that receive it.
func NewBoardValidator() *BoardValidator { return &BoardValidator{} }

// ValidateCreate checks a board creation payload. An empty result
// means the payload is valid.
func (v *BoardValidator) ValidateCreate(in model.BoardCreate) ValidationErrors {
	var errs ValidationErrors
	errs = checkRequired(errs, "project_id", in.ProjectID)
	errs = checkName(errs, "name", in.Name, boardNameMin, boardNameMax)
	errs = checkMaxLen(errs, "description", in.Description, boardDescMax)
	errs = checkColor(errs, "color", in.Color)
	if in.Visibility != "" && !model.ValidVisibility(in.Visibility) {
		errs = append(errs, FieldError{
			Field: "visibility", Message: "visibility must be private, team or public", Code: CodeInvalidValue})
	}
	if in.Settings != nil && in.Settings.DefaultPriority != "" && !model.ValidPriority(in.Settings.DefaultPriority) {
		errs = append(errs, FieldError{
			Field: "settings.default_priority", Message: "default priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	return errs
}

// ValidateUpdate checks a partial board update. Only supplied (non
// nil) fields are validated.
func (v *BoardValidator) ValidateUpdate(in model.BoardUpdate) ValidationErrors {
	var errs ValidationErrors
	if in.Name != nil {
		errs = checkName(errs, "name", *in.Name, boardNameMin, boardNameMax)
	}
	if in.Description != nil {
		errs = checkMaxLen(errs, "description", *in.Description, boardDescMax)
	}
	if in.Color != nil {
		errs = checkColor(errs, "color", *in.Color)
	}
	if in.Visibility != nil && !model.ValidVisibility(*in.Visibility) {
		errs = append(errs, FieldError{
			Field: "visibility", Message: "visibility must be private, team or public", Code: CodeInvalidValue})
	}
	if in.Settings != nil && in.Settings.DefaultPriority != "" && !model.ValidPriority(in.Settings.DefaultPriority) {
		errs = append(errs, FieldError{
			Field: "settings.default_priority", Message: "default priority must be low, medium, high or urgent", Code: CodeInvalidValue})
	}
	return errs
}

// ValidateReorder checks a bulk board reorder payload.
func (v *BoardValidator) ValidateReorder(ids []string, positions []int) ValidationErrors {
	return ValidateReorder(ids, positions)
}
