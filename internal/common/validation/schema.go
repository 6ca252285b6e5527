// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"dealmatch-workers/internal/common/errors"
	"dealmatch-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks job variables against the input schemas of the activity registry.
// Schemas are compiled once; a Validator is safe for concurrent use.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	if reg == nil {
		return v, nil
	}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// Has reports whether an input schema is registered for taskType.
func (v *Validator) Has(taskType string) bool {
	if v == nil {
		return false
	}
	_, ok := v.schemas[taskType]
	return ok
}

// Validate checks raw job variables. A nil Validator accepts everything.
func (v *Validator) Validate(taskType string, variables string) ([]ValidationError, error) {
	if v == nil {
		return nil, nil
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil, errors.NewSchemaNotFoundError(taskType)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unreadable variables: %v", err))
	}
	if result.Valid() {
		return nil, nil
	}

	out := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		out = append(out, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out, nil
}

// ValidateInput is Validate folded into a single INVALID_INPUT error.
func (v *Validator) ValidateInput(taskType string, variables string) error {
	violations, err := v.Validate(taskType, variables)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}

	parts := make([]string, len(violations))
	for i, ve := range violations {
		parts[i] = ve.Field + ": " + ve.Message
	}
	return errors.NewInvalidInputError(strings.Join(parts, "; ")).
		WithMetadata("violations", violations)
}
