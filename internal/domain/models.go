package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EntityName is the name used in alert headers and log messages.
const EntityName = "tamanhos"

// Tamanhos represents a product size offered by the store (e.g. "P", "M", "G")
type Tamanhos struct {
	ID          *int64 `json:"id"`                                                 // Assigned by the primary store
	Name        string `json:"name" validate:"required,min=1,max=60"`              // Size label
	Description string `json:"description,omitempty" validate:"omitempty,max=255"` // Optional free text
}

// HasID reports whether the entity carries an identifier.
func (t Tamanhos) HasID() bool {
	return t.ID != nil
}

// IDValue returns the identifier or 0 when unset.
func (t Tamanhos) IDValue() int64 {
	if t.ID == nil {
		return 0
	}
	return *t.ID
}

// WithID returns a copy of t carrying id.
func (t Tamanhos) WithID(id int64) Tamanhos {
	t.ID = &id
	return t
}

// ValidationError lists the fields that failed validation and the rule they broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the field rules declared on Tamanhos.
func (t Tamanhos) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return &ValidationError{Fields: fields}
}
