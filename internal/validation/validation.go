// Package validation wraps go-playground/validator for request shapes.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid matches any validation failure via errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error carries per-field messages keyed by JSON field name.
type Error struct {
	Fields map[string]string `json:"fields"`
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalid.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalid) match.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Field builds a single-field validation error.
func Field(name, message string) *Error {
	return &Error{Fields: map[string]string{name: message}}
}

// Merge combines validation errors, ignoring nils.
func Merge(errs ...*Error) error {
	merged := &Error{Fields: map[string]string{}}
	for _, err := range errs {
		if err == nil {
			continue
		}
		for key, msg := range err.Fields {
			merged.Fields[key] = msg
		}
	}
	if len(merged.Fields) == 0 {
		return nil
	}
	return merged
}

var (
	once     sync.Once
	instance *validator.Validate
)

func validate() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
	return instance
}

// Struct validates v using its `validate` tags.
func Struct(v any) error {
	err := validate().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	result := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		result.Fields[fe.Field()] = message(fe)
	}
	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lt":
		return "must be < " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid4":
		return "must be a valid id"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// StructWith validates v and merges extra field errors produced by cross-field checks.
func StructWith(v any, extra ...*Error) error {
	err := Struct(v)
	var tagErr *Error
	if err != nil && !errors.As(err, &tagErr) {
		return err
	}
	return Merge(append([]*Error{tagErr}, extra...)...)
}
