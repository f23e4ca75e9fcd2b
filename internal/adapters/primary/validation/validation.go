package validation

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies read by DecodeAndValidate.
const maxBodyBytes = 1 << 20

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the collected errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value, message string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, message)
	}
	return v
}

// NonEmpty validates that an optional string, when present, is not empty
func (v *Validator) NonEmpty(field string, value *string, message string) *Validator {
	if value != nil && strings.TrimSpace(*value) == "" {
		v.errors.Add(field, message)
	}
	return v
}

// MaxLength validates maximum string length in characters
func (v *Validator) MaxLength(field string, value *string, max int) *Validator {
	if value != nil && utf8.RuneCountInString(*value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// UUID validates UUID format
func (v *Validator) UUID(field, value, message string) *Validator {
	if _, err := uuid.Parse(value); err != nil {
		v.errors.Add(field, message)
	}
	return v
}

// OptionalUUID validates an optional UUID
func (v *Validator) OptionalUUID(field string, value *string, message string) *Validator {
	if value != nil {
		v.UUID(field, *value, message)
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Present validates that a field was supplied in the body
func (v *Validator) Present(field string, present bool) *Validator {
	if !present {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// DecodeAndValidate decodes a JSON request body. An empty body decodes
// to the zero value.
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T

	if r.Body == nil {
		return &req, nil
	}

	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return &req, nil
		}
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	return &req, nil
}

// ParseUUIDParam parses a path parameter that must be a UUID.
func ParseUUIDParam(field, value, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		errs := apperrors.NewValidationErrors()
		errs.Add(field, message)
		return uuid.Nil, errs
	}
	return id, nil
}

// ParseIntQueryParam parses an integer query parameter. A missing value
// yields defaultValue; a malformed one is an error.
func ParseIntQueryParam(r *http.Request, key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(r.URL.Query().Get(key))
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		errs := apperrors.NewValidationErrors()
		errs.Add(key, "Must be an integer")
		return 0, errs
	}
	return value, nil
}
