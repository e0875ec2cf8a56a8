// Package stats holds the batting-line rules: the identities a scorebook line
// must satisfy and the fold from per-game lines to season rate stats.
package stats

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
)

// ErrValidation marks a StatRecord that breaks non-negativity or the PA/H identities.
var ErrValidation = errors.New("stat validation failed")

// Violation is one broken rule on one stat code.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found on a record and unwraps to ErrValidation.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

var structValidator = newStructValidator()

// newStructValidator reports fields by their JSON name so violations read "1B", not "Singles".
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that all counts are non-negative and that
// H = 1B + 2B + 3B + HR and PA = AB + BB + HBP + SF + SAC.
func Validate(s model.StatRecord) error {
	var violations []Violation

	if err := structValidator.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate stat record: %w", err)
		}
		for _, fe := range fieldErrs {
			violations = append(violations, Violation{Field: fe.Field(), Message: "must be >= 0"})
		}
	}

	if hits := s.Singles + s.Doubles + s.Triples + s.HR; s.H != hits {
		violations = append(violations, Violation{
			Field:   string(model.StatH),
			Message: fmt.Sprintf("H=%d but 1B+2B+3B+HR=%d", s.H, hits),
		})
	}
	if pa := s.AB + s.BB + s.HBP + s.SF + s.SAC; s.PA != pa {
		violations = append(violations, Violation{
			Field:   string(model.StatPA),
			Message: fmt.Sprintf("PA=%d but AB+BB+HBP+SF+SAC=%d", s.PA, pa),
		})
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// Violations extracts the rule violations from err, or nil when err is not a ValidationError.
func Violations(err error) []Violation {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return nil
}
