// Package rules holds the stateless checks shared by every plan type:
// national ID checksums, date intervals and child collection bounds.
package rules

import (
	"fmt"
	"strings"
)

// Kind classifies a rule failure.
type Kind string

const (
	KindMissingField        Kind = "missing_field"
	KindInvalidFormat       Kind = "invalid_format"
	KindInvalidChecksum     Kind = "invalid_checksum"
	KindInvalidEnumValue    Kind = "invalid_enum_value"
	KindOutOfRange          Kind = "out_of_range"
	KindTooLong             Kind = "too_long"
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	KindIdentifierMismatch  Kind = "identifier_mismatch"
	KindArithmeticMismatch  Kind = "arithmetic_mismatch"
	KindOverlappingPeriod   Kind = "overlapping_period"
	KindInvalidInterval     Kind = "invalid_interval"
	KindOutOfBounds         Kind = "out_of_bounds"
)

// FieldError is a single failure attached to a payload path such as
// "activities[1].name".
type FieldError struct {
	Path    string
	Kind    Kind
	Message string
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Violations is the field-level error list reported as one batch.
type Violations []FieldError

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Error())
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v), strings.Join(parts, "; "))
}

// Err returns v as an error, or nil when empty.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Has reports whether a violation is already recorded for path.
func (v Violations) Has(path string) bool {
	for _, fe := range v {
		if fe.Path == path {
			return true
		}
	}
	return false
}

// RuleError is a single consistency failure. Unlike Violations it is never
// batched: the first failing rule is the one reported.
type RuleError struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Fail builds a RuleError.
func Fail(kind Kind, path, message string) *RuleError {
	return &RuleError{Kind: kind, Path: path, Message: message}
}
