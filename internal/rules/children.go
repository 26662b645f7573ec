package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds free-text fields.
const MaxTextLength = 300

// FirstDuplicate returns the index of the first item whose identifier was
// already used by an earlier item. Items for which key reports false carry no
// identifier and are skipped.
func FirstDuplicate[T any, K comparable](items []T, key func(T) (K, bool)) (int, bool) {
	seen := make(map[K]struct{}, len(items))
	for i, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			return i, true
		}
		seen[k] = struct{}{}
	}
	return -1, false
}

// Checker accumulates field-level violations. A path that already failed
// (for instance while decoding) is not checked again.
type Checker struct {
	errs Violations
}

// NewChecker starts from the violations already collected for the payload.
func NewChecker(existing Violations) *Checker {
	c := &Checker{}
	c.errs = append(c.errs, existing...)
	return c
}

func (c *Checker) Add(path string, kind Kind, message string) {
	c.errs = append(c.errs, FieldError{Path: path, Kind: kind, Message: message})
}

func (c *Checker) failed(path string) bool {
	return c.errs.Has(path)
}

// MaxLen checks a free-text field against MaxTextLength.
func (c *Checker) MaxLen(path, value string) {
	if c.failed(path) {
		return
	}
	if utf8.RuneCountInString(value) > MaxTextLength {
		c.Add(path, KindTooLong, fmt.Sprintf("must have at most %d characters", MaxTextLength))
	}
}

// Range checks min <= v <= max.
func (c *Checker) Range(path string, v, min, max int64, message string) {
	if c.failed(path) {
		return
	}
	if v < min || v > max {
		c.Add(path, KindOutOfRange, message)
	}
}

// Percent checks 0 <= v <= 100.
func (c *Checker) Percent(path string, v int64) {
	c.Range(path, v, 0, 100, "invalid percentage value")
}

// Positive checks v > 0.
func (c *Checker) Positive(path string, v int64, message string) {
	if c.failed(path) {
		return
	}
	if v <= 0 {
		c.Add(path, KindOutOfRange, message)
	}
}

// Enum checks v against the permitted set and lists it in the message.
func (c *Checker) Enum(path string, v int64, permitted []int64, message string) {
	if c.failed(path) {
		return
	}
	for _, p := range permitted {
		if v == p {
			return
		}
	}
	c.Add(path, KindInvalidEnumValue, message+"; permitted: "+joinInts(permitted))
}

// NationalID runs ValidateNationalID and records its failure under path.
func (c *Checker) NationalID(path, value string) {
	if c.failed(path) {
		return
	}
	if _, err := ValidateNationalID(value); err != nil {
		var re *RuleError
		if errors.As(err, &re) {
			c.Add(path, re.Kind, re.Message)
			return
		}
		c.Add(path, KindInvalidFormat, err.Error())
	}
}

// Violations returns everything collected so far.
func (c *Checker) Violations() Violations {
	return c.errs
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ", ")
}
