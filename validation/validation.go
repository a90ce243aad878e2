// Package validation collects per-field form violations.
package validation

import (
	"strconv"
	"strings"
)

// Violations maps a form field to an i18n message code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Required flags a blank value.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// ID parses a positive integer id. Blank values are reported as required,
// anything else that is not a positive integer with code.
func ID(field, value, code string, v Violations) uint {
	value = strings.TrimSpace(value)
	if value == "" {
		v[field] = "required"
		return 0
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n == 0 {
		v[field] = code
		return 0
	}
	return uint(n)
}
