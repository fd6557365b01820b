package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// classCodeRegex is four characters, a hyphen, four characters, over the
// uppercase letters and digits minus the look-alikes I, O, 0 and 1.
var classCodeRegex = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

// ClassCodeAlphabet lists the characters allowed on either side of the hyphen.
const ClassCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateWorksheetID checks that a worksheet identifier is present
func ValidateWorksheetID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ValidationError{Field: "worksheetId", Message: "worksheet id is required"}
	}
	return nil
}

// NormalizeClassCode trims, upper-cases and removes all whitespace from code
func NormalizeClassCode(code string) string {
	return strings.Join(strings.Fields(strings.ToUpper(code)), "")
}

// ValidateClassCode checks a normalized class code against the grammar
func ValidateClassCode(code string) error {
	if code == "" {
		return ValidationError{Field: "classCode", Message: "class code is required"}
	}
	if !classCodeRegex.MatchString(code) {
		return ValidationError{Field: "classCode", Message: "class code must look like ABCD-EFGH without I, O, 0 or 1"}
	}
	return nil
}

// CleanClassCode normalizes code and returns it when valid, or "" otherwise
func CleanClassCode(code string) string {
	normalized := NormalizeClassCode(code)
	if ValidateClassCode(normalized) != nil {
		return ""
	}
	return normalized
}
