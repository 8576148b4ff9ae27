// Package mutate implements the three total, line-local edits the macro
// engine is permitted to make (4.F): commenting, uncommenting, and
// variable-setting substitution.
package mutate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.optionset.dev/optionset/internal/macro"
)

var (
	// ErrInvalidVariableRegex indicates a variable setting's embedded
	// regex is malformed or does not match the line it annotates.
	ErrInvalidVariableRegex = errors.New("invalid variable regex")
	// ErrInvalidRegexGroupCount indicates a variable setting's embedded
	// regex has zero or more than one capture group.
	ErrInvalidRegexGroupCount = errors.New("variable regex must have exactly one capture group")
)

// Comment prepends comInd at column 0.
func Comment(line, comInd string) string {
	return comInd + line
}

// Uncomment removes the first leading run of (whitespace*)(comInd) at
// column 0, preserving the leading whitespace. Lines that do not begin
// with comInd after optional whitespace are returned unchanged.
func Uncomment(line, comInd string) string {
	trimmed := strings.TrimLeft(line, " \t")
	ws := line[:len(line)-len(trimmed)]

	if !strings.HasPrefix(trimmed, comInd) {
		return line
	}

	return ws + trimmed[len(comInd):]
}

// CaptureVariable returns the substring currently matched by a variable
// setting's embedded capture group within nonCom, without rewriting
// anything. Used by discovery mode to populate [availability.StateVariable]
// entries with the live value from the host file.
func CaptureVariable(nonCom, settingLiteral string) (string, error) {
	pattern, ok := macro.VariableRegex(settingLiteral)
	if !ok {
		return "", fmt.Errorf("%w: not a variable setting literal: %q", ErrInvalidVariableRegex, settingLiteral)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidVariableRegex, err)
	}

	if re.NumSubexp() != 1 {
		return "", fmt.Errorf("%w: pattern %q has %d groups", ErrInvalidRegexGroupCount, pattern, re.NumSubexp())
	}

	m := re.FindStringSubmatch(nonCom)
	if m == nil {
		return "", fmt.Errorf("%w: pattern %q not found in %q", ErrInvalidVariableRegex, pattern, nonCom)
	}

	return m[1], nil
}

// RewriteVariable substitutes the single capture group of a variable
// setting's embedded regex within nonCom, reassembling the line as
// nestedPrefix + newNonCom + wholeCom. settingLiteral is the annotation's
// setting field, e.g. `='= (.*);'`.
func RewriteVariable(nestedPrefix, nonCom, wholeCom, settingLiteral, replacement string) (string, error) {
	pattern, ok := macro.VariableRegex(settingLiteral)
	if !ok {
		return "", fmt.Errorf("%w: not a variable setting literal: %q", ErrInvalidVariableRegex, settingLiteral)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidVariableRegex, err)
	}

	if re.NumSubexp() != 1 {
		return "", fmt.Errorf("%w: pattern %q has %d groups", ErrInvalidRegexGroupCount, pattern, re.NumSubexp())
	}

	loc := re.FindStringSubmatchIndex(nonCom)
	if loc == nil {
		return "", fmt.Errorf("%w: pattern %q not found in %q", ErrInvalidVariableRegex, pattern, nonCom)
	}

	groupStart, groupEnd := loc[2], loc[3]
	if groupStart < 0 || groupEnd < 0 {
		return "", fmt.Errorf("%w: capture group did not participate in match", ErrInvalidVariableRegex)
	}

	newNonCom := nonCom[:groupStart] + replacement + nonCom[groupEnd:]

	return nestedPrefix + newNonCom + wholeCom, nil
}
