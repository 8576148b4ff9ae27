// Package classify detects a file's comment indicator (4.C) and, given
// that indicator and a line's current nesting depth, splits a line into
// its non-comment prefix, comment body, and annotation triples (4.D).
package classify

import (
	"strings"

	"go.optionset.dev/optionset/internal/macro"
)

// DetectIndicator picks the comment indicator for a file's lines.
//
// First pass: the first line beginning with optional whitespace then one
// of [macro.Indicators] wins. Second pass, if no line qualifies: the
// first line containing an indicator that is followed, anywhere later in
// the line, by a valid annotation wins (the original's "generic
// UncommentedLine, tag=wildcard" pass, expressed here as a scan for any
// indicator occurrence that yields a non-empty annotation scan).
func DetectIndicator(lines []string) (string, bool) {
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		for _, ind := range macro.Indicators {
			if strings.HasPrefix(trimmed, ind) {
				return ind, true
			}
		}
	}

	for _, line := range lines {
		for _, ind := range macro.Indicators {
			idx := strings.Index(line, ind)
			for idx >= 0 {
				if len(macro.ScanAnnotations(ind, line[idx:])) > 0 {
					return ind, true
				}
				next := strings.Index(line[idx+1:], ind)
				if next < 0 {
					break
				}
				idx = idx + 1 + next
			}
		}
	}

	return "", false
}

// Classification is the result of classifying one line against one
// comment indicator and nesting depth.
type Classification struct {
	// NestedPrefix is the literal (whitespace+indicator) run consumed
	// for the line's current nested_level.
	NestedPrefix string
	// NonCom is the text before the macro-bearing comment (for a
	// commented line, this includes that line's own leading indicator).
	NonCom string
	// WholeCom is the comment body, starting at its indicator, that
	// contains the annotations.
	WholeCom string
	// IsCommented reports whether the line matched the commented form
	// (an indicator preceding NonCom) rather than the uncommented form.
	IsCommented bool
	// Annotations are every triple found in WholeCom.
	Annotations []macro.Annotation
	// Matched reports whether the line carries a recognizable macro
	// comment at all. When false, the line is passed through unchanged
	// except for multi-line inheritance.
	Matched bool
}

// Line classifies one line. comInd is the file's detected comment
// indicator; nestedLevel is the file-scope state's current nesting depth
// (see [scope.FileState]).
func Line(line, comInd string, nestedLevel int) Classification {
	rest := line
	var nestedPrefix strings.Builder

	for k := 0; k < nestedLevel; k++ {
		trimmed := strings.TrimLeft(rest, " \t")
		ws := rest[:len(rest)-len(trimmed)]

		if !strings.HasPrefix(trimmed, comInd) {
			return Classification{}
		}

		nestedPrefix.WriteString(ws)
		nestedPrefix.WriteString(comInd)
		rest = trimmed[len(comInd):]
	}

	var nonCom, wholeCom string

	isCommented := false
	trimmed := strings.TrimLeft(rest, " \t")
	ws := rest[:len(rest)-len(trimmed)]

	if strings.HasPrefix(trimmed, comInd) {
		afterInd := trimmed[len(comInd):]
		// The original's COMMD_LINE requires its non_com group to match
		// one or more characters, so a second indicator flush against
		// the first (idx == 0) does not qualify.
		if idx := strings.Index(afterInd, comInd); idx >= 1 {
			nonCom = ws + comInd + afterInd[:idx]
			wholeCom = afterInd[idx:]
			isCommented = true
		}
	}

	if !isCommented {
		idx := strings.Index(rest, comInd)
		// The original's UNCOMMD_LINE likewise requires its non_com
		// group to match one or more characters: a flush-left annotation
		// with no code before the indicator (idx == 0) is unrecognized.
		if idx < 1 {
			return Classification{}
		}
		nonCom = rest[:idx]
		wholeCom = rest[idx:]
	}

	anns := macro.ScanAnnotations(comInd, wholeCom)
	if len(anns) == 0 {
		return Classification{}
	}

	return Classification{
		NestedPrefix: nestedPrefix.String(),
		NonCom:       nonCom,
		WholeCom:     wholeCom,
		IsCommented:  isCommented,
		Annotations:  anns,
		Matched:      true,
	}
}
