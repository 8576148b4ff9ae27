// Package macro recognizes the annotation grammar embedded in comments:
// tag, option, and setting triples of the form
//
//	[*]<tag><option> <setting>
//
// Go's regexp engine is RE2 and has no negative lookahead, which the
// reference grammar's tag definition relies on to exclude the comment
// indicator as a multi-character sequence. Annotations are instead
// recognized with a hand-written rune scanner parameterized by the
// file's comment indicator, preserving the grammar's contract without an
// unsupported regex construct.
package macro

import (
	"strings"
	"unicode"
)

// Indicators lists the comment indicators this tool recognizes, in
// detection priority order.
var Indicators = []string{"//", "#", "%", "!", "--"}

// Annotation is one (mtag, tag, option, setting) triple found in a
// comment body.
type Annotation struct {
	MTag    bool
	Tag     string
	Option  string
	Setting string
}

// Key returns the option key: tag concatenated with option.
func (a Annotation) Key() string {
	return a.Tag + a.Option
}

// IsVariableSetting reports whether setting has the `='<regex>'` form.
func IsVariableSetting(setting string) bool {
	if len(setting) < 3 {
		return false
	}
	if setting[0] != '=' {
		return false
	}
	q := rune(setting[1])
	if !isQuoteRune(q) {
		return false
	}
	return strings.HasSuffix(setting, string(q)) && len(setting) > 3
}

// VariableRegex returns the regex text embedded in a variable setting
// literal, stripped of its surrounding `='...'` wrapper.
func VariableRegex(setting string) (string, bool) {
	if !IsVariableSetting(setting) {
		return "", false
	}
	return setting[2 : len(setting)-1], true
}

func isQuoteRune(r rune) bool {
	return r == '\'' || r == '"'
}

func isBracketRune(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

// isIdentRune reports whether r may appear in an option identifier or a
// plain (non-variable) setting: [A-Za-z0-9._+\-].
func isIdentRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '.', '_', '+', '-':
		return true
	}
	return false
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

// isTagRune reports whether r may appear in a tag: any character that is
// not whitespace, not part of comInd, not '*', not an identifier
// character, not a bracket, and not a quote.
func isTagRune(r rune, comInd string) bool {
	if isSpaceRune(r) || r == '*' {
		return false
	}
	if isIdentRune(r) || isBracketRune(r) || isQuoteRune(r) {
		return false
	}
	if strings.ContainsRune(comInd, r) {
		return false
	}
	return true
}

// ScanAnnotations scans a comment body (the text following — and
// including, per the grammar — the line's comment indicator) for every
// (mtag, tag, option, setting) annotation triple, in left-to-right order.
func ScanAnnotations(comInd, text string) []Annotation {
	runes := []rune(text)
	n := len(runes)
	var out []Annotation

	i := 0
	for i < n {
		start := i
		mtag := false

		if runes[i] == '*' {
			if i+1 < n && isTagRune(runes[i+1], comInd) {
				mtag = true
				i++
			} else {
				i = start + 1
				continue
			}
		}

		if i >= n || !isTagRune(runes[i], comInd) {
			i = start + 1
			continue
		}

		tagStart := i
		for i < n && isTagRune(runes[i], comInd) {
			i++
		}
		tag := string(runes[tagStart:i])

		optStart := i
		for i < n && isIdentRune(runes[i]) {
			i++
		}
		if i == optStart {
			i = start + 1
			continue
		}
		option := string(runes[optStart:i])

		wsStart := i
		for i < n && isSpaceRune(runes[i]) {
			i++
		}
		if i == wsStart {
			i = start + 1
			continue
		}

		setting, next, ok := scanSetting(runes, i)
		if !ok {
			i = start + 1
			continue
		}
		if next < n && !isSpaceRune(runes[next]) {
			i = start + 1
			continue
		}

		out = append(out, Annotation{MTag: mtag, Tag: tag, Option: option, Setting: setting})
		i = next
	}

	return out
}

// scanSetting parses a setting starting at runes[i]: either a plain
// identifier, or a variable-setting literal `='<text>'`.
func scanSetting(runes []rune, i int) (string, int, bool) {
	n := len(runes)

	if i < n && runes[i] == '=' && i+1 < n && isQuoteRune(runes[i+1]) {
		quote := runes[i+1]
		j := i + 2
		for j < n && runes[j] != quote {
			j++
		}
		if j >= n || j == i+2 {
			return "", i, false
		}
		end := j + 1
		return string(runes[i:end]), end, true
	}

	start := i
	for i < n && isIdentRune(runes[i]) {
		i++
	}
	if i == start {
		return "", i, false
	}
	return string(runes[start:i]), i, true
}
