// Package stringtest builds expected multi-line test output with
// explicit line endings, for byte-exact comparisons against rewritten
// files.
package stringtest

import "strings"

// JoinLF joins multiple strings with LF line endings.
//
// Example:
//
//	want := stringtest.JoinLF(
//		"line1",
//		"line2",
//	) // -> "line1\nline2"
func JoinLF(ss ...string) string {
	var sb strings.Builder

	for i, s := range ss {
		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(s)
	}

	return sb.String()
}

// JoinCRLF joins multiple strings with CRLF line endings, for files
// whose detected line ending is "\r\n".
//
// Example:
//
//	want := stringtest.JoinCRLF(
//		"line1",
//		"line2",
//	) // -> "line1\r\nline2"
func JoinCRLF(ss ...string) string {
	var sb strings.Builder

	for i, s := range ss {
		if i > 0 {
			sb.WriteByte('\r')
			sb.WriteByte('\n')
		}

		sb.WriteString(s)
	}

	return sb.String()
}
