// Package fileproc drives the comment-indicator detector, line
// classifier, scope state machine, and line mutator across one file's
// lines, then rewrites the file iff modified (4.C, 4.G). Grounded on the
// teacher's cmd/godocfmt read-whole-file/buffer/rewrite-in-place pipeline,
// adapted from a Go-doc-comment reformatter to a line-by-line macro
// engine and from truncating os.WriteFile to an atomic temp-then-rename.
package fileproc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.optionset.dev/optionset/internal/availability"
	"go.optionset.dev/optionset/internal/classify"
	"go.optionset.dev/optionset/internal/request"
	"go.optionset.dev/optionset/internal/scope"
)

var (
	// ErrFileTooLarge indicates a file exceeded Config.MaxFileSizeKB.
	ErrFileTooLarge = errors.New("file skipped: too large")
	// ErrFileTooManyLines indicates a file exceeded Config.MaxLines.
	ErrFileTooManyLines = errors.New("file skipped: too many lines")
	// ErrBinaryFile indicates a file's leading bytes are not valid UTF-8.
	ErrBinaryFile = errors.New("file skipped: binary content")
	// ErrNoCommentIndicator indicates no recognizable comment indicator
	// was found; this is a silent-skip condition, not reported as an
	// error to the user, but returned here so callers can distinguish it.
	ErrNoCommentIndicator = errors.New("file skipped: no comment indicator")
)

// Config bounds the sizes of files the processor will read, per 4.C.
type Config struct {
	MaxFileSizeKB int
	MaxLines      int
	// DryRun runs the scope machine and reports Result.Modified as usual,
	// but never rewrites the file, for the --dry-run CLI flag.
	DryRun bool
	// Logger, if set, receives per-line debug trace events from the
	// scope machine. Nil is safe.
	Logger *slog.Logger
}

// DefaultConfig matches the original's defaults.
var DefaultConfig = Config{MaxFileSizeKB: 10, MaxLines: 9999}

// Result reports the outcome of processing one file.
type Result struct {
	Path     string
	Modified bool
	// LineEnding is the line terminator detected in the file ("\n" or
	// "\r\n"), reused when rewriting so line endings are preserved.
	LineEnding string
}

// sniffLen is how many leading bytes are checked for valid UTF-8 before
// treating a file as binary, bounding the cost of the check on large
// files that will be skipped anyway.
const sniffLen = 512

// Process reads path, runs every line through a [scope.Machine], and
// rewrites the file iff at least one line changed. db accumulates
// discovery-mode observations; req selects the operating mode.
func Process(path string, cfg Config, req *request.InputRequest, db *availability.Database) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Path: path}, err
	}

	if cfg.MaxFileSizeKB > 0 && info.Size() > int64(cfg.MaxFileSizeKB)*1024 {
		return Result{Path: path}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path}, err
	}

	if isBinary(raw) {
		return Result{Path: path}, fmt.Errorf("%w: %s", ErrBinaryFile, path)
	}

	lineEnding := "\n"
	if bytes.Contains(raw, []byte("\r\n")) {
		lineEnding = "\r\n"
	}

	lines, err := splitLines(raw, cfg.MaxLines)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("%w: %s", err, path)
	}

	trailingNewline := len(raw) > 0 && (raw[len(raw)-1] == '\n')

	comInd, ok := classify.DetectIndicator(lines)
	if !ok {
		return Result{Path: path}, fmt.Errorf("%w: %s", ErrNoCommentIndicator, path)
	}

	machine := scope.NewMachine(req, db, path)
	machine.Logger = cfg.Logger
	fs := scope.NewFileState(comInd)

	out := make([]string, len(lines))

	for i, line := range lines {
		newLine, err := machine.Step(fs, i+1, line)
		if err != nil {
			return Result{Path: path}, err
		}

		out[i] = newLine
	}

	result := Result{Path: path, Modified: fs.Modified, LineEnding: lineEnding}

	if !fs.Modified || req.Mode.Discover() || cfg.DryRun {
		return result, nil
	}

	if err := writeAtomic(path, out, lineEnding, trailingNewline, info.Mode()); err != nil {
		return result, err
	}

	return result, nil
}

// splitLines splits raw into lines with their terminators removed,
// rejecting input over maxLines. Whether raw ends in a terminator is not
// recorded here; Process tracks that separately.
func splitLines(raw []byte, maxLines int) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, stripCR(scanner.Text()))

		if maxLines > 0 && len(lines) > maxLines {
			return nil, ErrFileTooManyLines
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func stripCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}

	return s
}

func isBinary(raw []byte) bool {
	n := len(raw)
	if n > sniffLen {
		n = sniffLen
	}

	return !utf8.Valid(raw[:n])
}

// writeAtomic writes lines, joined by lineEnding, to a temp file in
// path's directory, then renames it over path. Preferred over
// truncate-then-write for the reasons in 5 ("Implementations should
// prefer write-to-temp-then-rename for atomicity").
func writeAtomic(path string, lines []string, lineEnding string, trailingNewline bool, mode os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".optionset-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)

	for i, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			tmp.Close()
			return err
		}

		if i < len(lines)-1 || trailingNewline {
			if _, err := w.WriteString(lineEnding); err != nil {
				tmp.Close()
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
