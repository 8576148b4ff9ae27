// Package driver orchestrates the run driver (4.H): walking candidate
// files, invoking the file processor for each, aggregating the
// availability database, and rendering the discovery-mode report or the
// bash-completion script.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"go.optionset.dev/optionset/internal/availability"
	"go.optionset.dev/optionset/internal/fileproc"
	"go.optionset.dev/optionset/internal/mutate"
	"go.optionset.dev/optionset/internal/request"
	"go.optionset.dev/optionset/internal/runconfig"
	"go.optionset.dev/optionset/internal/walkfs"
)

// Options configures one run.
type Options struct {
	Root       string
	Request    *request.InputRequest
	FileConfig runconfig.Config
	Logger     *slog.Logger
	DryRun     bool
}

// Summary is the outcome of one run.
type Summary struct {
	DB            *availability.Database
	ModifiedFiles []string
	SkippedFiles  int
}

// Run walks Options.Root, processes every candidate file, and returns
// the aggregated availability database plus the list of modified files.
// Input/regex-group errors abort the run; per-file size/binary/missing-
// indicator conditions are logged (or silently skipped, per 7) and the
// walk continues.
func Run(opts Options) (*Summary, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	db := availability.NewDatabase()
	summary := &Summary{DB: db}

	walkCfg := walkfs.Config{
		IgnoreDirs:  opts.FileConfig.IgnoreDirs,
		IgnoreFiles: opts.FileConfig.IgnoreFiles,
	}
	procCfg := fileproc.Config{
		MaxFileSizeKB: opts.FileConfig.MaxFileSizeKB,
		MaxLines:      opts.FileConfig.MaxLines,
		DryRun:        opts.DryRun,
		Logger:        opts.Logger,
	}

	walkErr := walkfs.Walk(opts.Root, walkCfg, func(path string) error {
		result, err := fileproc.Process(path, procCfg, opts.Request, db)
		if err != nil {
			return handleFileError(opts.Logger, summary, path, err)
		}

		if result.Modified {
			summary.ModifiedFiles = append(summary.ModifiedFiles, result.Path)
			opts.Logger.Info("file modified", "path", result.Path)
		}

		return nil
	})
	if walkErr != nil {
		return summary, walkErr
	}

	db.PruneSingletons()

	return summary, nil
}

// handleFileError implements the error-handling policy table in 7:
// size/line/binary conditions and a missing indicator are non-fatal
// (skip and continue); a malformed variable-setting regex aborts the
// entire run, since the user's intent cannot be safely disambiguated.
func handleFileError(logger *slog.Logger, summary *Summary, path string, err error) error {
	switch {
	case errors.Is(err, fileproc.ErrNoCommentIndicator):
		return nil
	case errors.Is(err, fileproc.ErrFileTooLarge),
		errors.Is(err, fileproc.ErrFileTooManyLines),
		errors.Is(err, fileproc.ErrBinaryFile):
		summary.SkippedFiles++
		logger.Warn(err.Error(), "path", path)

		return nil
	case errors.Is(err, mutate.ErrInvalidVariableRegex),
		errors.Is(err, mutate.ErrInvalidRegexGroupCount):
		return fmt.Errorf("aborting run: %w", err)
	default:
		summary.SkippedFiles++
		logger.Warn("skipping file", "path", path, "error", err)

		return nil
	}
}

// FilterPattern builds the glob pattern the report is filtered by from
// the user's partial option string: an empty string matches everything,
// otherwise the string is treated as a prefix with an implicit trailing
// wildcard, matching the original's partial-option report filtering.
func FilterPattern(partial string) string {
	if partial == "" {
		return "*"
	}

	if strings.ContainsAny(partial, "*?[") {
		return partial
	}

	return partial + "*"
}

// WriteBashCompletion writes a bash-completion script to w, listing every
// discovered option key as a completion word for cmdName. Grounded on the
// original's hand-rolled completion-file writer: the whole script comes
// from a text/template, and Cobra's completion generation is not used.
func WriteBashCompletion(w io.Writer, cmdName string, db *availability.Database) error {
	keys := db.Keys()
	sort.Strings(keys)

	tmpl := template.Must(template.New("completion").Parse(bashCompletionTemplate))

	return tmpl.Execute(w, struct {
		CmdName string
		Options []string
	}{CmdName: cmdName, Options: keys})
}

const bashCompletionTemplate = `# bash completion for {{.CmdName}}, generated from the discovered option set.
_{{.CmdName}}_options()
{
    local cur opts
    cur="${COMP_WORDS[COMP_CWORD]}"
    opts="{{range $i, $o := .Options}}{{if $i}} {{end}}{{$o}}{{end}}"
    COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
}
complete -F _{{.CmdName}}_options {{.CmdName}}
`

// Report renders db's availability report, keeping only option keys
// matching pattern (see [FilterPattern]). In show-files mode, a single
// "Common files:" footer is appended listing the deduplicated union of
// files across every matched option, but only when more than one option
// matched the pattern, matching the original's
// `if show_files_db is not None and num_optns > 1` gate in
// _print_available: a single matched option's own file list is not
// "common" to anything.
func Report(db *availability.Database, pattern string, showFiles bool) string {
	filtered := availability.NewDatabase()

	var matchedKeys []string

	for _, key := range db.Keys() {
		ok, err := filepath.Match(pattern, key)
		if err != nil || !ok {
			continue
		}

		settings := db.Settings(key)
		if settings.Len() < 2 {
			continue
		}

		dst := filtered.Settings(key)
		for _, setting := range settings.Keys() {
			entry, _ := settings.Get(setting)
			dst.Set(setting, entry)
		}

		if files, ok := db.Files[key]; ok {
			filtered.Files[key] = files
		}

		matchedKeys = append(matchedKeys, key)
	}

	report := filtered.Report()

	if showFiles && len(matchedKeys) > 1 {
		if common := commonFiles(filtered, matchedKeys); len(common) > 0 {
			var b strings.Builder
			b.WriteString(report)
			b.WriteString("Common files:\n")

			for _, f := range common {
				b.WriteString("    ")
				b.WriteString(f)
				b.WriteString("\n")
			}

			report = b.String()
		}
	}

	return report
}

// commonFiles unions db.Files across keys, deduplicated and sorted,
// matching the original's set-union-then-sort before printing.
func commonFiles(db *availability.Database, keys []string) []string {
	seen := map[string]bool{}

	var out []string

	for _, key := range keys {
		for _, f := range db.Files[key] {
			if !seen[f] {
				seen[f] = true

				out = append(out, f)
			}
		}
	}

	sort.Strings(out)

	return out
}
