// Package scope implements the per-file state machine (4.E): multi-line
// toggle inheritance, nested-scope depth tracking, and the per-line
// decision of whether and how to mutate a line under one [request.InputRequest].
package scope

import (
	"fmt"
	"log/slog"

	"go.optionset.dev/optionset/internal/availability"
	"go.optionset.dev/optionset/internal/classify"
	"go.optionset.dev/optionset/internal/macro"
	"go.optionset.dev/optionset/internal/mutate"
	"go.optionset.dev/optionset/internal/request"
)

// FileState is the mutable record threaded through every line of one
// file. Never shared across files and never global, per the design note
// in spec 9 ("state machine vs. closures").
type FileState struct {
	Modified              bool
	MultilineActive       bool
	MultilineWasCommented bool
	NestedLevel           int
	NestedIncrement       int
	CommentIndicator      string
	// NestedOptionStack maps a nesting depth to the option key that
	// opened the multi-line scope at that depth.
	NestedOptionStack map[int]string
}

// NewFileState creates a [FileState] for a file whose comment indicator
// has already been detected.
func NewFileState(commentIndicator string) *FileState {
	return &FileState{
		CommentIndicator:  commentIndicator,
		NestedOptionStack: map[int]string{},
	}
}

// Machine evaluates one line at a time against one [request.InputRequest],
// recording discoveries into an [availability.Database] and producing
// mutated lines in apply/rename modes.
type Machine struct {
	Request *request.InputRequest
	DB      *availability.Database
	// FilePath names the file in error messages and the debug trace, and
	// is recorded into the database's file sets in show-files mode.
	FilePath string
	// Logger receives a per-line debug trace, matching the original's
	// LINE[n](...) diagnostic. Nil is safe and disables tracing.
	Logger *slog.Logger
}

// NewMachine creates a [Machine] for one run.
func NewMachine(req *request.InputRequest, db *availability.Database, filePath string) *Machine {
	return &Machine{Request: req, DB: db, FilePath: filePath}
}

// Step processes line number lineNo (1-based) of fs's file, returning the
// line to write back (identical to line if no edit applies).
func (m *Machine) Step(fs *FileState, lineNo int, line string) (string, error) {
	if m.Logger != nil {
		m.Logger.Debug(fmt.Sprintf("LINE[%d](%s)", lineNo, line), "file", m.FilePath, "nested_level", fs.NestedLevel)
	}

	fs.NestedLevel += fs.NestedIncrement
	if fs.NestedLevel < 0 {
		fs.NestedLevel = 0
	}

	fs.NestedIncrement = 0

	cls := classify.Line(line, fs.CommentIndicator, fs.NestedLevel)

	if !cls.Matched {
		if fs.MultilineActive {
			return m.toggleInherit(fs, line), nil
		}

		return line, nil
	}

	if m.Request.Mode == request.ModeRenameOption || m.Request.Mode == request.ModeRenameSetting {
		newLine, renamed := m.applyRename(cls, line)
		if renamed && newLine != line {
			fs.Modified = true
		}

		return newLine, nil
	}

	return m.processAnnotations(fs, cls, line)
}

// toggleInherit is step 5: a line with no annotation inherits the
// enclosing multi-line scope's commented/uncommented state.
func (m *Machine) toggleInherit(fs *FileState, line string) string {
	var newLine string
	if fs.MultilineWasCommented {
		newLine = mutate.Uncomment(line, fs.CommentIndicator)
	} else {
		newLine = mutate.Comment(line, fs.CommentIndicator)
	}

	if newLine != line {
		fs.Modified = true
	}

	return newLine
}

// applyRename rewrites the first inline annotation on the line whose key
// matches the request's option key, substituting either the option or
// the setting portion. Only the first match is acted upon (only one
// rename per line is ever needed, and a second identical annotation on
// one line would otherwise double-edit the already-rewritten text).
func (m *Machine) applyRename(cls classify.Classification, line string) (string, bool) {
	for _, a := range cls.Annotations {
		if a.Key() != m.Request.OptionKey() {
			continue
		}

		var oldFrag, newFrag string

		switch m.Request.Mode {
		case request.ModeRenameOption:
			oldFrag = a.Tag + a.Option
			newFrag = m.Request.RenameOption
		case request.ModeRenameSetting:
			if a.Setting != m.Request.Setting {
				continue
			}

			oldFrag = a.Setting
			newFrag = m.Request.RenameSetting
		default:
			continue
		}

		idx := indexOnce(line, oldFrag)
		if idx < 0 {
			continue
		}

		return line[:idx] + newFrag + line[idx+len(oldFrag):], true
	}

	return line, false
}

// indexOnce finds frag within s, preferring an occurrence inside a
// comment body if more than one exists, since annotations only ever
// appear there; a simple last-occurrence search is sufficient because
// the line classifier has already confirmed a comment body is present.
func indexOnce(s, frag string) int {
	last := -1

	for i := 0; i+len(frag) <= len(s); i++ {
		if s[i:i+len(frag)] == frag {
			last = i
		}
	}

	return last
}

// processAnnotations is steps 6-7: the per-annotation loop, covering
// multi-line bookkeeping and discovery/apply actions.
func (m *Machine) processAnnotations(fs *FileState, cls classify.Classification, line string) (string, error) {
	counts := map[string]int{}
	for _, a := range cls.Annotations {
		counts[a.Key()]++
	}

	optionMatchesAnySetting := false

	for _, a := range cls.Annotations {
		if a.Key() == m.Request.OptionKey() && a.Setting == m.Request.Setting {
			optionMatchesAnySetting = true
		}
	}

	newLine := line
	frozen := false

	for _, a := range cls.Annotations {
		if frozen {
			break
		}

		key := a.Key()

		if a.MTag {
			if cls.IsCommented {
				fs.NestedOptionStack[fs.NestedLevel] = key
				fs.NestedIncrement = 1
			} else if prev, ok := fs.NestedOptionStack[fs.NestedLevel-1]; ok && prev == key {
				delete(fs.NestedOptionStack, fs.NestedLevel-1)

				fs.NestedIncrement = -1
				fs.MultilineActive = false
				frozen = true

				if m.Request.Mode == request.ModeApplySetting && key == m.Request.OptionKey() && a.Setting == m.Request.Setting {
					newLine = mutate.Uncomment(newLine, fs.CommentIndicator)
				}

				if newLine != line {
					fs.Modified = true
				}

				break
			}
		}

		if m.Request.Mode.Discover() {
			m.observeDiscovery(key, a, cls, counts[key])

			continue
		}

		if m.Request.Mode != request.ModeApplySetting || key != m.Request.OptionKey() {
			continue
		}

		if cls.IsCommented {
			if a.Setting == m.Request.Setting {
				newLine = mutate.Uncomment(newLine, fs.CommentIndicator)
				if a.MTag {
					// The scope is turning from commented to active:
					// interior lines must be uncommented too.
					fs.MultilineActive = true
					fs.MultilineWasCommented = true
				}

				frozen = true
			}

			continue
		}

		if macro.IsVariableSetting(a.Setting) {
			rewritten, err := mutate.RewriteVariable(cls.NestedPrefix, cls.NonCom, cls.WholeCom, a.Setting, m.Request.Setting)
			if err != nil {
				return line, fmt.Errorf("file %s: %w", m.FilePath, err)
			}

			newLine = rewritten
			frozen = true

			continue
		}

		if !optionMatchesAnySetting {
			newLine = mutate.Comment(newLine, fs.CommentIndicator)
			if a.MTag {
				// The scope is turning from active to commented:
				// interior lines must be commented too.
				fs.MultilineActive = true
				fs.MultilineWasCommented = false
			}

			frozen = true
		}
	}

	if newLine != line {
		fs.Modified = true
	}

	return newLine, nil
}

// observeDiscovery updates the availability database and, in show-files
// mode, the per-option file set, per the state table in 4.E.
func (m *Machine) observeDiscovery(key string, a macro.Annotation, cls classify.Classification, inlineCount int) {
	if macro.IsVariableSetting(a.Setting) {
		value, err := mutate.CaptureVariable(cls.NonCom, a.Setting)
		if err == nil {
			m.DB.ObserveVariable(key, a.Setting, value)
		}
	} else {
		m.DB.Observe(key, a.Setting, cls.IsCommented, inlineCount)
	}

	if m.Request.Mode == request.ModeShowFiles && m.FilePath != "" {
		m.DB.RecordFile(key, m.FilePath)
	}
}
