// Package availability implements the per-(option,setting) state table
// (4.E) and the ordered databases the run driver aggregates across a
// tree walk, plus their report rendering.
package availability

import "strings"

// State is one of the five states an (option, setting) pair can occupy.
type State int

const (
	// StateUnset means no observation has been recorded yet; callers
	// never store this value, it is only the table's starting point.
	StateUnset State = iota
	StateActive
	StateInactive
	StateAmbiguous
	StateVariable
	StateBoth
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateAmbiguous:
		return "ambiguous"
	case StateVariable:
		return "variable"
	case StateBoth:
		return "both"
	default:
		return "unset"
	}
}

// Entry is one setting's recorded state within an option.
type Entry struct {
	State State
	// Value holds the live captured substring for a StateVariable entry.
	Value string
}

// Settings is an insertion-ordered map from setting key to [Entry].
// Insertion order is preserved for reproducible report output, matching
// the original's ordered-dict database.
type Settings struct {
	order   []string
	entries map[string]Entry
}

// NewSettings creates an empty ordered settings map.
func NewSettings() *Settings {
	return &Settings{entries: map[string]Entry{}}
}

// Get returns the entry for setting and whether it is present.
func (s *Settings) Get(setting string) (Entry, bool) {
	e, ok := s.entries[setting]
	return e, ok
}

// Set inserts or replaces the entry for setting, preserving first-seen
// insertion order.
func (s *Settings) Set(setting string, e Entry) {
	if _, ok := s.entries[setting]; !ok {
		s.order = append(s.order, setting)
	}

	s.entries[setting] = e
}

// Len reports the number of distinct settings recorded.
func (s *Settings) Len() int {
	return len(s.order)
}

// Keys returns settings in insertion order.
func (s *Settings) Keys() []string {
	return s.order
}

// Database is an insertion-ordered map from option key to its [Settings].
type Database struct {
	order   []string
	options map[string]*Settings
	// Files maps an option key to the set of files (insertion order
	// preserved) in which it was observed, used in show-files mode.
	Files map[string][]string
}

// NewDatabase creates an empty availability database.
func NewDatabase() *Database {
	return &Database{
		options: map[string]*Settings{},
		Files:   map[string][]string{},
	}
}

// Settings returns (creating if absent) the settings map for optionKey.
func (d *Database) Settings(optionKey string) *Settings {
	s, ok := d.options[optionKey]
	if !ok {
		s = NewSettings()
		d.options[optionKey] = s
		d.order = append(d.order, optionKey)
	}

	return s
}

// Keys returns option keys in insertion order.
func (d *Database) Keys() []string {
	return d.order
}

// RecordFile notes that optionKey was observed in path, without
// duplicating an already-recorded path.
func (d *Database) RecordFile(optionKey, path string) {
	paths := d.Files[optionKey]
	for _, p := range paths {
		if p == path {
			return
		}
	}

	d.Files[optionKey] = append(paths, path)
}

// Observe applies one (option, setting) sighting to the database per the
// state table in 4.E. inlineCount is the number of annotations on the
// sighting's line that carry optionKey (the "Both" trigger).
func (d *Database) Observe(optionKey, setting string, commented bool, inlineCount int) {
	settings := d.Settings(optionKey)
	existing, ok := settings.Get(setting)

	var next State

	switch {
	case !ok && inlineCount >= 2:
		next = StateBoth
	case !ok:
		if commented {
			next = StateInactive
		} else {
			next = StateActive
		}
	default:
		next = transition(existing.State, commented)
	}

	settings.Set(setting, Entry{State: next})
}

// ObserveVariable records a variable-setting observation, which always
// overwrites with [StateVariable] and the live captured value.
func (d *Database) ObserveVariable(optionKey, setting, value string) {
	d.Settings(optionKey).Set(setting, Entry{State: StateVariable, Value: value})
}

// transition implements the table body for an already-observed entry.
func transition(existing State, commented bool) State {
	switch existing {
	case StateActive:
		if commented {
			return StateAmbiguous
		}

		return StateActive
	case StateInactive:
		if commented {
			return StateInactive
		}

		return StateAmbiguous
	case StateAmbiguous:
		return StateAmbiguous
	case StateBoth:
		return StateBoth
	default:
		if commented {
			return StateInactive
		}

		return StateActive
	}
}

// PruneSingletons removes every option whose settings map has fewer than
// two entries, per 4.H step 3 ("singletons aren't useful for toggling").
func (d *Database) PruneSingletons() {
	kept := d.order[:0]

	for _, key := range d.order {
		if d.options[key].Len() < 2 {
			delete(d.options, key)
			delete(d.Files, key)

			continue
		}

		kept = append(kept, key)
	}

	d.order = kept
}

// marker formats one setting entry the way the availability report
// renders it: ">active<", " inactive ", "?ambiguous?",
// "=variable=(value)"; a StateBoth entry renders like an ambiguous one.
func marker(e Entry, setting string) string {
	switch e.State {
	case StateActive:
		return ">" + setting + "<"
	case StateInactive:
		return " " + setting + " "
	case StateAmbiguous:
		return "?" + setting + "?"
	case StateVariable:
		return "=" + setting + "=(" + e.Value + ")"
	case StateBoth:
		return "?" + setting + "?"
	default:
		return " " + setting + " "
	}
}

// Report renders the availability database's option/setting sections as
// the human-readable report text the original emits for --available /
// --show-files, grounded on the original's _print_available. The
// "Common files:" footer is not rendered here: it is a single,
// deduplicated union across every option the report matched, not a
// per-option list, and is appended by the caller (see
// [driver.Report]) once it knows how many options matched.
func (d *Database) Report() string {
	var b strings.Builder

	for _, optionKey := range d.order {
		settings := d.options[optionKey]
		if settings.Len() < 2 {
			continue
		}

		b.WriteString(optionKey)
		b.WriteString(":\n")

		for _, setting := range settings.Keys() {
			entry, _ := settings.Get(setting)
			b.WriteString("    ")
			b.WriteString(marker(entry, setting))
			b.WriteString("\n")
		}
	}

	return b.String()
}
