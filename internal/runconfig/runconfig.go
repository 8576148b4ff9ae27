// Package runconfig loads and defaults the INI-style configuration file
// under the auxiliary directory (6, "Configuration file"), grounded on
// the original's _load_program_settings: missing keys and a missing file
// both fall back to defaults, and a freshly created file is written back
// with those defaults so subsequent runs see an editable copy.
package runconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"go.optionset.dev/optionset/internal/walkfs"
)

// ErrInvalidConfigFile indicates the config file has an unparseable
// integer value or is otherwise malformed.
var ErrInvalidConfigFile = errors.New("invalid config file")

// FileName is the config file's name within the auxiliary directory.
const FileName = "optionset.cfg"

// Config mirrors the [Files] section of the config file.
type Config struct {
	IgnoreDirs    []string
	IgnoreFiles   []string
	MaxLines      int
	MaxFileSizeKB int
}

// Default returns the built-in defaults, matching the original's
// DEFAULT_MAX_FLINES / DEFAULT_MAX_FSIZE_KB / default ignore globs.
func Default() Config {
	return Config{
		IgnoreDirs:    append([]string(nil), walkfs.DefaultIgnoreDirs...),
		IgnoreFiles:   append([]string(nil), walkfs.DefaultIgnoreFiles...),
		MaxLines:      9999,
		MaxFileSizeKB: 10,
	}
}

// Load reads the config file at auxDir/optionset.cfg. If the file does
// not exist, it is created with default values (unless writeDefaults is
// false, e.g. when --no-log-equivalent suppression is requested) and
// [Default] is returned.
func Load(auxDir string, writeDefaults bool) (Config, error) {
	path := filepath.Join(auxDir, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if writeDefaults {
			if err := Save(auxDir, cfg); err != nil {
				return cfg, err
			}
		}

		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
	}

	section := f.Section("Files")
	cfg := Default()

	if section.HasKey("ignore_dirs") {
		cfg.IgnoreDirs = splitCSV(section.Key("ignore_dirs").String())
	}

	if section.HasKey("ignore_files") {
		cfg.IgnoreFiles = splitCSV(section.Key("ignore_files").String())
	}

	if section.HasKey("max_flines") {
		v, err := section.Key("max_flines").Int()
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: max_flines: %w", ErrInvalidConfigFile, path, err)
		}

		cfg.MaxLines = v
	}

	if section.HasKey("max_fsize_kb") {
		v, err := section.Key("max_fsize_kb").Int()
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: max_fsize_kb: %w", ErrInvalidConfigFile, path, err)
		}

		cfg.MaxFileSizeKB = v
	}

	return cfg, nil
}

// Save writes cfg to auxDir/optionset.cfg, creating auxDir if needed.
func Save(auxDir string, cfg Config) error {
	if err := os.MkdirAll(auxDir, 0o755); err != nil {
		return err
	}

	f := ini.Empty()
	section, err := f.NewSection("Files")
	if err != nil {
		return err
	}

	if _, err := section.NewKey("ignore_dirs", strings.Join(cfg.IgnoreDirs, ",")); err != nil {
		return err
	}

	if _, err := section.NewKey("ignore_files", strings.Join(cfg.IgnoreFiles, ",")); err != nil {
		return err
	}

	if _, err := section.NewKey("max_flines", fmt.Sprintf("%d", cfg.MaxLines)); err != nil {
		return err
	}

	if _, err := section.NewKey("max_fsize_kb", fmt.Sprintf("%d", cfg.MaxFileSizeKB)); err != nil {
		return err
	}

	return f.SaveTo(filepath.Join(auxDir, FileName))
}

func splitCSV(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
