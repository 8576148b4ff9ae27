// Package walkfs implements the directory-tree walk that yields
// candidate files for the macro engine (4.B), applying ignore-glob
// lists for directory components and file basenames.
package walkfs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Config controls which paths the walk yields.
type Config struct {
	// IgnoreDirs is a list of Unix shell-style globs matched against
	// each directory path component.
	IgnoreDirs []string
	// IgnoreFiles is a list of Unix shell-style globs matched against
	// each regular file's base name.
	IgnoreFiles []string
}

// DefaultIgnoreDirs matches the original's default ignore list: dotfiles,
// VCS and build directories, and the tool's own auxiliary directory.
var DefaultIgnoreDirs = []string{
	".*", "__pycache__", "node_modules", "build", "dist", "target", "vendor",
}

// DefaultIgnoreFiles matches the original's default file ignore list:
// dotfiles, common binary/image/archive extensions, and the optionset
// auxiliary files themselves.
var DefaultIgnoreFiles = []string{
	".*",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.ico",
	"*.zip", "*.tar", "*.gz", "*.bz2", "*.xz",
	"*.o", "*.so", "*.a", "*.exe", "*.dll",
	"*.pdf",
	"optionset.cfg", "optionset.log",
}

// Walk calls yield for every candidate file path beneath root, in
// directory-walk order. Directories are pruned if their base name
// matches an IgnoreDirs glob (Unix shell semantics, per path component,
// matching the original's fnmatch-based matching rather than recursive
// `**` globbing). Symbolic links are followed, matching the original's
// os.walk(followlinks=True); walkfs guards against symlink cycles by
// tracking the resolved directories already visited.
func Walk(root string, cfg Config, yield func(path string) error) error {
	seen := map[string]bool{}

	return walkDir(root, root, cfg, seen, yield)
}

func walkDir(dir, displayDir string, cfg Config, seen map[string]bool, yield func(path string) error) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}

	if seen[resolved] {
		return nil
	}

	seen[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)
		displayPath := filepath.Join(displayDir, name)

		info, err := entry.Info()
		if err != nil {
			continue
		}

		isDir := entry.IsDir()

		if info.Mode()&fs.ModeSymlink != 0 {
			target, statErr := os.Stat(path)
			if statErr != nil {
				continue
			}

			isDir = target.IsDir()
		}

		if isDir {
			if matchesAny(cfg.IgnoreDirs, name) {
				continue
			}

			if err := walkDir(path, displayPath, cfg, seen, yield); err != nil {
				return err
			}

			continue
		}

		if matchesAny(cfg.IgnoreFiles, name) {
			continue
		}

		if err := yield(displayPath); err != nil {
			return err
		}
	}

	return nil
}

func matchesAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, name); err == nil && ok {
			return true
		}
	}

	return false
}
