// Package stamp applies the auto-loader to static HTML files, so pages served
// without the runtime middleware still carry is attributes on every behavior
// host.
package stamp

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pthm/behavioral"
)

// Options configures a Stamper.
type Options struct {
	// Root is the directory patterns are matched against.
	Root string
	// Include lists doublestar patterns, relative to Root, of files to stamp.
	Include []string
	// Exclude removes matches of Include.
	Exclude []string
	// DryRun reports what would change without writing.
	DryRun bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Stamper stamps HTML files under a root directory.
type Stamper struct {
	rt     *behavioral.Runtime
	opts   Options
	logger *slog.Logger
}

// Result describes one stamped file.
type Result struct {
	// Path is relative to the root, slash separated.
	Path string
	// Elements is the number of elements given an is attribute.
	Elements int
	// Written reports whether the file was rewritten.
	Written bool
}

// New creates a stamper. rt supplies the registry used to warn about unknown
// behavior names.
func New(rt *behavioral.Runtime, opts Options) *Stamper {
	if opts.Root == "" {
		opts.Root = "."
	}
	if len(opts.Include) == 0 {
		opts.Include = []string{"**/*.html"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stamper{rt: rt, opts: opts, logger: logger}
}

// Files returns the files selected by the include and exclude patterns,
// sorted.
func (s *Stamper) Files() ([]string, error) {
	fsys := os.DirFS(s.opts.Root)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range s.opts.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || s.excluded(m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Selected reports whether the slash-separated path rel would be stamped.
func (s *Stamper) Selected(rel string) bool {
	if s.excluded(rel) {
		return false
	}
	for _, pattern := range s.opts.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Stamper) excluded(rel string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Run stamps every selected file. A failing file does not stop the others;
// their errors are joined.
func (s *Stamper) Run() ([]Result, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}

	var results []Result
	var errs []error
	for _, rel := range files {
		res, err := s.File(rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// File stamps one file given relative to the root. Complete documents are
// parsed as documents; anything else as a fragment, so partial templates
// keep their shape.
func (s *Stamper) File(rel string) (Result, error) {
	res := Result{Path: rel}
	path := filepath.Join(s.opts.Root, filepath.FromSlash(rel))

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stamp %s: %w", rel, err)
	}
	markup, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("stamp %s: %w", rel, err)
	}

	stamped, n, err := s.rt.StampHTML(markup, !behavioral.IsDocument(markup))
	if err != nil {
		return res, fmt.Errorf("stamp %s: %w", rel, err)
	}
	res.Elements = n
	if n == 0 {
		return res, nil
	}

	if s.opts.DryRun {
		s.logger.Info("would stamp", "path", rel, "elements", n)
		return res, nil
	}
	if err := os.WriteFile(path, stamped, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("stamp %s: %w", rel, err)
	}
	res.Written = true
	s.logger.Info("stamped", "path", rel, "elements", n)
	return res, nil
}

// rel converts an absolute or root-joined path to a slash-separated path
// relative to the root.
func (s *Stamper) rel(path string) (string, bool) {
	r, err := filepath.Rel(s.opts.Root, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
