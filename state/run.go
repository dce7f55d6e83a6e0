package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"lea/common"
	"lea/config"
	"lea/diag"
)

// ErrEmptyFile is returned when file exists but has nothing in it. Empty
// fragments are treated exactly like unreadable ones.
var ErrEmptyFile = errors.New("file is empty")

// Store keeps values discovered while compiling a single ebook which are
// consumed by later stages. It is written once, early, and only read after.
type Store struct {
	subfolders     map[common.SubfolderTag]string
	DefaultCaption string
	CheckLinks     bool
	CheckEpub      bool
}

// Subfolder returns subfolder (with trailing slash when not empty) for
// lookups of the requested kind.
func (s *Store) Subfolder(tag common.SubfolderTag) string {
	return s.subfolders[tag]
}

// SetSubfolder records subfolder for requested lookups, normalizing
// surrounding slashes and spaces.
func (s *Store) SetSubfolder(tag common.SubfolderTag, dir string) {
	if s.subfolders == nil {
		s.subfolders = make(map[common.SubfolderTag]string)
	}
	dir = strings.Trim(dir, "/ ")
	if dir != "" {
		dir += "/"
	}
	s.subfolders[tag] = dir
}

// Run is the context of a single ebook compilation. Every stage receives it
// explicitly, there is no other shared state.
type Run struct {
	Paths    config.PathsConfig
	Document config.DocumentConfig
	Store    Store
	Diags    diag.Accumulator
	Log      *zap.Logger

	now     func() time.Time
	located map[string]string
}

// NewRun prepares compilation context from process environment.
func NewRun(env *LocalEnv, log *zap.Logger) *Run {
	r := &Run{
		Paths:    env.Cfg.Paths,
		Document: env.Cfg.Document,
		Log:      log,
		now:      time.Now,
	}
	r.Store.DefaultCaption = env.Cfg.Document.DefaultCaption
	r.Store.CheckLinks = env.CheckLinks
	r.Store.CheckEpub = env.CheckEpub
	return r
}

// WithClock replaces run clock, used to get reproducible packages.
func (r *Run) WithClock(now func() time.Time) *Run {
	r.now = now
	return r
}

// Now returns current time in UTC according to run clock.
func (r *Run) Now() time.Time {
	if r.now == nil {
		return time.Now().UTC()
	}
	return r.now().UTC()
}

// Cry records diagnostic in the run accumulator.
func (r *Run) Cry(subject diag.Subject, id string, params ...string) {
	r.Diags.Cry(subject, id, params...)
}

func (r *Run) EbookPath(name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Ebooks), name)
}

func (r *Run) TextPath(name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Text), r.Store.Subfolder(common.SubfolderTagText)+name)
}

// ImagePath returns location of an image, folder is image own subfolder
// (with trailing slash) as recorded when image was harvested.
func (r *Run) ImagePath(folder, name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Images), folder+name)
}

func (r *Run) BlockPath(name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Blocks), name)
}

func (r *Run) FontPath(name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Fonts), name)
}

func (r *Run) StylePath(name string) string {
	return filepath.Join(r.Paths.Resolve(r.Paths.Styles), name)
}

func (r *Run) EpubDir() string {
	return r.Paths.Resolve(r.Paths.Epubs)
}

// Locate checks if file exists. When it does not, but directory has a single
// entry with the same name in different case, that entry is used and
// diagnostic is recorded against subject. Substitutions are remembered and
// reported once.
func (r *Run) Locate(subject diag.Subject, path string) (string, bool) {
	if info, err := os.Stat(path); err == nil {
		return path, info.Mode().IsRegular()
	}
	if similar, ok := r.located[path]; ok {
		return similar, true
	}
	similar, ok := findSimilar(path)
	if !ok {
		return path, false
	}
	if r.located == nil {
		r.located = make(map[string]string)
	}
	r.located[path] = similar
	r.Log.Debug("Using file with similar name", zap.String("requested", path), zap.String("found", similar))
	r.Cry(subject, diag.FileReadSimilar, path, similar)
	return similar, true
}

// ReadFile reads the whole file, falling back to file with similar name, see
// Locate. Empty file is an error.
func (r *Run) ReadFile(subject diag.Subject, path string) ([]byte, error) {
	actual, ok := r.Locate(subject, path)
	if !ok {
		return nil, fmt.Errorf("unable to read %s: %w", path, fs.ErrNotExist)
	}
	data, err := os.ReadFile(actual)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", actual, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("unable to use %s: %w", actual, ErrEmptyFile)
	}
	return data, nil
}

func findSimilar(path string) (string, bool) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var found string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(e.Name(), name) {
			continue
		}
		if found != "" {
			// ambiguous, refuse to guess
			return "", false
		}
		found = e.Name()
	}
	if found == "" {
		return "", false
	}
	return filepath.Join(dir, found), true
}
