package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/git"
)

// Repository implements core.Store over a content root holding one directory
// per record kind, one JSON-LD record per file.
type Repository struct {
	Path       string
	git        *git.Client
	config     Config
	serializer *Serializer

	mu         sync.RWMutex
	paths      map[string]string // record id -> file it was read from or written to
	lastLoad   *time.Time
	lastCounts map[core.Kind]int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path        string
	Categories  map[core.Kind]string // kind -> directory name under Path
	Exclude     []string             // doublestar patterns, relative to Path
	Parallelism int                  // concurrent file parses per category
	Versioning  bool                 // commit writes with git
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultCategories returns the standard directory layout.
func DefaultCategories() map[core.Kind]string {
	return map[core.Kind]string{
		core.KindConcept:   "concepts",
		core.KindPredicate: "predicates",
		core.KindTopic:     "topics",
		core.KindResource:  "resources",
	}
}

// NewRepository creates a new filesystem-backed store.
func NewRepository(config Config) *Repository {
	if config.Categories == nil {
		config.Categories = DefaultCategories()
	}
	if config.Parallelism < 1 {
		config.Parallelism = 1
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	client := git.NewClient(config.Path, config.Logger)
	if config.LockTimeout > 0 {
		client.LockTimeout = config.LockTimeout
	}
	return &Repository{
		Path:       config.Path,
		git:        client,
		config:     config,
		serializer: NewSerializer(),
		paths:      make(map[string]string),
	}
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	return NewTransaction(r), nil
}

// Load reads the whole corpus.
//
// Workflow:
//  1. Verify the root exists (the only fatal failure besides unresolvable category paths).
//  2. Seed the corpus with stubs from *-index.json files at the root.
//  3. For each category directory, parse every *.json file in parallel.
//  4. Merge in sorted path order: a file record replaces its index stub in place.
func (r *Repository) Load(ctx context.Context) (*core.Corpus, []core.Warning, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", core.ErrRootNotFound, r.Path)
		}
		return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrRootNotFound, r.Path, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", core.ErrRootNotFound, r.Path)
	}

	corpus := core.NewCorpus()
	var warnings []core.Warning
	paths := make(map[string]string)

	warnings = append(warnings, r.loadIndexes(corpus)...)

	for _, kind := range core.Kinds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		files, warn, err := r.listCategory(kind)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, warn...)

		for _, res := range r.parseAll(ctx, kind, files) {
			warnings = append(warnings, res.warnings...)
			if res.err != nil {
				code := core.WarnMalformed
				if errors.Is(res.err, errMissingID) {
					code = core.WarnMissingID
				}
				r.config.Logger.Debug("skipping file", "path", res.path, "error", res.err)
				warnings = append(warnings, core.Warning{Code: code, Path: res.path, Message: res.err.Error()})
				continue
			}

			rec := res.record
			if prev, ok := corpus.Get(rec.ID); ok {
				if prev.Path != "" {
					warnings = append(warnings, core.Warning{
						Code:    core.WarnDuplicateID,
						ID:      rec.ID,
						Path:    res.path,
						Message: "already loaded from " + prev.Path,
					})
					continue
				}
				// index stubs always give way to the file
				if prev.Kind != rec.Kind {
					corpus.Remove(prev.Kind, rec.ID)
					warnings = append(warnings, core.Warning{
						Code:    core.WarnKindMismatch,
						ID:      rec.ID,
						Path:    res.path,
						Message: fmt.Sprintf("index lists it as %s, file stores it as %s", prev.Kind, rec.Kind),
					})
				}
			}
			corpus.Put(rec)
			paths[rec.ID] = rec.Path
		}
	}

	now := time.Now()
	counts := make(map[core.Kind]int, len(core.Kinds))
	for _, k := range core.Kinds {
		counts[k] = len(corpus.Category(k))
	}

	r.mu.Lock()
	r.paths = paths
	r.lastLoad = &now
	r.lastCounts = counts
	r.mu.Unlock()

	r.config.Logger.Info("corpus loaded",
		"concepts", counts[core.KindConcept],
		"predicates", counts[core.KindPredicate],
		"topics", counts[core.KindTopic],
		"resources", counts[core.KindResource],
		"warnings", len(warnings),
	)

	return corpus, warnings, nil
}

// listCategory returns the sorted record files of one category.
// A missing directory is a warning; a path that exists but cannot be used is fatal.
func (r *Repository) listCategory(kind core.Kind) ([]string, []core.Warning, error) {
	dir := filepath.Join(r.Path, r.config.Categories[kind])

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, []core.Warning{{
			Code:    core.WarnMissingDir,
			Path:    dir,
			Message: fmt.Sprintf("no %s directory, treating as empty", kind),
		}}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrCategoryUnresolvable, dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", core.ErrCategoryUnresolvable, dir)
	}

	var files []string
	var warnings []core.Warning
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, core.Warning{Code: core.WarnMalformed, Path: path, Message: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if r.excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".json" || strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrCategoryUnresolvable, dir, err)
	}
	return files, warnings, nil
}

func (r *Repository) excluded(path string) bool {
	if len(r.config.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(r.Path, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range r.config.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

type parseResult struct {
	path     string
	record   core.Record
	warnings []core.Warning
	err      error
}

// parseAll parses files concurrently. Results keep the order of files, so the
// corpus does not depend on goroutine scheduling. A parser panic surfaces as
// the error of its own file.
func (r *Repository) parseAll(ctx context.Context, kind core.Kind, files []string) []parseResult {
	results := make([]parseResult, len(files))
	tasks := make([]lifecycle.Task, len(files))
	sem := make(chan struct{}, r.config.Parallelism)

	for i, path := range files {
		results[i].path = path
		sem <- struct{}{}
		tasks[i] = lifecycle.Go(ctx, func(ctx context.Context) error {
			defer func() { <-sem }()
			results[i].record, results[i].warnings, results[i].err = r.readFile(path, kind)
			return nil
		}, lifecycle.WithErrorHandler(func(err error) {
			r.config.Logger.Error("parse worker failed", "path", path, "error", err)
		}))
	}
	for i, task := range tasks {
		if err := task.Wait(); err != nil {
			results[i].err = fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
		}
	}
	return results
}

func (r *Repository) readFile(path string, kind core.Kind) (core.Record, []core.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Record{}, nil, err
	}
	defer f.Close()

	rec, warnings, err := r.serializer.Parse(f, kind)
	if err != nil {
		return core.Record{}, nil, err
	}
	rec.Path = path
	for i := range warnings {
		warnings[i].Path = path
	}
	return rec, warnings, nil
}

// Get reads the current on-disk state of a record.
func (r *Repository) Get(ctx context.Context, kind core.Kind, id string) (core.Record, error) {
	path := r.pathFor(kind, id, "")
	rec, _, err := r.readFile(path, kind)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return core.Record{}, fmt.Errorf("failed to read %s: %w", id, err)
	}
	if rec.ID != id {
		return core.Record{}, fmt.Errorf("%w: %s holds %s", core.ErrNotFound, path, rec.ID)
	}
	return rec, nil
}

// Exists reports whether the file backing a record is present.
func (r *Repository) Exists(ctx context.Context, kind core.Kind, id string) bool {
	info, err := os.Stat(r.pathFor(kind, id, ""))
	return err == nil && info.Mode().IsRegular()
}

// Save writes one record under the writer lock and, with versioning, commits it.
func (r *Repository) Save(ctx context.Context, rec core.Record) error {
	unlock, err := r.git.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	path, err := r.write(rec)
	if err != nil {
		return err
	}

	if r.config.Versioning {
		msg := git.FormatChangeReason(git.CommitTypeChore, "content", "update "+rec.ID, "")
		if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
			msg = val
		}
		return r.commit([]string{path}, nil, msg)
	}
	return nil
}

// Delete removes the file backing a record.
func (r *Repository) Delete(ctx context.Context, kind core.Kind, id string) error {
	unlock, err := r.git.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	path, err := r.remove(kind, id)
	if err != nil {
		return err
	}

	if r.config.Versioning {
		return r.commit(nil, []string{path}, git.FormatChangeReason(git.CommitTypeChore, "content", "delete "+id, ""))
	}
	return nil
}

// write serializes and atomically writes rec. The caller holds the lock.
func (r *Repository) write(rec core.Record) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("%w: record has no id", core.ErrInvalidRecord)
	}
	path := r.pathFor(rec.Kind, rec.ID, rec.Path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := r.serializer.Serialize(rec)
	if err != nil {
		return path, fmt.Errorf("failed to serialize %s: %w", rec.ID, err)
	}

	if err := writeFileAtomic(path, data, 0644); err != nil {
		return path, fmt.Errorf("failed to write file: %w", err)
	}

	r.mu.Lock()
	r.paths[rec.ID] = path
	r.mu.Unlock()
	return path, nil
}

// remove deletes the file of a record. The caller holds the lock.
func (r *Repository) remove(kind core.Kind, id string) (string, error) {
	path := r.pathFor(kind, id, "")
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return path, fmt.Errorf("failed to remove file: %w", err)
	}
	r.mu.Lock()
	delete(r.paths, id)
	r.mu.Unlock()
	return path, nil
}

func (r *Repository) commit(added, removed []string, msg string) error {
	rel := func(paths []string) []string {
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			if rp, err := filepath.Rel(r.Path, p); err == nil {
				out = append(out, filepath.ToSlash(rp))
			}
		}
		return out
	}
	if err := r.git.Add(rel(added)...); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := r.git.Rm(rel(removed)...); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	if err := r.git.Commit(git.AppendFooter(msg)); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// pathFor resolves the file of a record: an explicit path first, then the file
// it was loaded from, then the name derived from its id.
func (r *Repository) pathFor(kind core.Kind, id, explicit string) string {
	if explicit != "" {
		return explicit
	}
	r.mu.RLock()
	p, ok := r.paths[id]
	r.mu.RUnlock()
	if ok {
		return p
	}
	return filepath.Join(r.Path, r.config.Categories[kind], FileName(id))
}

// FileName derives the file name of a record from its id:
// "urn:<ns>:<kind>:a:b" becomes "a-b.json".
func FileName(id string) string {
	return core.Stem(id) + ".json"
}

// Locate returns the file a record is stored in, or would be written to.
func (r *Repository) Locate(kind core.Kind, id string) string {
	return r.pathFor(kind, id, "")
}

// IsVersioned reports whether writes are committed: versioning is on and the
// root is a git work tree.
func (r *Repository) IsVersioned() bool {
	return r.config.Versioning && git.IsInstalled() && r.git.IsRepo()
}

var _ core.TransactionalStore = (*Repository)(nil)

// indexFiles lists the *-index.json files at the top of fsys.
func indexFiles(fsys fs.FS) ([]string, error) {
	return doublestar.Glob(fsys, "*-index.json")
}
