package fs

import (
	"strings"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/mycel/pkg/core"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path        string               `json:"path"`
	Categories  map[core.Kind]string `json:"categories"`
	Exclude     []string             `json:"exclude,omitempty"`
	Versioning  bool                 `json:"versioning"`
	Parallelism int                  `json:"parallelism"`
	KnownPaths  int                  `json:"known_paths"`
	LastLoad    *time.Time           `json:"last_load,omitempty"`
	Counts      map[core.Kind]int    `json:"counts,omitempty"`
	// Uncommitted lists git porcelain status lines when versioning is on.
	Uncommitted []string `json:"uncommitted,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	var uncommitted []string
	if r.config.Versioning {
		if out, err := r.git.Status(); err == nil && out != "" {
			uncommitted = strings.Split(out, "\n")
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make(map[core.Kind]string, len(r.config.Categories))
	for k, v := range r.config.Categories {
		categories[k] = v
	}
	var counts map[core.Kind]int
	if r.lastCounts != nil {
		counts = make(map[core.Kind]int, len(r.lastCounts))
		for k, v := range r.lastCounts {
			counts[k] = v
		}
	}

	return RepositoryState{
		Path:        r.Path,
		Categories:  categories,
		Exclude:     append([]string(nil), r.config.Exclude...),
		Versioning:  r.config.Versioning,
		Parallelism: r.config.Parallelism,
		KnownPaths:  len(r.paths),
		LastLoad:    r.lastLoad,
		Counts:      counts,
		Uncommitted: uncommitted,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
