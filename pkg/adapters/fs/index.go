package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/mycel/pkg/core"
)

// CombinedIndex is the root index file holding records of every kind.
const CombinedIndex = "content-index.json"

// loadIndexes seeds the corpus with stubs from the *-index.json list files at
// the root. "<category>-index.json" holds records of that category; any other
// index takes the kind of each entry from its @type.
func (r *Repository) loadIndexes(corpus *core.Corpus) []core.Warning {
	names, err := indexFiles(os.DirFS(r.Path))
	if err != nil {
		return []core.Warning{{Code: core.WarnMalformed, Path: r.Path, Message: fmt.Sprintf("index discovery: %v", err)}}
	}
	sort.Strings(names)

	byPrefix := make(map[string]core.Kind, len(r.config.Categories))
	for kind, dir := range r.config.Categories {
		byPrefix[dir] = kind
	}

	var warnings []core.Warning
	for _, name := range names {
		path := filepath.Join(r.Path, name)
		kind := byPrefix[strings.TrimSuffix(name, "-index.json")]

		entries, err := readIndex(path)
		if err != nil {
			r.config.Logger.Debug("skipping index", "path", path, "error", err)
			warnings = append(warnings, core.Warning{Code: core.WarnMalformed, Path: path, Message: err.Error()})
			continue
		}

		for i, entry := range entries {
			rec, warn, err := r.serializer.FromMap(entry, kind)
			for j := range warn {
				warn[j].Path = path
			}
			warnings = append(warnings, warn...)
			if err != nil {
				warnings = append(warnings, core.Warning{
					Code:    core.WarnMalformed,
					Path:    path,
					Message: fmt.Sprintf("entry %d: %v", i, err),
				})
				continue
			}
			if prev, ok := corpus.Get(rec.ID); ok {
				if prev.Kind != rec.Kind {
					warnings = append(warnings, core.Warning{
						Code:    core.WarnDuplicateID,
						ID:      rec.ID,
						Path:    path,
						Message: fmt.Sprintf("indexed as both %s and %s", prev.Kind, rec.Kind),
					})
				}
				continue
			}
			corpus.Put(rec)
		}
	}
	return warnings
}

// readIndex accepts either a JSON array of records or an ItemList object
// with an itemListElement array.
func readIndex(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", core.ErrInvalidRecord, err)
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["itemListElement"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: index object has no itemListElement array", core.ErrInvalidRecord)
		}
		items = list
	default:
		return nil, fmt.Errorf("%w: index must be an array or an ItemList", core.ErrInvalidRecord)
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// schema.org ListItem wrappers carry the record under "item"
		if inner, ok := m["item"].(map[string]any); ok {
			m = inner
		}
		out = append(out, m)
	}
	return out, nil
}
