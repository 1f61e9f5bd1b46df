package fix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mycel/pkg/core"
)

// ManifestFile is the batch summary written next to rendered artifacts.
const ManifestFile = "batch.json"

// Encoder renders a record the way the store would write it.
type Encoder interface {
	Serialize(rec core.Record) ([]byte, error)
}

// WriteArtifacts renders batch into dir for manual review instead of applying
// it. A create artifact is written as the new record; an update artifact as the
// full record from corpus with the patch merged in. It returns the files written.
// Artifacts whose record is missing from corpus are skipped with a warning.
func WriteArtifacts(dir string, batch Batch, corpus *core.Corpus, enc Encoder) ([]string, []core.Warning, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	var warnings []core.Warning
	for _, a := range batch.Artifacts {
		current, found := corpus.Get(a.RecordID)
		if !found && a.Kind != CreatePredicate {
			warnings = append(warnings, core.Warning{
				Code:    core.WarnDangling,
				ID:      a.RecordID,
				Message: fmt.Sprintf("%s artifact targets a record that is not loaded", a.Kind),
			})
			continue
		}

		rec, _ := Merge(current, a)
		rec.Touch(batch.CreatedAt)
		data, err := enc.Serialize(rec)
		if err != nil {
			return written, warnings, fmt.Errorf("failed to render %s: %w", a.RecordID, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", a.Kind, core.Stem(a.RecordID)))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, warnings, fmt.Errorf("failed to write artifact: %w", err)
		}
		written = append(written, path)
	}

	manifest, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return written, warnings, err
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, append(manifest, '\n'), 0644); err != nil {
		return written, warnings, fmt.Errorf("failed to write manifest: %w", err)
	}
	return append(written, path), warnings, nil
}
