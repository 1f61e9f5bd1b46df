package fs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/git"
)

type txKey struct {
	kind core.Kind
	id   string
}

// Transaction implements core.Transaction for the filesystem.
// Writes are staged in memory and applied in staging order on Commit.
type Transaction struct {
	repo    *Repository
	staged  map[txKey]core.Record
	deleted map[txKey]bool
	order   []txKey
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[txKey]core.Record),
		deleted: make(map[txKey]bool),
	}
}

func (t *Transaction) track(k txKey) {
	for _, existing := range t.order {
		if existing == k {
			return
		}
	}
	t.order = append(t.order, k)
}

// Save stages a record for writing.
func (t *Transaction) Save(ctx context.Context, rec core.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}

	k := txKey{rec.Kind, rec.ID}
	t.staged[k] = rec.Clone()
	delete(t.deleted, k)
	t.track(k)
	return nil
}

// Get retrieves a record, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, kind core.Kind, id string) (core.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Record{}, fmt.Errorf("transaction closed")
	}

	k := txKey{kind, id}
	if t.deleted[k] {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if rec, ok := t.staged[k]; ok {
		return rec.Clone(), nil
	}
	return t.repo.Get(ctx, kind, id)
}

// Delete stages a record for removal.
func (t *Transaction) Delete(ctx context.Context, kind core.Kind, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}

	k := txKey{kind, id}
	t.deleted[k] = true
	delete(t.staged, k)
	t.track(k)
	return nil
}

// Commit applies all staged changes under the writer lock.
// Each record is written atomically on its own; a failed record is collected
// and the remaining ones are still processed. Nothing is rolled back.
func (t *Transaction) Commit(ctx context.Context, changeReason string) ([]core.ItemError, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("transaction already closed")
	}
	t.closed = true

	if len(t.order) == 0 {
		return nil, nil
	}

	unlock, err := t.repo.git.Lock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	defer unlock()

	var failed []core.ItemError
	var written, removed []string

	for _, k := range t.order {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		if t.deleted[k] {
			path, err := t.repo.remove(k.kind, k.id)
			if err != nil && !errors.Is(err, core.ErrNotFound) {
				failed = append(failed, core.ItemError{ID: k.id, Path: path, Err: err})
				continue
			}
			removed = append(removed, path)
			continue
		}

		rec, ok := t.staged[k]
		if !ok {
			continue
		}
		path, err := t.repo.write(rec)
		if err != nil {
			t.repo.config.Logger.Debug("write failed", "id", k.id, "path", path, "error", err)
			failed = append(failed, core.ItemError{ID: k.id, Path: path, Err: err})
			continue
		}
		written = append(written, path)
	}

	if t.repo.config.Versioning && len(written)+len(removed) > 0 {
		msg := changeReason
		if msg == "" {
			msg = git.FormatChangeReason(git.CommitTypeChore, "content", "batch update", "")
		}
		if err := t.repo.commit(written, removed, msg); err != nil {
			return failed, err
		}
	}

	return failed, nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.staged = nil
	t.deleted = nil
	t.order = nil
	t.closed = true
	return nil
}
