package core

import "context"

// Store defines the contract for loading and persisting records.
// Adhering to this interface keeps the engine independent of the storage layout.
type Store interface {
	// Load reads the whole corpus. Per-item problems are returned as warnings;
	// only structural failures are errors.
	Load(ctx context.Context) (*Corpus, []Warning, error)

	// Get reads the current persisted state of one record.
	Get(ctx context.Context, kind Kind, id string) (Record, error)

	// Save persists a record, creating its file if needed.
	Save(ctx context.Context, r Record) error

	// Delete removes the file backing a record.
	Delete(ctx context.Context, kind Kind, id string) error

	// Exists reports whether a record file is present.
	Exists(ctx context.Context, kind Kind, id string) bool

	// Locate returns the file a record is stored in, or would be written to.
	Locate(kind Kind, id string) string
}

// Transaction defines a unit of work over a Store.
// Staged records are written on Commit; each write stands alone, so a failure
// on one record does not stop the others.
type Transaction interface {
	// Get returns the staged version of a record if any, else the persisted one.
	Get(ctx context.Context, kind Kind, id string) (Record, error)

	// Save stages a record for writing.
	Save(ctx context.Context, r Record) error

	// Delete stages a record for removal.
	Delete(ctx context.Context, kind Kind, id string) error

	// Commit applies staged changes and returns the per-record failures.
	// The error is reserved for failures that stop the whole commit (e.g. the lock).
	Commit(ctx context.Context, changeReason string) ([]ItemError, error)

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// TransactionalStore extends Store to support transactions.
type TransactionalStore interface {
	Store

	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}

type contextKey string

// ChangeReasonKey is the context key for passing the commit message of a write.
const ChangeReasonKey contextKey = "change_reason"
