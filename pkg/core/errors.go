package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrRootNotFound         = errors.New("content root does not exist")
	ErrCategoryUnresolvable = errors.New("category directory cannot be resolved")
	ErrNotFound             = errors.New("record not found")
	ErrInvalidRecord        = errors.New("invalid record")
	ErrLockTimeout          = errors.New("timed out waiting for writer lock")
)

// Warning codes.
const (
	WarnMissingDir        = "missing-directory"
	WarnMalformed         = "malformed-file"
	WarnMissingID         = "missing-id"
	WarnKindMismatch      = "kind-mismatch"
	WarnDuplicateID       = "duplicate-id"
	WarnBadReference      = "bad-reference"
	WarnDateOrder         = "date-order"
	WarnDangling          = "dangling-reference"
	WarnNoConvergence     = "no-convergence"
	WarnUnscored          = "unscored-orphan"
	WarnBadPlaceholder    = "bad-placeholder"
	WarnUnresolvedPromote = "unresolved-promotion"
)

// Warning is a recoverable per-item problem. Processing continues after one.
type Warning struct {
	Code    string `json:"code"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.ID != "":
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.ID, w.Message)
	case w.Path != "":
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.Path, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// ItemError is a failed write of a single record. It is collected, not returned.
type ItemError struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
	Err  error  `json:"-"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// MarshalJSON includes the error text, which the error interface hides from encoding/json.
func (e ItemError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		ID    string `json:"id"`
		Path  string `json:"path,omitempty"`
		Error string `json:"error"`
	}{e.ID, e.Path, msg})
}
