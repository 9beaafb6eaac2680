// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "fmt"

// =============================================================================
// ERRORS
// =============================================================================

// Kind classifies a storage failure.
type Kind int

const (
	// KindTxAborted means the transaction did not commit; nothing was written.
	KindTxAborted Kind = iota
	// KindNotFound means the requested key does not exist.
	KindNotFound
	// KindOpen means the database could not be opened or initialized.
	KindOpen
	// KindInvalid means the arguments were rejected before any write.
	KindInvalid
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTxAborted:
		return "transaction aborted"
	case KindNotFound:
		return "not found"
	case KindOpen:
		return "open failed"
	case KindInvalid:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// StoreError is returned by every Store operation that fails.
// Use errors.Is with the sentinel values below to check the kind.
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying driver error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches any StoreError with the same Kind.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrNotFound   = &StoreError{Kind: KindNotFound, Op: "*"}
	ErrTxAborted  = &StoreError{Kind: KindTxAborted, Op: "*"}
	ErrOpenFailed = &StoreError{Kind: KindOpen, Op: "*"}
	ErrInvalid    = &StoreError{Kind: KindInvalid, Op: "*"}
)

func aborted(op string, err error) error {
	return &StoreError{Kind: KindTxAborted, Op: op, Err: err}
}
