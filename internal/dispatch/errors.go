// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every failed exchange with the remote endpoint:
// transport errors, non-success status, undecodable or incomplete bodies.
var ErrRequestFailed = errors.New("request failed")

// ErrNoBaseURL indicates the endpoint base URL is not configured.
var ErrNoBaseURL = errors.New("endpoint base URL not configured")

// RequestError describes one failed exchange.
// It matches ErrRequestFailed via errors.Is regardless of its cause.
type RequestError struct {
	Path   string
	Status int // 0 when no response was received
	Err    error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("POST %s: HTTP %d: %v", e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("POST %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports ErrRequestFailed as matching.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
