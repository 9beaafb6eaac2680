// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jeranaias/relaychat/internal/model"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a point-in-time copy of the whole conversation. Package
// export renders it.
type Transcript struct {
	ThreadID   string          `json:"thread_id,omitempty"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// Snapshot reads messages and the thread id into a Transcript.
func (s *Store) Snapshot(ctx context.Context) (*Transcript, error) {
	msgs, err := s.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	threadID, err := s.GetMetadata(ctx, model.ThreadIDKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &Transcript{
		ThreadID:   threadID,
		ExportedAt: s.now(),
		Messages:   msgs,
	}, nil
}
