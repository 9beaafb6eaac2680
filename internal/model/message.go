// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for messages and request modes.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ThreadIDKey is the metadata key holding the server-assigned thread identifier.
const ThreadIDKey = "thread_id"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Storable reports whether messages with this role may be persisted.
// System prompts are synthesized per request and never stored.
func (r Role) Storable() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the conversation log.
// Messages are never mutated after they are stored.
type Message struct {
	// ID is assigned by the store; zero means not yet persisted.
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IsPersisted reports whether the message has a store-assigned id.
func (m Message) IsPersisted() bool {
	return m.ID > 0
}

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects how a user message is sent to the remote endpoint.
type Mode string

const (
	// ModeStateful sends only the new message plus the stored thread id.
	ModeStateful Mode = "stateful"
	// ModeStateless replays the whole stored history on every call.
	ModeStateless Mode = "stateless"
)

// Modes lists the supported modes in selector order.
var Modes = []Mode{ModeStateful, ModeStateless}

// ParseMode parses a mode name. The endpoint names "assistant" and "chat"
// are accepted as aliases, as is the legacy "naive" name for stateless.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stateful", "assistant":
		return ModeStateful, nil
	case "stateless", "chat", "naive":
		return ModeStateless, nil
	default:
		return "", fmt.Errorf("unknown mode %q, must be one of: stateful, stateless", s)
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Label returns the selector label shown in the UI.
func (m Mode) Label() string {
	switch m {
	case ModeStateful:
		return "Assistant"
	case ModeStateless:
		return "Chat"
	default:
		return string(m)
	}
}

// Next returns the mode following m in selector order.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Modes[0]
}
