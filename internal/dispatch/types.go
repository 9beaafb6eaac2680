// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import "github.com/jeranaias/relaychat/internal/model"

// Endpoint paths under the configured base URL.
const (
	AssistantPath = "/assistant"
	ChatPath      = "/chat"
)

// DefaultSystemPrompt is the preamble sent first in stateless mode.
const DefaultSystemPrompt = "You are a helpful assistant."

// ChatMessage represents a single message in a stateless request.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: string(model.RoleSystem), Content: content}
}

// FromModel converts a stored message to its wire form.
func FromModel(m model.Message) ChatMessage {
	return ChatMessage{Role: string(m.Role), Content: m.Content}
}

// AssistantRequest is the stateful request body.
type AssistantRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// AssistantResponse is the stateful response body.
type AssistantResponse struct {
	Reply    *string `json:"reply"`
	ThreadID string  `json:"thread_id,omitempty"`
}

// ChatRequest is the stateless request body.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the stateless response body.
type ChatResponse struct {
	Reply *string `json:"reply"`
}

// Result is the outcome of one successful dispatch.
type Result struct {
	Mode  model.Mode
	Reply string
	// ThreadID is the thread id held after the call (stateful only).
	ThreadID string
	// ThreadStored is true when this call stored a new thread id.
	ThreadStored bool
	RequestID    string
}
