// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for relaychat.
package components

import (
	"github.com/jeranaias/relaychat/internal/model"
)

// =============================================================================
// BUBBLE VIEW MODEL
// =============================================================================

// Variant selects which side and color scheme a bubble uses.
type Variant int

const (
	VariantAssistant Variant = iota
	VariantUser
)

// String returns the variant name.
func (v Variant) String() string {
	if v == VariantUser {
		return "user"
	}
	return "assistant"
}

// Bubble is the renderable form of one message.
type Bubble struct {
	Variant Variant
	Avatar  string
	Label   string
	Content string
}

// FromMessage converts a message into a bubble. It has no side effects.
// Anything that is not a user message renders on the assistant side.
func FromMessage(msg model.Message) Bubble {
	if msg.Role == model.RoleUser {
		return Bubble{
			Variant: VariantUser,
			Avatar:  "U",
			Label:   model.RoleUser.DisplayName(),
			Content: msg.Content,
		}
	}
	return Bubble{
		Variant: VariantAssistant,
		Avatar:  "A",
		Label:   model.RoleAssistant.DisplayName(),
		Content: msg.Content,
	}
}

// FromMessages converts a slice of messages, preserving order.
func FromMessages(msgs []model.Message) []Bubble {
	out := make([]Bubble, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, FromMessage(msg))
	}
	return out
}
