// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/relaychat/internal/controller"
	"github.com/jeranaias/relaychat/internal/ui/components"
)

// =============================================================================
// VIEW MESSAGES
// =============================================================================

// BubbleAppendMsg adds one bubble to the tail of the thread.
type BubbleAppendMsg struct {
	Bubble components.Bubble
}

// ViewResetMsg empties the thread.
type ViewResetMsg struct{}

// =============================================================================
// CONTROLLER RESULTS
// =============================================================================

// LoadDoneMsg reports the end of the startup replay.
type LoadDoneMsg struct {
	Err error
}

// SubmitDoneMsg reports the end of one exchange.
type SubmitDoneMsg struct {
	Outcome controller.Outcome
	Err     error
}

// NewChatDoneMsg reports the end of a new chat request.
type NewChatDoneMsg struct {
	Err error
}

// =============================================================================
// EXTERNAL EVENTS
// =============================================================================

// ConfigReloadedMsg tells the view that the config file changed.
type ConfigReloadedMsg struct {
	Endpoint string
	Err      error
}

// StatusMsg sets the status bar text.
type StatusMsg struct {
	Text    string
	IsError bool
}
