// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual UI components for relaychat.

The conversation is drawn in two steps. FromMessage is a pure conversion
from a stored message to a Bubble view model (variant, avatar letter,
label, content). Renderer turns bubbles into styled strings: user bubbles
in blue tones on the right, assistant bubbles in green tones on the left,
with optional glamour markdown for assistant content.

ChatViewport binds the two to a bubbles viewport. It only supports
appending to the tail and resetting, and scrolls to the end after every
append:

	vp := components.NewChatViewport(components.NewRenderer(theme, true))
	vp.SetSize(width, height)
	vp.Append(components.FromMessage(msg))
*/
package components
