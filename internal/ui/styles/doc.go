// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for relaychat.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. User bubbles use blue tones, assistant bubbles green tones.

# Theme (theme.go)

NewTheme detects the terminal's color profile and background with termenv.
NewThemeFor takes both explicitly and is what tests use:

	theme := styles.NewThemeFor(termenv.Ascii, true)
	theme.SetSize(120, 40)

MarkdownStyle maps the detected background onto a glamour standard style
name ("dark", "light", or "notty" for plain terminals).
*/
package styles
