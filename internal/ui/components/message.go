// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// minBubbleWidth keeps bubbles readable on very narrow terminals.
const minBubbleWidth = 20

// Renderer draws bubbles with the theme's styles.
type Renderer struct {
	theme    *styles.Theme
	markdown bool

	mu     sync.Mutex
	md     *glamour.TermRenderer
	mdWrap int
}

// NewRenderer creates a renderer. When markdown is set, assistant content
// is rendered through glamour.
func NewRenderer(theme *styles.Theme, markdown bool) *Renderer {
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &Renderer{theme: theme, markdown: markdown}
}

// Render draws one bubble to fit within width columns.
// User bubbles are right-aligned, assistant bubbles left-aligned.
func (r *Renderer) Render(b Bubble, width int) string {
	if width < minBubbleWidth+8 {
		width = minBubbleWidth + 8
	}

	// Margins, border and padding.
	maxContentWidth := width - 12
	if maxContentWidth < minBubbleWidth {
		maxContentWidth = minBubbleWidth
	}

	content := b.Content
	if content == "" {
		content = "..."
	}

	var body string
	if b.Variant == VariantAssistant && r.markdown {
		body = r.renderMarkdown(content, maxContentWidth)
	} else {
		body = wordWrap(content, maxContentWidth)
	}
	contentWidth := minInt(maxLineWidth(body)+4, width-8)

	if b.Variant == VariantUser {
		bubble := r.theme.UserBubble.Width(contentWidth).Render(body)
		header := r.theme.BubbleLabel.Render(b.Label) + " " + r.theme.UserAvatar.Render(b.Avatar)
		block := lipgloss.JoinVertical(lipgloss.Right, header, bubble)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	bubble := r.theme.AssistantBubble.Width(contentWidth).Render(body)
	header := r.theme.AssistantAvatar.Render(b.Avatar) + " " + r.theme.BubbleLabel.Render(b.Label)
	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

// RenderAll draws bubbles in order, separated by blank lines.
func (r *Renderer) RenderAll(bubbles []Bubble, width int) string {
	parts := make([]string, 0, len(bubbles))
	for _, b := range bubbles {
		parts = append(parts, r.Render(b, width))
	}
	return strings.Join(parts, "\n\n")
}

// renderMarkdown renders content with glamour, falling back to plain
// wrapping when the renderer cannot be built or fails.
func (r *Renderer) renderMarkdown(content string, width int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.md == nil || r.mdWrap != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme.MarkdownStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return wordWrap(content, width)
		}
		r.md, r.mdWrap = md, width
	}

	out, err := r.md.Render(content)
	if err != nil {
		return wordWrap(content, width)
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// wordWrap wraps text to fit within the specified display width.
// Words wider than width are broken across lines.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := ""
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if currentLine != "" {
					result.WriteString(currentLine)
					result.WriteString("\n")
					currentLine = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					break
				}
				result.WriteString(head)
				result.WriteString("\n")
				word = word[len(head):]
			}
			if word == "" {
				continue
			}

			switch {
			case currentLine == "":
				currentLine = word
			case runewidth.StringWidth(currentLine)+1+runewidth.StringWidth(word) <= width:
				currentLine += " " + word
			default:
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the display width of the longest line.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
