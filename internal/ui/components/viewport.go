// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// =============================================================================
// CHAT VIEWPORT COMPONENT - Scrollable message thread
// =============================================================================

// ChatViewport is the scrollable message thread. Bubbles are only ever
// appended to the tail; every append scrolls to the end.
type ChatViewport struct {
	viewport viewport.Model
	bubbles  []Bubble
	rendered []string
	renderer *Renderer
	width    int
	height   int
	ready    bool
}

// NewChatViewport creates a new ChatViewport
func NewChatViewport(renderer *Renderer) *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return &ChatViewport{
		viewport: vp,
		renderer: renderer,
		width:    80,
		height:   20,
	}
}

// SetSize updates the viewport dimensions and re-renders at the new width.
func (cv *ChatViewport) SetSize(width, height int) {
	atBottom := !cv.ready || cv.viewport.AtBottom()

	cv.width = width
	cv.height = height
	cv.viewport.Width = width
	cv.viewport.Height = height - 1 // scroll indicator line
	cv.ready = true

	cv.rendered = cv.rendered[:0]
	for _, b := range cv.bubbles {
		cv.rendered = append(cv.rendered, cv.renderer.Render(b, cv.contentWidth()))
	}
	cv.updateContent()
	if atBottom {
		cv.viewport.GotoBottom()
	}
}

// Append adds a bubble to the tail and scrolls to the end.
func (cv *ChatViewport) Append(b Bubble) {
	cv.bubbles = append(cv.bubbles, b)
	cv.rendered = append(cv.rendered, cv.renderer.Render(b, cv.contentWidth()))
	cv.updateContent()
	cv.viewport.GotoBottom()
}

// Reset removes every bubble.
func (cv *ChatViewport) Reset() {
	cv.bubbles = nil
	cv.rendered = nil
	cv.updateContent()
	cv.viewport.GotoTop()
}

// Bubbles returns the bubbles currently shown, oldest first.
func (cv *ChatViewport) Bubbles() []Bubble {
	return cv.bubbles
}

// Len returns the number of bubbles shown.
func (cv *ChatViewport) Len() int {
	return len(cv.bubbles)
}

// AtBottom reports whether the viewport shows the end of the thread.
func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// ScrollPercent returns the scroll position as a fraction.
func (cv *ChatViewport) ScrollPercent() float64 {
	return cv.viewport.ScrollPercent()
}

func (cv *ChatViewport) contentWidth() int {
	return cv.width - 2
}

// updateContent pushes the rendered bubbles into the viewport.
func (cv *ChatViewport) updateContent() {
	cv.viewport.SetContent(strings.Join(cv.rendered, "\n\n"))
}

// Update handles scrolling keys and mouse wheel events.
func (cv *ChatViewport) Update(msg tea.Msg) (*ChatViewport, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			cv.viewport.ViewUp()
			return cv, nil
		case "pgdown", "pgdn":
			cv.viewport.ViewDown()
			return cv, nil
		case "ctrl+home":
			cv.viewport.GotoTop()
			return cv, nil
		case "ctrl+end":
			cv.viewport.GotoBottom()
			return cv, nil
		}
		// Other keys belong to the input line.
		return cv, nil

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.viewport.LineUp(3)
			return cv, nil
		case tea.MouseWheelDown:
			cv.viewport.LineDown(3)
			return cv, nil
		}
	}

	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	return cv, cmd
}

// View renders the viewport with a scroll indicator line.
func (cv *ChatViewport) View() string {
	if !cv.ready {
		return ""
	}
	return cv.viewport.View() + "\n" + cv.renderIndicator()
}

// renderIndicator shows how far up the user has scrolled.
func (cv *ChatViewport) renderIndicator() string {
	style := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	if len(cv.bubbles) == 0 {
		return style.Render("No messages yet")
	}
	if cv.viewport.AtBottom() {
		return style.Render(fmt.Sprintf("%d messages", len(cv.bubbles)))
	}
	return style.Render(fmt.Sprintf("%d messages - %3.0f%% - PgDn for newer", len(cv.bubbles), cv.viewport.ScrollPercent()*100))
}
