// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/ui/styles"
	"github.com/jeranaias/relaychat/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader shows the brand, the endpoint and the mode selector.
func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("relaychat")
	mode := m.renderMode()

	endpoint := m.endpoint
	if endpoint == "" {
		endpoint = "no endpoint configured"
	}

	// Header padding takes two columns, plus two spaces between parts.
	room := m.width - 2 - lipgloss.Width(brand) - lipgloss.Width(mode) - 4
	meta := ""
	if room > 3 && m.theme.GetLayoutMode() != styles.LayoutNarrow {
		meta = m.theme.HeaderMeta.Render(util.TruncateWidth(endpoint, room))
	}

	left := brand
	if meta != "" {
		left += "  " + meta
	}
	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(mode)
	if gap < 1 {
		gap = 1
	}

	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + mode)
}

// renderMode shows the current dispatch mode.
func (m Model) renderMode() string {
	style := m.theme.ModeStateful
	if m.mode == model.ModeStateless {
		style = m.theme.ModeStateless
	}
	return style.Render("[" + m.mode.Label() + "]")
}

// =============================================================================
// INPUT
// =============================================================================

// renderInput draws the prompt line.
func (m Model) renderInput() string {
	line := m.input.View()
	if m.busy {
		line = m.theme.InputPlaceholder.Render("> Waiting for reply...")
	}
	return m.theme.InputContainer.Width(m.width).Render(line)
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar shows progress or the last status, then the key hints.
func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.busy:
		left = m.spinner.View() + " " + m.theme.ThinkingText.Render("Waiting for reply")
	case m.statusMsg != "" && m.statusError:
		left = m.theme.ErrorStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		left = m.theme.ThinkingText.Render(m.statusMsg)
	case !m.loaded:
		left = m.theme.ThinkingText.Render("Loading history...")
	}

	hints := m.renderShortcuts()
	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(hints)
	if gap < 1 {
		// Not enough room for both; the status wins.
		hints = ""
		gap = 1
	}

	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}

// renderShortcuts renders the key hints for the current width.
func (m Model) renderShortcuts() string {
	bindings := m.keyMap.ShortHelp()
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		bindings = bindings[:2]
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
