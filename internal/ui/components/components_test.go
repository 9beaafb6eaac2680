// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/ui/styles"
)

func testRenderer(markdown bool) *Renderer {
	return NewRenderer(styles.NewThemeFor(termenv.Ascii, true), markdown)
}

// =============================================================================
// BUBBLE TESTS
// =============================================================================

func TestFromMessage(t *testing.T) {
	tests := []struct {
		role        model.Role
		wantVariant Variant
		wantAvatar  string
		wantLabel   string
	}{
		{model.RoleUser, VariantUser, "U", "You"},
		{model.RoleAssistant, VariantAssistant, "A", "Assistant"},
		{model.Role("tool"), VariantAssistant, "A", "Assistant"},
		{model.Role(""), VariantAssistant, "A", "Assistant"},
	}

	for _, tt := range tests {
		msg := model.Message{ID: 7, Role: tt.role, Content: "body"}
		b := FromMessage(msg)
		if b.Variant != tt.wantVariant || b.Avatar != tt.wantAvatar || b.Label != tt.wantLabel {
			t.Errorf("FromMessage(%q) = %+v, want variant=%v avatar=%s label=%s",
				tt.role, b, tt.wantVariant, tt.wantAvatar, tt.wantLabel)
		}
		if b.Content != "body" {
			t.Errorf("FromMessage(%q).Content = %q, want body", tt.role, b.Content)
		}
	}
}

func TestFromMessages_PreservesOrder(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "1"},
		{Role: model.RoleAssistant, Content: "2"},
		{Role: model.RoleUser, Content: "3"},
	}
	got := FromMessages(msgs)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, b := range got {
		if b.Content != msgs[i].Content {
			t.Errorf("bubble %d content = %q, want %q", i, b.Content, msgs[i].Content)
		}
	}
}

// =============================================================================
// RENDERER TESTS
// =============================================================================

func TestRender_ContainsContentAndAvatar(t *testing.T) {
	r := testRenderer(false)

	user := r.Render(Bubble{Variant: VariantUser, Avatar: "U", Label: "You", Content: "Hi there"}, 60)
	if !strings.Contains(user, "Hi there") || !strings.Contains(user, "U") {
		t.Errorf("user bubble missing content or avatar:\n%s", user)
	}

	asst := r.Render(Bubble{Variant: VariantAssistant, Avatar: "A", Label: "Assistant", Content: "Hello!"}, 60)
	if !strings.Contains(asst, "Hello!") || !strings.Contains(asst, "Assistant") {
		t.Errorf("assistant bubble missing content or label:\n%s", asst)
	}
}

func TestRender_FitsWidth(t *testing.T) {
	r := testRenderer(false)
	long := strings.Repeat("word ", 60) + strings.Repeat("x", 90)

	for _, width := range []int{40, 60, 100} {
		for _, v := range []Variant{VariantUser, VariantAssistant} {
			out := r.Render(Bubble{Variant: v, Avatar: "U", Label: "You", Content: long}, width)
			if w := lipgloss.Width(out); w > width {
				t.Errorf("%s bubble at width %d rendered %d columns", v, width, w)
			}
		}
	}
}

func TestRender_UserRightAligned(t *testing.T) {
	r := testRenderer(false)
	out := r.Render(Bubble{Variant: VariantUser, Avatar: "U", Label: "You", Content: "hi"}, 60)

	first := strings.Split(out, "\n")[0]
	if !strings.HasPrefix(first, "    ") {
		t.Errorf("user bubble should be padded on the left, got %q", first)
	}
}

func TestRender_EmptyContent(t *testing.T) {
	r := testRenderer(false)
	out := r.Render(Bubble{Variant: VariantAssistant, Avatar: "A", Label: "Assistant"}, 60)
	if !strings.Contains(out, "...") {
		t.Errorf("empty bubble should show placeholder:\n%s", out)
	}
}

func TestRender_Markdown(t *testing.T) {
	r := testRenderer(true)
	out := r.Render(Bubble{Variant: VariantAssistant, Avatar: "A", Label: "Assistant", Content: "some **bold** text"}, 80)
	if !strings.Contains(out, "bold") || !strings.Contains(out, "text") {
		t.Errorf("markdown bubble lost content:\n%s", out)
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "hello world", 20, "hello world"},
		{"wrap", "hello world", 7, "hello\nworld"},
		{"keeps newlines", "a\nb", 10, "a\nb"},
		{"long word", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"zero width", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordWrap(tt.text, tt.width); got != tt.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWordWrap_WideRunes(t *testing.T) {
	got := wordWrap("日本語のテキスト", 6)
	for _, line := range strings.Split(got, "\n") {
		if w := runewidth.StringWidth(line); w > 6 {
			t.Errorf("line %q is %d columns wide, want <= 6", line, w)
		}
	}
}

// =============================================================================
// VIEWPORT TESTS
// =============================================================================

func TestChatViewport_AppendScrollsToEnd(t *testing.T) {
	vp := NewChatViewport(testRenderer(false))
	vp.SetSize(60, 10)

	for i := 0; i < 20; i++ {
		vp.Append(FromMessage(model.Message{Role: model.RoleUser, Content: "message"}))
		if !vp.AtBottom() {
			t.Fatalf("viewport not at bottom after append %d", i)
		}
	}
	if vp.Len() != 20 {
		t.Errorf("Len() = %d, want 20", vp.Len())
	}

	// Scrolling up and appending again returns to the end.
	vp.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	if vp.AtBottom() {
		t.Fatal("PgUp should leave the bottom")
	}
	vp.Append(FromMessage(model.Message{Role: model.RoleAssistant, Content: "reply"}))
	if !vp.AtBottom() {
		t.Error("append should scroll back to the end")
	}
}

func TestChatViewport_Reset(t *testing.T) {
	vp := NewChatViewport(testRenderer(false))
	vp.SetSize(60, 10)
	vp.Append(Bubble{Variant: VariantUser, Content: "a"})
	vp.Append(Bubble{Variant: VariantAssistant, Content: "b"})

	vp.Reset()
	if vp.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", vp.Len())
	}
	if !strings.Contains(vp.View(), "No messages yet") {
		t.Errorf("empty view should say so:\n%s", vp.View())
	}
}

func TestChatViewport_ViewBeforeSize(t *testing.T) {
	vp := NewChatViewport(testRenderer(false))
	if vp.View() != "" {
		t.Error("View() before SetSize should be empty")
	}
}
