// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/storage"
)

func testTranscript() *storage.Transcript {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return &storage.Transcript{
		ThreadID:   "thread-42",
		ExportedAt: base.Add(time.Hour),
		Messages: []model.Message{
			{ID: 1, Role: model.RoleUser, Content: "How do I list files?", CreatedAt: base},
			{ID: 2, Role: model.RoleAssistant, Content: "Use `ls`:\n\n```sh\nls -la\n```", CreatedAt: base.Add(time.Minute)},
		},
	}
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		ext  string
	}{
		{"chat.md", ".md"},
		{"chat.MD", ".md"},
		{"chat.html", ".html"},
		{"chat.htm", ".html"},
		{"chat.json", ".json"},
		{"chat.txt", ".md"},
		{"chat", ".md"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			exp, err := ForPath(tt.path, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
		})
	}
}

func TestForFormat(t *testing.T) {
	for _, name := range Formats {
		_, err := ForFormat(name, nil)
		assert.NoError(t, err, name)
	}

	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestDefaultFilename(t *testing.T) {
	tr := testTranscript()
	tr.ThreadID = "a/b:c"
	name := DefaultFilename(tr, NewMarkdownExporter(nil))
	assert.Equal(t, "relaychat_a-b-c_20250314_103000.md", name)

	assert.True(t, strings.HasPrefix(DefaultFilename(&storage.Transcript{}, NewJSONExporter(nil)), "relaychat_conversation_"))
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(testTranscript())
	require.NoError(t, err)
	md := string(out)

	for _, want := range []string{
		"---\nthread: thread-42\n",
		"messages: 2\n",
		"generator: relaychat\n",
		"# Conversation",
		"### [You] <sub>09:30:00</sub>",
		"How do I list files?",
		"### [Assistant] <sub>09:31:00</sub>",
		"```sh\nls -la\n```",
		"*Exported from relaychat on March 14, 2025 at 10:30 AM*",
	} {
		assert.Contains(t, md, want)
	}
	assert.Less(t, strings.Index(md, "[You]"), strings.Index(md, "[Assistant]"))
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(testTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---"))
	assert.NotContains(t, md, "thread-42")
	assert.Contains(t, md, "### [You]\n")
}

func TestMarkdownExporter_EscapesFrontmatter(t *testing.T) {
	tr := testTranscript()
	tr.ThreadID = "t1\ninjected: yes"
	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)

	for _, line := range strings.Split(string(out), "\n") {
		assert.False(t, strings.HasPrefix(line, "injected:"), "newline escaped into frontmatter")
	}
	assert.Contains(t, string(out), `thread: "t1\ninjected: yes"`)
}

func TestDocumentExporters_Empty(t *testing.T) {
	empty := &storage.Transcript{ExportedAt: time.Now()}
	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil)} {
		_, err := exp.Export(empty)
		assert.ErrorIs(t, err, ErrEmpty)

		_, err = exp.Export(nil)
		assert.ErrorIs(t, err, ErrNilTranscript)
	}
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(testTranscript())
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, `<body class="dark-theme">`)
	assert.Contains(t, page, `<div class="message user-message">`)
	assert.Contains(t, page, `<div class="message assistant-message">`)
	assert.Contains(t, page, "<strong>Thread:</strong> thread-42")
	assert.Contains(t, page, `<code class="inline-code">ls</code>`)
	assert.Contains(t, page, `<div class="code-lang">sh</div>`)
	assert.Contains(t, page, "-la")
	assert.Contains(t, page, "--user-bg: #1D4ED8;")
	assert.Contains(t, page, "--user-bg: #DBEAFE;")
}

func TestHTMLExporter_LightTheme(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = "light"
	out, err := NewHTMLExporter(opts).Export(testTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(out), `<body class="light-theme">`)
}

func TestHTMLExporter_EscapesContent(t *testing.T) {
	tr := testTranscript()
	tr.Messages[0].Content = "<script>alert('x')</script>"
	tr.Messages[1].Content = "```<img>\nboom\n```"

	out, err := NewHTMLExporter(nil).Export(tr)
	require.NoError(t, err)
	page := string(out)

	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<img>")
}

func TestFormatContent(t *testing.T) {
	got := formatContent("line one\nline two\n\n```nosuchlang\nx < 1\n\ny > 2\n```\n\nafter")
	assert.Equal(t,
		"<p>line one<br>\nline two</p>\n"+
			"<div class=\"code-block\"><div class=\"code-lang\">nosuchlang</div><pre><code class=\"language-nosuchlang\">x &lt; 1\n\ny &gt; 2</code></pre></div>\n"+
			"<p>after</p>",
		got)
}

func TestFormatContent_Highlighted(t *testing.T) {
	got := formatContent("```go\nfmt.Println(\"<b>\")\n```")
	assert.Contains(t, got, `<div class="code-lang">go</div>`)
	assert.Contains(t, got, "<span")
	assert.Contains(t, got, "Println")
	assert.NotContains(t, got, `class="language-go"`)
	assert.NotContains(t, got, "<b>")
}

// =============================================================================
// JSON AND FILES
// =============================================================================

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testTranscript())
	require.NoError(t, err)

	var back storage.Transcript
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "thread-42", back.ThreadID)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, model.RoleAssistant, back.Messages[1].Role)

	empty, err := NewJSONExporter(nil).Export(&storage.Transcript{})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"messages": []`)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat.html")
	exp, err := ForPath(path, nil)
	require.NoError(t, err)

	require.NoError(t, WriteFile(testTranscript(), exp, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestWriteFile_ExportError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.md")
	err := WriteFile(&storage.Transcript{}, NewMarkdownExporter(nil), path)
	assert.ErrorIs(t, err, ErrEmpty)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
