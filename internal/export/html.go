// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/storage"
	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with the
// terminal UI's palette.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML. All message text is escaped.
func (e *HTMLExporter) Export(t *storage.Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	theme := "dark"
	if e.options.Theme == "light" {
		theme = "light"
	}
	first, _ := dateRange(t)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("    <title>relaychat conversation</title>\n")
	sb.WriteString("    <meta name=\"generator\" content=\"relaychat\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", first.Format(time.RFC3339)))
	sb.WriteString(stylesheet())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>relaychat</strong> on %s</p>\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t *storage.Transcript) string {
	first, last := dateRange(t)

	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString("            <h1>Conversation</h1>\n")
	sb.WriteString("            <div class=\"metadata\">\n")
	if t.ThreadID != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Thread:</strong> %s</span>\n", html.EscapeString(t.ThreadID)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Started:</strong> %s</span>\n", formatTimestamp(first)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Last message:</strong> %s</span>\n", formatTimestamp(last)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", roleClass(msg.Role)))
	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg.Role))))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.CreatedAt)))
	}
	sb.WriteString("                </div>\n")
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(formatContent(msg.Content))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// roleClass maps a role to a CSS class prefix. Unknown roles share the
// system styling.
func roleClass(role model.Role) string {
	switch role {
	case model.RoleUser, model.RoleAssistant:
		return string(role)
	default:
		return "system"
	}
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

var (
	codeBlockRegex   = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex  = regexp.MustCompile("`([^`\n]+)`")
	placeholderRegex = regexp.MustCompile(`^\x00(\d+)\x00$`)
)

// formatContent turns fenced code blocks, inline code and blank-line
// separated paragraphs into HTML. Everything else is escaped.
func formatContent(content string) string {
	content = strings.ReplaceAll(strings.TrimSpace(content), "\x00", "")

	var blocks []string
	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		blocks = append(blocks, renderCodeBlock(parts[1], strings.TrimRight(parts[2], "\n")))
		return fmt.Sprintf("\x00%d\x00", len(blocks)-1)
	})
	content = html.EscapeString(content)

	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if idx, ok := placeholderIndex(para); ok && idx < len(blocks) {
			out = append(out, blocks[idx])
			continue
		}
		para = inlineCodeRegex.ReplaceAllString(para, "<code class=\"inline-code\">$1</code>")
		para = strings.ReplaceAll(para, "\n", "<br>\n")
		out = append(out, "<p>"+restoreBlocks(para, blocks)+"</p>")
	}
	return strings.Join(out, "\n")
}

// renderCodeBlock wraps one fenced block with its language label.
func renderCodeBlock(lang, code string) string {
	label := ""
	if lang != "" {
		label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	return "<div class=\"code-block\">" + label + highlightCode(code, lang) + "</div>"
}

// codeFormatter writes inline styles so the page needs no extra CSS.
var codeFormatter = chromahtml.New(chromahtml.WithClasses(false))

// highlightCode applies syntax highlighting using chroma. Code in an
// unknown or missing language is escaped and left plain.
func highlightCode(code, lang string) string {
	plain := fmt.Sprintf("<pre><code class=\"language-%s\">%s</code></pre>",
		html.EscapeString(lang), html.EscapeString(code))
	if lang == "" {
		return plain
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		return plain
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}

	var sb strings.Builder
	if err := codeFormatter.Format(&sb, chromastyles.Get("monokai"), iterator); err != nil {
		return plain
	}
	return sb.String()
}

// placeholderIndex reports whether s is exactly one code block placeholder.
func placeholderIndex(s string) (int, bool) {
	m := placeholderRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	return idx, err == nil
}

// restoreBlocks puts code blocks that share a paragraph with text back.
func restoreBlocks(s string, blocks []string) string {
	for i, b := range blocks {
		s = strings.ReplaceAll(s, fmt.Sprintf("\x00%d\x00", i), b)
	}
	return s
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// stylesheet builds the page CSS from the terminal palette so exports
// match the TUI in both themes.
func stylesheet() string {
	vars := func(pick func(lipgloss.AdaptiveColor) string) string {
		return fmt.Sprintf(`            --bg: %s;
            --surface: %s;
            --border: %s;
            --text: %s;
            --text-muted: %s;
            --accent: %s;
            --user-bg: %s;
            --user-fg: %s;
            --user-border: %s;
            --assistant-bg: %s;
            --assistant-fg: %s;
            --assistant-border: %s;
`,
			pick(styles.TextInverse), pick(styles.SurfaceDim), pick(styles.Overlay),
			pick(styles.TextPrimary), pick(styles.TextMuted), pick(styles.Cyan),
			pick(styles.UserBubbleBg), pick(styles.UserBubbleFg), pick(styles.UserBubbleBorder),
			pick(styles.AssistantBubbleBg), pick(styles.AssistantBubbleFg), pick(styles.AssistantBubbleBorder))
	}
	dark := vars(func(c lipgloss.AdaptiveColor) string { return c.Dark })
	light := vars(func(c lipgloss.AdaptiveColor) string { return c.Light })

	return `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
` + dark + `        }
        .light-theme {
` + light + `        }
        body {
            font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6;
            color: var(--text);
            background: var(--bg);
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; background: var(--surface); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; border-bottom: 2px solid var(--border); }
        .header h1 { font-size: 24px; color: var(--accent); margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 8px; border-left: 4px solid var(--border); }
        .user-message { background: var(--user-bg); color: var(--user-fg); border-left-color: var(--user-border); }
        .assistant-message { background: var(--assistant-bg); color: var(--assistant-fg); border-left-color: var(--assistant-border); }
        .system-message { background: var(--bg); }
        .message-header { display: flex; justify-content: space-between; font-size: 14px; margin-bottom: 8px; }
        .role-label { font-weight: 600; }
        .timestamp { font-family: monospace; opacity: 0.7; }
        .message-content p { margin-bottom: 10px; }
        .message-content p:last-child { margin-bottom: 0; }
        .code-block { margin: 12px 0; border: 1px solid var(--border); border-radius: 6px; background: var(--bg); color: var(--text); }
        .code-lang { padding: 4px 12px; font-size: 12px; text-transform: uppercase; color: var(--text-muted); }
        .code-block pre { padding: 12px; overflow-x: auto; margin: 0; }
        code { font-family: "Fira Code", monospace; font-size: 14px; }
        .inline-code { padding: 1px 5px; border-radius: 4px; background: var(--bg); color: var(--accent); }
        .footer { padding: 16px 32px; text-align: center; font-size: 14px; color: var(--text-muted); border-top: 1px solid var(--border); }
        @media print { .message { page-break-inside: avoid; } }
    </style>
`
}
