// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/storage"
	"github.com/jeranaias/relaychat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	// Export returns the formatted transcript.
	Export(t *storage.Transcript) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

var (
	// ErrNilTranscript is returned when there is nothing to export.
	ErrNilTranscript = errors.New("transcript is nil")

	// ErrEmpty is returned by the document formats for a conversation
	// without messages. JSON exports an empty list instead.
	ErrEmpty = errors.New("conversation has no messages")
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with thread id, counts and dates.
	IncludeMetadata bool

	// IncludeTimestamps adds the time of each message.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

// Formats lists the names ForFormat accepts.
var Formats = []string{"markdown", "html", "json"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (markdown, html, json)", format)
	}
}

// ForPath picks the exporter from the file extension. Unknown extensions
// get Markdown.
func ForPath(path string, opts *Options) (Exporter, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "html", "htm", "json":
		return ForFormat(ext, opts)
	default:
		return NewMarkdownExporter(opts), nil
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// WriteFile exports t and writes it atomically to path with 0600
// permissions. Transcripts may contain private conversation text.
func WriteFile(t *storage.Transcript, exporter Exporter, path string) error {
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DefaultFilename names an export after the thread and export time.
func DefaultFilename(t *storage.Transcript, exporter Exporter) string {
	name := "conversation"
	if t != nil && t.ThreadID != "" {
		name = sanitizeFilename(t.ThreadID)
	}
	stamp := time.Now()
	if t != nil && !t.ExportedAt.IsZero() {
		stamp = t.ExportedAt
	}
	return fmt.Sprintf("relaychat_%s_%s%s", name, stamp.Format("20060102_150405"), exporter.FileExtension())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validate rejects transcripts the document formats cannot render.
func validate(t *storage.Transcript) error {
	if t == nil {
		return ErrNilTranscript
	}
	if len(t.Messages) == 0 {
		return ErrEmpty
	}
	return nil
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// roleLabel returns the bracketed label used in document exports.
func roleLabel(role model.Role) string {
	if role == "" {
		return "[Unknown]"
	}
	return "[" + role.DisplayName() + "]"
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// dateRange returns the first and last message times.
func dateRange(t *storage.Transcript) (first, last time.Time) {
	if len(t.Messages) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.Messages[0].CreatedAt, t.Messages[len(t.Messages)-1].CreatedAt
}
