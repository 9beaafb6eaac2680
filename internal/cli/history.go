// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/relaychat/internal/export"
	"github.com/jeranaias/relaychat/internal/storage"
)

// =============================================================================
// HISTORY COMMAND
// =============================================================================

// Snapshotter reads the whole stored conversation.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*storage.Transcript, error)
}

// HistoryOptions controls the history command.
type HistoryOptions struct {
	JSON   bool
	Format string
	Output string
}

// HandleHistory prints the stored conversation as Markdown, or as a JSON
// envelope with --json. --format picks another rendering. With --output
// the export is written to that file instead, in the format named by
// --format, --json or the file extension.
func HandleHistory(ctx context.Context, src Snapshotter, w io.Writer, opts HistoryOptions) error {
	t, err := src.Snapshot(ctx)
	if err != nil {
		return NewCommandError("history", "read conversation", err)
	}

	if opts.JSON && opts.Format == "" && opts.Output == "" {
		return NewJSONResponse("history", t).Write(w)
	}

	exporter, err := selectExporter(opts)
	if err != nil {
		return NewUsageError(err.Error())
	}

	if opts.Output != "" {
		if err := export.WriteFile(t, exporter, opts.Output); err != nil {
			return NewCommandError("history", "write export", err)
		}
		fmt.Fprintf(w, "Exported %d messages to %s\n", len(t.Messages), opts.Output)
		return nil
	}

	data, err := exporter.Export(t)
	if errors.Is(err, export.ErrEmpty) {
		fmt.Fprintln(w, InfoStyle.Render("No messages yet."))
		return nil
	}
	if err != nil {
		return NewCommandError("history", "export", err)
	}
	_, err = w.Write(data)
	return err
}

// selectExporter resolves the history output format.
func selectExporter(opts HistoryOptions) (export.Exporter, error) {
	switch {
	case opts.Format != "":
		return export.ForFormat(opts.Format, nil)
	case opts.JSON:
		return export.NewJSONExporter(nil), nil
	case opts.Output != "":
		return export.ForPath(opts.Output, nil)
	default:
		return export.NewMarkdownExporter(nil), nil
	}
}

// =============================================================================
// CLEAR COMMAND
// =============================================================================

// ClearStore is the part of the store the clear command needs.
type ClearStore interface {
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// ClearOptions controls the clear command.
type ClearOptions struct {
	Yes  bool
	JSON bool
	// Confirm asks the user; nil means no one can be asked.
	Confirm func(question string) bool
}

// HandleClear deletes every stored message and the thread id.
func HandleClear(ctx context.Context, store ClearStore, w io.Writer, opts ClearOptions) error {
	n, err := store.Count(ctx)
	if err != nil {
		return NewCommandError("clear", "count messages", err)
	}

	if !opts.Yes && n > 0 {
		if opts.Confirm == nil {
			return NewUsageError("refusing to clear without --yes when stdin is not a terminal")
		}
		if !opts.Confirm(fmt.Sprintf("Delete %d stored messages?", n)) {
			fmt.Fprintln(w, InfoStyle.Render("Cancelled."))
			return nil
		}
	}

	if err := store.Clear(ctx); err != nil {
		return NewCommandError("clear", "delete conversation", err)
	}

	if opts.JSON {
		return NewJSONResponse("clear", ClearData{Removed: n}).Write(w)
	}
	fmt.Fprintln(w, CommandStyle.Render(fmt.Sprintf("Cleared %d messages.", n)))
	return nil
}

// ConfirmWith returns a Confirm function that asks through r.
func ConfirmWith(r LineReader) func(string) bool {
	return func(question string) bool {
		answer, err := r.Prompt(question + " [y/N] ")
		if err != nil {
			return false
		}
		switch answer {
		case "y", "Y", "yes", "YES", "Yes":
			return true
		}
		return false
	}
}
