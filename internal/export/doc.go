// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders a stored conversation as Markdown, HTML or JSON.
//
// # Key Types
//
//   - Exporter: one output format
//   - Options: metadata, timestamps and HTML theme
//
// # Usage
//
//	t, _ := store.Snapshot(ctx)
//	exp, _ := export.ForPath("chat.html", nil)
//	err := export.WriteFile(t, exp, "chat.html")
package export
