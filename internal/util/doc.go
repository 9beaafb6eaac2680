// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the relaychat packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: column-aware truncation with ellipsis
//   - Preview: one-line, collapsed, truncated form of a message
//   - PadRight: terminal column width helper
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Fit an endpoint into the header
//	meta := util.TruncateWidth(endpoint, room)
//
//	// Write the config without ever leaving a half-written file
//	err := util.AtomicWriteFile(path, data, 0600)
package util
