// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for messages and request modes.
//
// # Key Types
//
//   - Message: Single stored chat message with role, content and id
//   - Role: Message role enumeration (user, assistant, system)
//   - Mode: Request mode for the remote endpoint (stateful, stateless)
//
// # Usage
//
//	mode, err := model.ParseMode("assistant") // ModeStateful
//	msg := model.Message{Role: model.RoleUser, Content: "Hi"}
package model
