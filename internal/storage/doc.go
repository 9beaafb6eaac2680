// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local conversation persistence for relaychat.
//
// The store wraps one SQLite database with two tables: an append-only
// message log ("chats") and a key/value metadata table ("metadata").
// Every operation runs in its own transaction and either commits all of
// its writes or none.
//
// # Key Types
//
//   - Store: Open database handle with message and metadata operations
//   - StoreError: Failure with an explicit Kind (not found, tx aborted)
//
// # Usage
//
// Open a store, append and list messages:
//
//	store, err := storage.Open(ctx, path)
//	defer store.Close()
//	msg, err := store.AppendMessage(ctx, model.RoleUser, "Hi")
//	msgs, err := store.ListMessages(ctx)
//
// Metadata is first-write-wins for the thread id:
//
//	value, set, err := store.SetMetadataIfAbsent(ctx, model.ThreadIDKey, "t1")
//
// # Storage Location
//
// The database defaults to ~/.relaychat/relaychat.db.
package storage
