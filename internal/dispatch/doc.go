// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch sends user messages to the remote text-generation
// endpoint and extracts the reply.
//
// Two request modes are supported:
//
//   - Stateful: POST {base}/assistant with {message, thread_id?}. The
//     server may return a thread_id, which is stored once and then sent
//     with every later request.
//   - Stateless: POST {base}/chat with {messages}, the system preamble plus
//     the full stored history and the new message.
//
// # Key Types
//
//   - Client: JSON-over-HTTP client bound to a base URL
//   - Dispatcher: Builds payloads from the store and interprets replies
//   - Result: Reply text and any thread id received
//
// # Usage
//
//	client := dispatch.NewClient(baseURL, logger)
//	d := dispatch.New(client, store, dispatch.WithSystemPrompt(prompt))
//	res, err := d.Dispatch(ctx, model.ModeStateless, userMsg)
//
// Every non-success outcome of the exchange matches ErrRequestFailed;
// status codes are logged but not distinguished.
package dispatch
