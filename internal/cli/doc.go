// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// relaychat.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global and command-specific flags
//   - ChatSession: line-mode chat driven by the controller
//   - PrintView: controller.View that prints bubbles to a writer
//   - JSONResponse: envelope for --json output
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    session := &cli.ChatSession{Controller: ctrl, Store: store, Input: in, Out: os.Stdout}
//	    return session.Run(ctx)
//	case cli.CmdHistory:
//	    return cli.HandleHistory(ctx, store, os.Stdout, cli.HistoryOptions{JSON: args.JSON})
//	}
//
// # Commands Overview
//
//   - tui: full screen chat (default on a terminal)
//   - chat: line-mode chat (default when output is piped)
//   - history: print or export the stored conversation
//   - clear: delete the stored conversation
//   - config: show, get, set, path, keys
//
// Commands that print data support --json.
package cli
