// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat view for relaychat.

The chat package binds the controller to a Bubble Tea program. It owns the
screen layout and the key handling; everything else (persistence, dispatch,
ordering of a submission) is the controller's job.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model:
  - ChatViewport holding the rendered message thread
  - textinput for the prompt, locked while a request is in flight
  - spinner shown in the status bar while busy
  - the current dispatch mode, toggled with Tab

## ProgramView (bridge.go)

ProgramView implements controller.View. The controller runs inside tea.Cmd
goroutines, so it must never touch the viewport directly. ProgramView turns
each Append and Reset into a message sent to the running program, and the
viewport is only changed from Update.

## Rendering (view.go)

Layout, top to bottom:

	header      brand, endpoint, mode
	viewport    message bubbles
	input       prompt line
	status bar  spinner or status text, key hints

# Key Bindings

  - Enter: send the message
  - Tab: switch between stateful and stateless mode
  - Ctrl+N: start a new chat
  - PgUp/PgDn: scroll the thread
  - Ctrl+C: quit

# Usage

	view := chat.NewProgramView()
	ctrl := controller.New(store, dispatcher, view)
	m := chat.New(ctrl, chat.Options{Theme: theme, Endpoint: url})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	view.Attach(p)
	_, err := p.Run()
*/
package chat
