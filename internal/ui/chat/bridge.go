// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/relaychat/internal/ui/components"
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView implements controller.View by forwarding every change to the
// program as a message. Calls made before Attach are dropped.
type ProgramView struct {
	mu     sync.RWMutex
	sender Sender
}

// NewProgramView creates a view with no program attached.
func NewProgramView() *ProgramView {
	return &ProgramView{}
}

// Attach sets the program that receives view messages.
func (v *ProgramView) Attach(s Sender) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sender = s
}

// Append sends a BubbleAppendMsg.
func (v *ProgramView) Append(b components.Bubble) {
	v.send(BubbleAppendMsg{Bubble: b})
}

// Reset sends a ViewResetMsg.
func (v *ProgramView) Reset() {
	v.send(ViewResetMsg{})
}

func (v *ProgramView) send(msg tea.Msg) {
	v.mu.RLock()
	s := v.sender
	v.mu.RUnlock()
	if s != nil {
		s.Send(msg)
	}
}
