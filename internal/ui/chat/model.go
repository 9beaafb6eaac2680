// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat/internal/controller"
	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/ui/components"
	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// =============================================================================
// CONTROLLER INTERFACE
// =============================================================================

// Controller is the part of controller.Controller the view drives.
type Controller interface {
	Load(ctx context.Context) error
	Submit(ctx context.Context, text string) (controller.Outcome, error)
	NewChat(ctx context.Context) error
	Mode() model.Mode
	SetMode(mode model.Mode)
}

// Options configures the chat model.
type Options struct {
	Theme    *styles.Theme
	Endpoint string
	Markdown bool
	Logger   *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Layout heights outside the viewport: header, input (border + line), status.
const (
	headerHeight = 1
	inputHeight  = 2
	statusHeight = 1
)

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctrl   Controller
	ctx    context.Context
	logger *zap.Logger

	theme    *styles.Theme
	viewport *components.ChatViewport
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Dimensions
	width  int
	height int

	// State
	busy     bool
	loaded   bool
	mode     model.Mode
	endpoint string

	// Status bar text; cleared on the next successful action.
	statusMsg   string
	statusError bool
}

// New creates the chat model.
func New(ctrl Controller, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 8192
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return Model{
		ctrl:     ctrl,
		ctx:      context.Background(),
		logger:   logger,
		theme:    theme,
		viewport: components.NewChatViewport(components.NewRenderer(theme, opts.Markdown)),
		input:    ti,
		spinner:  sp,
		keyMap:   DefaultKeyMap(),
		mode:     ctrl.Mode(),
		endpoint: opts.Endpoint,
	}
}

// Init loads the stored conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCmd())
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Busy reports whether a request is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// Mode returns the mode shown in the selector.
func (m Model) Mode() model.Mode {
	return m.mode
}

// Bubbles returns the bubbles in the thread.
func (m Model) Bubbles() []components.Bubble {
	return m.viewport.Bubbles()
}

// InputValue returns the current input line.
func (m Model) InputValue() string {
	return m.input.Value()
}

// Status returns the status bar text.
func (m Model) Status() string {
	return m.statusMsg
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case BubbleAppendMsg:
		m.viewport.Append(msg.Bubble)
		return m, nil

	case ViewResetMsg:
		m.viewport.Reset()
		return m, nil

	case LoadDoneMsg:
		m.loaded = true
		if msg.Err != nil {
			m.logger.Error("load failed", zap.Error(msg.Err))
			m.setStatus("Could not load history: "+msg.Err.Error(), true)
		}
		return m, nil

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case NewChatDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.logger.Error("new chat failed", zap.Error(msg.Err))
			m.setStatus("Could not clear chat: "+msg.Err.Error(), true)
		} else {
			m.setStatus("New chat started", false)
		}
		return m, m.input.Focus()

	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.setStatus("Config reload failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.endpoint = msg.Endpoint
		m.setStatus("Config reloaded", false)
		return m, nil

	case StatusMsg:
		m.setStatus(msg.Text, msg.IsError)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResize lays out the viewport between the header and the input.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 2 {
		vpHeight = 2
	}
	m.viewport.SetSize(m.width, vpHeight)

	// Prompt, container padding and cursor.
	m.input.Width = m.width - 8
	if m.input.Width < 1 {
		m.input.Width = 1
	}
	return m, nil
}

// handleKey routes keys to the view actions, the viewport or the input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keyMap.ToggleMode):
		m.mode = m.mode.Next()
		m.ctrl.SetMode(m.mode)
		m.setStatus("Mode: "+m.mode.Label(), false)
		return m, nil
	}

	// Input is locked while a request is in flight.
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewChat):
		m.busy = true
		m.input.Blur()
		return m, tea.Batch(m.spinner.Tick, m.newChatCmd())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input line to the controller.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.busy = true
	m.statusMsg = ""
	m.statusError = false
	return m, tea.Batch(m.spinner.Tick, m.submitCmd(text))
}

// handleSubmitDone unlocks the input and reports failures.
func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	switch {
	case errors.Is(msg.Err, controller.ErrBusy):
		m.setStatus("Still waiting for the previous reply", true)
	case msg.Err != nil:
		m.logger.Error("submit failed", zap.Error(msg.Err))
		m.setStatus("Could not save message: "+msg.Err.Error(), true)
	case msg.Outcome.Failed:
		m.setStatus("Request failed", true)
	}
	return m, m.input.Focus()
}

func (m *Model) setStatus(text string, isError bool) {
	m.statusMsg = text
	m.statusError = isError
}

// =============================================================================
// COMMANDS
// =============================================================================

// loadCmd replays the stored conversation.
func (m Model) loadCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return LoadDoneMsg{Err: ctrl.Load(ctx)}
	}
}

// submitCmd runs one exchange off the update loop.
func (m Model) submitCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		out, err := ctrl.Submit(ctx, text)
		return SubmitDoneMsg{Outcome: out, Err: err}
	}
}

// newChatCmd clears the conversation off the update loop.
func (m Model) newChatCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return NewChatDoneMsg{Err: ctrl.NewChat(ctx)}
	}
}
