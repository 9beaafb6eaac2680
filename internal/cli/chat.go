// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for relaychat.
//
// Handles "relaychat chat", and the default command when stdout is not a
// terminal. Each exchange goes through the same controller as the terminal
// UI; bubbles are printed as they arrive.
//
// Interactive Commands (during chat):
//
//	/help, /h           Show available commands
//	/new, /clear        Start a new chat (deletes the stored conversation)
//	/mode [name]        Show or switch the dispatch mode
//	/history            List the stored conversation
//	/quit, /q           Exit chat
//	Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/relaychat/internal/controller"
	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/ui/components"
	"github.com/jeranaias/relaychat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input. *ChatCLI satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI. historyFile may be empty to disable
// persistent input history.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line of input with the given prompt.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	var sb strings.Builder
	if _, err := c.line.WriteHistory(&sb); err != nil {
		return
	}
	_ = util.AtomicWriteFile(c.historyFile, []byte(sb.String()), 0600)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// PRINT VIEW
// =============================================================================

// PrintView implements controller.View by printing bubbles to a writer.
type PrintView struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *components.Renderer
	width    int
}

// NewPrintView creates a view that renders bubbles width columns wide.
func NewPrintView(w io.Writer, renderer *components.Renderer, width int) *PrintView {
	return &PrintView{w: w, renderer: renderer, width: width}
}

// Append prints one bubble.
func (v *PrintView) Append(b components.Bubble) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, v.renderer.Render(b, v.width))
}

// Reset prints a separator; earlier output stays in the scrollback.
func (v *PrintView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, RenderSeparator(v.width))
}

// =============================================================================
// SESSION
// =============================================================================

// ChatController is the part of controller.Controller the REPL drives.
type ChatController interface {
	Load(ctx context.Context) error
	Submit(ctx context.Context, text string) (controller.Outcome, error)
	NewChat(ctx context.Context) error
	Mode() model.Mode
	SetMode(mode model.Mode)
}

// MessageLister lists the stored conversation for /history.
type MessageLister interface {
	ListMessages(ctx context.Context) ([]model.Message, error)
}

// ChatSession holds the state for a line-mode chat.
type ChatSession struct {
	Controller ChatController
	Store      MessageLister
	Input      LineReader
	Out        io.Writer
	Endpoint   string
	Width      int
}

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// Run replays the stored conversation, then reads and submits lines until
// /quit, EOF or Ctrl+C. Storage failures end the session with an error.
func (s *ChatSession) Run(ctx context.Context) error {
	s.printWelcome()

	if err := s.Controller.Load(ctx); err != nil {
		return NewCommandError("chat", "load history", err)
	}

	for {
		line, err := s.Input.Prompt(s.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(s.Out, InfoStyle.Render("Goodbye!"))
				return nil
			}
			return NewCommandError("chat", "read input", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := s.handleSlashCommand(ctx, input); err != nil {
				if errors.Is(err, errQuit) {
					fmt.Fprintln(s.Out, InfoStyle.Render("Goodbye!"))
					return nil
				}
				fmt.Fprintln(s.Out, ErrorStyle.Render("Error: ")+err.Error())
			}
			continue
		}

		out, err := s.Controller.Submit(ctx, input)
		switch {
		case errors.Is(err, controller.ErrBusy):
			fmt.Fprintln(s.Out, WarningStyle.Render("[Still waiting for the previous reply]"))
		case err != nil:
			return NewCommandError("chat", "submit", err)
		case out.Failed:
			fmt.Fprintln(s.Out, WarningStyle.Render("[Request failed, see the log for details]"))
		}
	}
}

// prompt shows the current mode.
func (s *ChatSession) prompt() string {
	return "[" + s.Controller.Mode().Label() + "] > "
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a REPL command. errQuit ends the session.
func (s *ChatSession) handleSlashCommand(ctx context.Context, cmd string) error {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return nil

	case "/new", "/clear", "/c":
		if err := s.Controller.NewChat(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, CommandStyle.Render("[New chat started]"))
		return nil

	case "/mode", "/m":
		return s.handleModeCommand(args)

	case "/history":
		return s.printHistory(ctx)

	case "/quit", "/q", "/exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModeCommand shows or switches the dispatch mode.
func (s *ChatSession) handleModeCommand(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out, "%s %s (%s)\n",
			InfoStyle.Render("[Mode]"),
			CommandStyle.Render(s.Controller.Mode().Label()),
			s.Controller.Mode())
		return nil
	}

	mode, err := model.ParseMode(args[0])
	if err != nil {
		return err
	}
	s.Controller.SetMode(mode)
	fmt.Fprintf(s.Out, "%s %s\n", InfoStyle.Render("[Mode switched to]"), CommandStyle.Render(mode.Label()))
	return nil
}

// printHistory lists the stored conversation, one line per message.
func (s *ChatSession) printHistory(ctx context.Context) error {
	msgs, err := s.Store.ListMessages(ctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(s.Out, InfoStyle.Render("[No messages yet]"))
		return nil
	}

	fmt.Fprintln(s.Out, TitleStyle.Render("Conversation History"))
	width := s.width() - 16
	for i, msg := range msgs {
		fmt.Fprintf(s.Out, "  %3d. %s %s\n", i+1,
			util.PadRight(msg.Role.DisplayName()+":", 10),
			util.Preview(msg.Content, width))
	}
	return nil
}

func (s *ChatSession) printWelcome() {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "(none configured)"
	}
	fmt.Fprintln(s.Out, TitleStyle.Render("relaychat")+" "+DimStyle.Render(Version))
	fmt.Fprintln(s.Out, RenderLabel("Endpoint:")+endpoint)
	fmt.Fprintln(s.Out, RenderLabel("Mode:")+s.Controller.Mode().Label())
	fmt.Fprintln(s.Out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printHelp() {
	fmt.Fprintln(s.Out, TitleStyle.Render("Commands"))
	fmt.Fprintln(s.Out, "  "+RenderLabel("/new")+"Start a new chat")
	fmt.Fprintln(s.Out, "  "+RenderLabel("/mode [name]")+"Show or switch mode (stateful, stateless)")
	fmt.Fprintln(s.Out, "  "+RenderLabel("/history")+"List the stored conversation")
	fmt.Fprintln(s.Out, "  "+RenderLabel("/quit")+"Exit")
}

func (s *ChatSession) width() int {
	if s.Width > 0 {
		return s.Width
	}
	return DefaultTerminalWidth
}
