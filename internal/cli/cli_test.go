// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/relaychat/internal/config"
	"github.com/jeranaias/relaychat/internal/controller"
	"github.com/jeranaias/relaychat/internal/dispatch"
	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/storage"
	"github.com/jeranaias/relaychat/internal/ui/components"
	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "positional only",
			args: []string{"history"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(0) != "history" || p.PositionalCount() != 1 {
					t.Errorf("positional = %v", p.PositionalFrom(0))
				}
			},
		},
		{
			name: "flag with value",
			args: []string{"chat", "--db", "/tmp/a.db"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("db") != "/tmp/a.db" {
					t.Errorf("Flag(db) = %q", p.Flag("db"))
				}
			},
		},
		{
			name: "flag with equals",
			args: []string{"--mode=stateless"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("mode") != "stateless" {
					t.Errorf("Flag(mode) = %q", p.Flag("mode"))
				}
			},
		},
		{
			name: "declared bool flag does not swallow positional",
			args: []string{"--json", "history"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
				if p.Positional(0) != "history" {
					t.Errorf("Positional(0) = %q, want history", p.Positional(0))
				}
			},
		},
		{
			name: "trailing flag is boolean",
			args: []string{"history", "--verbose"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("verbose") {
					t.Error("BoolFlag(verbose) should be true")
				}
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"config", "set", "--", "api.system_prompt", "--be brief--"},
			validate: func(t *testing.T, p *ArgParser) {
				want := []string{"config", "set", "api.system_prompt", "--be brief--"}
				if got := p.PositionalFrom(0); !equalStrings(got, want) {
					t.Errorf("positional = %v, want %v", got, want)
				}
			},
		},
		{
			name: "short flag",
			args: []string{"history", "-o", "out.md"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("o") != "out.md" {
					t.Errorf("Flag(o) = %q", p.Flag("o"))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, "json"))
		})
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	if p.PositionalCount() != 0 || p.Positional(0) != "" || p.PositionalFrom(0) != nil {
		t.Error("empty parser should have no positional arguments")
	}
	if p.HasFlag("json") {
		t.Error("empty parser should have no flags")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{nil, CmdTUI, func(t *testing.T, a Args) { assert.False(t, a.ExplicitTUI) }},
		{[]string{"tui"}, CmdTUI, func(t *testing.T, a Args) { assert.True(t, a.ExplicitTUI) }},
		{[]string{"chat", "--mode", "stateless"}, CmdChat, func(t *testing.T, a Args) {
			assert.Equal(t, "stateless", a.Mode)
		}},
		{[]string{"--json", "history"}, CmdHistory, func(t *testing.T, a Args) { assert.True(t, a.JSON) }},
		{[]string{"history", "--output", "out.md"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Equal(t, "out.md", a.Output)
		}},
		{[]string{"export", "--format", "html"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Equal(t, "html", a.Format)
		}},
		{[]string{"clear", "-y"}, CmdClear, func(t *testing.T, a Args) { assert.True(t, a.Yes) }},
		{[]string{"config"}, CmdConfig, func(t *testing.T, a Args) { assert.Equal(t, "show", a.Subcommand) }},
		{[]string{"config", "set", "api.base_url", "http://localhost:8080"}, CmdConfig, func(t *testing.T, a Args) {
			assert.Equal(t, "set", a.Subcommand)
			assert.Equal(t, []string{"api.base_url", "http://localhost:8080"}, a.Positional)
		}},
		{[]string{"--config", "/etc/rc.toml", "--db", "/tmp/c.db", "--endpoint", "http://x"}, CmdTUI, func(t *testing.T, a Args) {
			assert.Equal(t, "/etc/rc.toml", a.ConfigPath)
			assert.Equal(t, "/tmp/c.db", a.DBPath)
			assert.Equal(t, "http://x", a.Endpoint)
		}},
		{[]string{"--version"}, CmdVersion, nil},
		{[]string{"help"}, CmdHelp, nil},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd, "command %s", cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, argv := range [][]string{
		{"frobnicate"},
		{"chat", "--db"},
		{"--mode"},
	} {
		_, _, err := Parse(argv)
		var usageErr *UsageError
		assert.True(t, errors.As(err, &usageErr), "Parse(%v) err = %v", argv, err)
		assert.Equal(t, ExitUsageError, GetExitCode(err))
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{NewUsageError("bad"), ExitUsageError},
		{fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "log.level", Message: "bad"}}), ExitConfigError},
		{fmt.Errorf("load: %w", config.ErrInvalidConfig), ExitConfigError},
		{NewCommandError("chat", "submit", storage.ErrTxAborted), ExitStorageError},
		{fmt.Errorf("open: %w", storage.ErrOpenFailed), ExitStorageError},
		{fmt.Errorf("x: %w", dispatch.ErrRequestFailed), ExitNetworkError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetExitCode(tt.err), "GetExitCode(%v)", tt.err)
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "history", errors.New("disk gone"), true)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "disk gone", *resp.Error)
	assert.Equal(t, "history", resp.Command)
}

// =============================================================================
// CHAT SESSION TESTS
// =============================================================================

// scriptReader feeds fixed lines, then io.EOF.
type scriptReader struct {
	lines   []string
	prompts []string
}

func (r *scriptReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type stubDispatcher struct {
	reply string
	err   error
	modes []model.Mode
}

func (d *stubDispatcher) Dispatch(_ context.Context, mode model.Mode, _ model.Message) (*dispatch.Result, error) {
	d.modes = append(d.modes, mode)
	if d.err != nil {
		return nil, d.err
	}
	return &dispatch.Result{Mode: mode, Reply: d.reply}, nil
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newSession(t *testing.T, d controller.Dispatcher, lines ...string) (*ChatSession, *storage.Store, *bytes.Buffer, *scriptReader) {
	t.Helper()
	store := openStore(t)
	out := &bytes.Buffer{}
	renderer := components.NewRenderer(styles.NewThemeFor(termenv.Ascii, true), false)
	view := NewPrintView(out, renderer, 60)
	reader := &scriptReader{lines: lines}

	session := &ChatSession{
		Controller: controller.New(store, d, view),
		Store:      store,
		Input:      reader,
		Out:        out,
		Endpoint:   "http://localhost:8080",
		Width:      60,
	}
	return session, store, out, reader
}

func TestChatSession_Exchange(t *testing.T) {
	d := &stubDispatcher{reply: "Hello!"}
	session, store, out, _ := newSession(t, d, "Hi", "   ", "/quit", "never read")

	require.NoError(t, session.Run(context.Background()))

	assert.Contains(t, out.String(), "Hi")
	assert.Contains(t, out.String(), "Hello!")
	assert.Contains(t, out.String(), "Goodbye!")

	msgs, err := store.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello!", msgs[1].Content)
	assert.Len(t, d.modes, 1, "blank input must not be sent")
}

func TestChatSession_ReplaysHistory(t *testing.T) {
	session, store, out, _ := newSession(t, &stubDispatcher{reply: "x"})
	ctx := context.Background()
	_, err := store.AppendMessage(ctx, model.RoleUser, "remembered question")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, model.RoleAssistant, "remembered answer")
	require.NoError(t, err)

	require.NoError(t, session.Run(ctx))

	text := out.String()
	q := strings.Index(text, "remembered question")
	a := strings.Index(text, "remembered answer")
	require.True(t, q >= 0 && a >= 0, "history not printed:\n%s", text)
	assert.Less(t, q, a)
}

func TestChatSession_ModeCommand(t *testing.T) {
	d := &stubDispatcher{reply: "ok"}
	session, _, out, reader := newSession(t, d, "/mode", "/mode chat", "Hi", "/mode bogus")

	require.NoError(t, session.Run(context.Background()))

	assert.Equal(t, []model.Mode{model.ModeStateless}, d.modes)
	assert.Contains(t, out.String(), "Mode switched to")
	assert.Contains(t, out.String(), "unknown mode")
	assert.Equal(t, "[Assistant] > ", reader.prompts[0])
	assert.Equal(t, "[Chat] > ", reader.prompts[2])
}

func TestChatSession_NewAndHistory(t *testing.T) {
	d := &stubDispatcher{reply: "first reply"}
	session, store, out, _ := newSession(t, d, "Hi", "/history", "/new", "/history")

	require.NoError(t, session.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Conversation History")
	assert.Contains(t, text, "You:")
	assert.Contains(t, text, "[New chat started]")
	assert.Contains(t, text, "[No messages yet]")

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChatSession_FailedRequest(t *testing.T) {
	d := &stubDispatcher{err: dispatch.ErrRequestFailed}
	session, store, out, _ := newSession(t, d, "Hi")

	require.NoError(t, session.Run(context.Background()))

	assert.Contains(t, out.String(), controller.DefaultErrorText)
	assert.Contains(t, out.String(), "Request failed")

	msgs, err := store.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, controller.DefaultErrorText, msgs[1].Content)
}

func TestChatSession_UnknownCommand(t *testing.T) {
	session, _, out, _ := newSession(t, &stubDispatcher{reply: "x"}, "/frob", "/help")
	require.NoError(t, session.Run(context.Background()))

	assert.Contains(t, out.String(), "unknown command: /frob")
	assert.Contains(t, out.String(), "/history")
}

// =============================================================================
// HISTORY AND CLEAR TESTS
// =============================================================================

func seed(t *testing.T, store *storage.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := store.AppendMessage(ctx, model.RoleUser, "Hi")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, model.RoleAssistant, "Hello!")
	require.NoError(t, err)
	require.NoError(t, store.SetMetadata(ctx, model.ThreadIDKey, "t1"))
}

func TestHandleHistory_Markdown(t *testing.T) {
	store := openStore(t)
	seed(t, store)

	var buf bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), store, &buf, HistoryOptions{}))

	text := buf.String()
	assert.Contains(t, text, "### [You]")
	assert.Contains(t, text, "### [Assistant]")
	assert.Contains(t, text, "thread: t1")
	assert.Less(t, strings.Index(text, "Hi"), strings.Index(text, "Hello!"))
}

func TestHandleHistory_JSON(t *testing.T) {
	store := openStore(t)
	seed(t, store)

	var buf bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), store, &buf, HistoryOptions{JSON: true}))

	var resp struct {
		Success bool               `json:"success"`
		Data    storage.Transcript `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "t1", resp.Data.ThreadID)
	require.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "Hello!", resp.Data.Messages[1].Content)
}

func TestHandleHistory_OutputFile(t *testing.T) {
	store := openStore(t)
	seed(t, store)
	path := filepath.Join(t.TempDir(), "exports", "chat.json")

	var buf bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), store, &buf, HistoryOptions{JSON: true, Output: path}))
	assert.Contains(t, buf.String(), "Exported 2 messages")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var tr storage.Transcript
	require.NoError(t, json.Unmarshal(data, &tr))
	assert.Len(t, tr.Messages, 2)
}

func TestHandleHistory_FormatFromExtension(t *testing.T) {
	store := openStore(t)
	seed(t, store)
	path := filepath.Join(t.TempDir(), "chat.html")

	require.NoError(t, HandleHistory(context.Background(), store, io.Discard, HistoryOptions{Output: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
	assert.Contains(t, string(data), "Hello!")
}

func TestHandleHistory_Format(t *testing.T) {
	store := openStore(t)
	seed(t, store)

	var buf bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), store, &buf, HistoryOptions{Format: "html"}))
	assert.Contains(t, buf.String(), `<div class="message user-message">`)

	err := HandleHistory(context.Background(), store, io.Discard, HistoryOptions{Format: "pdf"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), openStore(t), &buf, HistoryOptions{}))
	assert.Contains(t, buf.String(), "No messages yet.")
}

func TestHandleClear(t *testing.T) {
	ctx := context.Background()

	t.Run("yes", func(t *testing.T) {
		store := openStore(t)
		seed(t, store)
		var buf bytes.Buffer
		require.NoError(t, HandleClear(ctx, store, &buf, ClearOptions{Yes: true}))
		assert.Contains(t, buf.String(), "Cleared 2 messages.")

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		_, err = store.GetMetadata(ctx, model.ThreadIDKey)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("no terminal", func(t *testing.T) {
		store := openStore(t)
		seed(t, store)
		err := HandleClear(ctx, store, io.Discard, ClearOptions{})
		assert.Equal(t, ExitUsageError, GetExitCode(err))

		n, cerr := store.Count(ctx)
		require.NoError(t, cerr)
		assert.Equal(t, 2, n)
	})

	t.Run("declined", func(t *testing.T) {
		store := openStore(t)
		seed(t, store)
		var buf bytes.Buffer
		confirm := ConfirmWith(&scriptReader{lines: []string{"n"}})
		require.NoError(t, HandleClear(ctx, store, &buf, ClearOptions{Confirm: confirm}))
		assert.Contains(t, buf.String(), "Cancelled.")

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("confirmed json", func(t *testing.T) {
		store := openStore(t)
		seed(t, store)
		var buf bytes.Buffer
		confirm := ConfirmWith(&scriptReader{lines: []string{"y"}})
		require.NoError(t, HandleClear(ctx, store, &buf, ClearOptions{Confirm: confirm, JSON: true}))

		var resp struct {
			Data ClearData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Removed)
	})
}

// =============================================================================
// CONFIG COMMAND TESTS
// =============================================================================

func TestHandleConfig_SetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var buf bytes.Buffer
	err := HandleConfig(&buf, Args{Subcommand: "set", Positional: []string{"api.base_url", "http://localhost:9000"}}, config.Default(), path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Saved")

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "get", Positional: []string{"api.base_url"}}, cfg, path))
	assert.Equal(t, "http://localhost:9000\n", buf.String())

	// A second set keeps the first change.
	require.NoError(t, HandleConfig(io.Discard, Args{Subcommand: "set", Positional: []string{"ui.markdown", "false"}}, cfg, path))
	cfg, err = config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.False(t, cfg.UI.Markdown)
}

func TestHandleConfig_SetInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	err := HandleConfig(io.Discard, Args{Subcommand: "set", Positional: []string{"api.default_mode", "telepathic"}}, config.Default(), path)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "invalid value must not be saved")
}

func TestHandleConfig_ShowAndKeys(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "http://example.test"

	var buf bytes.Buffer
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "show"}, cfg, "unused"))
	assert.Contains(t, buf.String(), `base_url = "http://example.test"`)

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "keys"}, cfg, "unused"))
	for _, key := range config.GetAllKeys() {
		assert.Contains(t, buf.String(), key)
	}

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "path", JSON: true}, cfg, "/nonexistent/config.toml"))
	var resp struct {
		Data ConfigPathData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "/nonexistent/config.toml", resp.Data.Path)
	assert.False(t, resp.Data.Exists)
}

func TestHandleConfig_Usage(t *testing.T) {
	cfg := config.Default()
	for _, args := range []Args{
		{Subcommand: "get"},
		{Subcommand: "set", Positional: []string{"api.base_url"}},
		{Subcommand: "frob"},
	} {
		err := HandleConfig(io.Discard, args, cfg, "unused")
		assert.Equal(t, ExitUsageError, GetExitCode(err), "args %+v", args)
	}
}
