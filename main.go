// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// relaychat is a terminal chat client for a remote conversational
// endpoint. It keeps the conversation in a local SQLite database and sends
// each message either to the stateful assistant route or, with the full
// history, to the stateless chat route.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat/internal/cli"
	"github.com/jeranaias/relaychat/internal/config"
	"github.com/jeranaias/relaychat/internal/controller"
	"github.com/jeranaias/relaychat/internal/dispatch"
	"github.com/jeranaias/relaychat/internal/logging"
	"github.com/jeranaias/relaychat/internal/storage"
	"github.com/jeranaias/relaychat/internal/ui/chat"
	"github.com/jeranaias/relaychat/internal/ui/components"
	"github.com/jeranaias/relaychat/internal/ui/styles"
)

// Version information, set at build time via ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// programRef is the running TUI program, used by the config watcher to
// deliver reload notices.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one invocation and returns the process exit code.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		if args.JSON {
			cli.NewJSONResponse("version", cli.VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
			}).Write(os.Stdout)
			return cli.ExitSuccess
		}
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}

	if cmd == cli.CmdConfig {
		if err := cli.HandleConfig(os.Stdout, args, cfg, cfgPath); err != nil {
			cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
			return cli.GetExitCode(err)
		}
		return cli.ExitSuccess
	}

	// Started operations are never cancelled; an interrupt ends the process.
	ctx := context.Background()

	a, err := openApp(ctx, cfg, cfgPath)
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}
	defer a.Close()

	switch cmd {
	case cli.CmdHistory:
		err = cli.HandleHistory(ctx, a.store, os.Stdout, cli.HistoryOptions{
			JSON:   args.JSON,
			Format: args.Format,
			Output: args.Output,
		})
	case cli.CmdClear:
		err = a.runClear(ctx, args)
	case cli.CmdChat:
		err = a.runChat(ctx)
	default:
		if cli.CanRunTUI() || args.ExplicitTUI {
			err = a.runTUI(args)
		} else {
			err = a.runChat(ctx)
		}
	}

	if err != nil {
		a.log.Error("command failed", zap.String("command", cmd.String()), zap.Error(err))
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig reads the config file (explicit or default), applies the
// environment and command line overrides and validates the result. It
// also returns the file path that config set and the watcher use.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
	} else {
		if path, err = config.DefaultPath(); err != nil {
			return nil, "", err
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	applyFlagOverrides(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyFlagOverrides lets command line flags win over file and environment.
func applyFlagOverrides(cfg *config.Config, args cli.Args) {
	if args.DBPath != "" {
		cfg.Storage.Path = args.DBPath
	}
	if args.Mode != "" {
		cfg.API.DefaultMode = args.Mode
	}
	if args.Endpoint != "" {
		cfg.API.BaseURL = args.Endpoint
	}
}

// =============================================================================
// APPLICATION LIFECYCLE
// =============================================================================

// app owns the long-lived pieces of one invocation: the logger, the store
// and the dispatcher built on them.
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *logging.Logger
	log     *zap.Logger
	store   *storage.Store
	client  *dispatch.Client
	disp    *dispatch.Dispatcher
}

// openApp opens the logger and the store. Close releases both.
func openApp(ctx context.Context, cfg *config.Config, cfgPath string) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return nil, err
	}
	log := logger.Logger

	store, err := storage.Open(ctx, cfg.Storage.Path)
	if err != nil {
		logger.Close()
		return nil, err
	}
	log.Info("store opened", zap.String("path", store.Path()))

	client := dispatch.NewClient(cfg.API.BaseURL, log)
	disp := dispatch.New(client, store,
		dispatch.WithSystemPrompt(cfg.API.SystemPrompt),
		dispatch.WithLogger(log),
	)

	return &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
		log:     log,
		store:   store,
		client:  client,
		disp:    disp,
	}, nil
}

// Close closes the store, then the logger.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close store", zap.Error(err))
	}
	a.logger.Close()
}

// newController builds the controller that drives view.
func (a *app) newController(view controller.View) (*controller.Controller, error) {
	policy, err := controller.ParsePolicy(a.cfg.UI.Reentrancy)
	if err != nil {
		return nil, err
	}
	return controller.New(a.store, a.disp, view,
		controller.WithPolicy(policy),
		controller.WithErrorText(a.cfg.UI.ErrorText),
		controller.WithMode(a.cfg.Mode()),
		controller.WithLogger(a.log),
	), nil
}

// =============================================================================
// TUI MODE
// =============================================================================

// runTUI runs the full screen chat until the user quits.
func (a *app) runTUI(args cli.Args) error {
	view := chat.NewProgramView()
	ctrl, err := a.newController(view)
	if err != nil {
		return err
	}

	m := chat.New(ctrl, chat.Options{
		Theme:    styles.NewTheme(),
		Endpoint: a.client.BaseURL(),
		Markdown: a.cfg.UI.Markdown,
		Logger:   a.log,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	view.Attach(p)

	programMu.Lock()
	programRef = p
	programMu.Unlock()
	defer func() {
		programMu.Lock()
		programRef = nil
		programMu.Unlock()
	}()

	if w := a.watchConfig(args); w != nil {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running relaychat: %w", err)
	}
	return nil
}

// watchConfig reloads the endpoint and log level when the config file
// changes. It returns nil when there is no file to watch.
func (a *app) watchConfig(args cli.Args) *config.Watcher {
	if a.cfgPath == "" {
		return nil
	}
	if _, err := os.Stat(a.cfgPath); err != nil {
		return nil
	}

	w, err := config.Watch(a.cfgPath, func(cfg *config.Config, err error) {
		if err == nil {
			applyFlagOverrides(cfg, args)
			err = cfg.Validate()
		}
		if err != nil {
			a.log.Warn("config reload rejected", zap.Error(err))
			sendToProgram(chat.ConfigReloadedMsg{Err: err})
			return
		}

		a.client.SetBaseURL(cfg.API.BaseURL)
		if err := a.logger.SetLevel(cfg.Log.Level); err != nil {
			a.log.Warn("invalid log level on reload", zap.Error(err))
		}
		a.log.Info("config reloaded", zap.String("base_url", cfg.API.BaseURL))
		sendToProgram(chat.ConfigReloadedMsg{Endpoint: cfg.API.BaseURL})
	})
	if err != nil {
		a.log.Warn("config watch disabled", zap.String("path", a.cfgPath), zap.Error(err))
		return nil
	}
	return w
}

// sendToProgram delivers msg to the running TUI, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// LINE MODE
// =============================================================================

// runChat runs the line-mode REPL on stdin and stdout.
func (a *app) runChat(ctx context.Context) error {
	width := cli.GetTerminalWidth()
	renderer := components.NewRenderer(styles.NewTheme(), a.cfg.UI.Markdown)
	ctrl, err := a.newController(cli.NewPrintView(os.Stdout, renderer, width))
	if err != nil {
		return err
	}

	input := cli.NewChatCLI(inputHistoryPath())
	defer input.Close()

	session := &cli.ChatSession{
		Controller: ctrl,
		Store:      a.store,
		Input:      input,
		Out:        os.Stdout,
		Endpoint:   a.client.BaseURL(),
		Width:      width,
	}
	return session.Run(ctx)
}

// runClear deletes the stored conversation, asking first when stdin is a
// terminal and --yes was not given.
func (a *app) runClear(ctx context.Context, args cli.Args) error {
	opts := cli.ClearOptions{Yes: args.Yes, JSON: args.JSON}
	if !args.Yes && cli.IsTTY() {
		input := cli.NewChatCLI("")
		defer input.Close()
		opts.Confirm = cli.ConfirmWith(input)
	}
	return cli.HandleClear(ctx, a.store, os.Stdout, opts)
}

// inputHistoryPath is where the REPL keeps its line history.
func inputHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}
