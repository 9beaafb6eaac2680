// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdHistory
	CmdClear
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdClear:
		return "clear"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config: explicit config file
	DBPath     string // --db: overrides storage.path
	Mode       string // --mode: overrides api.default_mode
	Endpoint   string // --endpoint: overrides api.base_url
	JSON       bool   // --json: machine-readable output
	Yes        bool   // --yes: skip confirmation for clear

	// TUI was requested explicitly with "relaychat tui".
	ExplicitTUI bool

	// Command-specific
	Subcommand string   // config show|get|set|path|keys
	Output     string   // history --output FILE
	Format     string   // history --format markdown|html|json
	Positional []string // remaining arguments after the subcommand
}

// boolFlags never take a value.
var boolFlags = []string{"json", "yes", "y", "help", "h", "version", "v"}

const usageText = `relaychat - terminal chat client

Usage:
  relaychat                      Start the terminal UI (REPL when not a TTY)
  relaychat tui                  Start the terminal UI
  relaychat chat                 Line-mode chat
  relaychat history [--json] [--format markdown|html|json] [--output FILE]
                                 Print or export the stored conversation
  relaychat clear [--yes]        Delete the stored conversation
  relaychat config [show|get KEY|set KEY VALUE|path|keys]
                                 Inspect or change the configuration
  relaychat version              Show version
  relaychat help                 Show this help

Global flags:
  --config PATH                  Config file (default ~/.relaychat/config.toml)
  --db PATH                      Conversation database
  --mode stateful|stateless      Dispatch mode
  --endpoint URL                 Remote base URL
  --json                         JSON output

Environment:
  RELAYCHAT_API_ENDPOINT, API_ENDPOINT, RELAYCHAT_MODE, RELAYCHAT_DB,
  RELAYCHAT_LOG_LEVEL

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "relaychat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		DBPath:     p.Flag("db"),
		Mode:       p.Flag("mode"),
		Endpoint:   p.Flag("endpoint"),
		JSON:       p.BoolFlag("json"),
		Yes:        p.BoolFlag("yes") || p.BoolFlag("y"),
		Output:     p.FlagOrDefault("output", p.Flag("o")),
		Format:     p.Flag("format"),
	}

	for _, name := range []string{"config", "db", "mode", "endpoint", "output", "o", "format"} {
		if p.BoolFlag(name) {
			return CmdHelp, args, NewUsageError("--" + name + " requires a value")
		}
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") || p.BoolFlag("v") {
		return CmdVersion, args, nil
	}

	name := strings.ToLower(p.Positional(0))
	args.Subcommand = p.Positional(1)
	args.Positional = p.PositionalFrom(2)

	switch name {
	case "":
		return CmdTUI, args, nil
	case "tui":
		args.ExplicitTUI = true
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "history", "export":
		return CmdHistory, args, nil
	case "clear":
		return CmdClear, args, nil
	case "config":
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		return CmdConfig, args, nil
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, NewUsageError(fmt.Sprintf("unknown command %q", name))
	}
}
