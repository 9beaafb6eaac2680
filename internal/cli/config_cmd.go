// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/relaychat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig runs "relaychat config <show|get|set|path|keys>".
//
// cfg is the effective configuration (file, env and flags applied) and is
// what show and get report. set edits the file at path only, so overrides
// from the environment are never written back.
func HandleConfig(w io.Writer, args Args, cfg *config.Config, path string) error {
	switch strings.ToLower(args.Subcommand) {
	case "show", "":
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(w)
		}
		return toml.NewEncoder(w).Encode(cfg)

	case "get":
		if len(args.Positional) != 1 {
			return NewUsageError("usage: relaychat config get KEY")
		}
		key := args.Positional[0]
		value, err := cfg.Get(key)
		if err != nil {
			return NewCommandError("config get", key, err)
		}
		if args.JSON {
			return NewJSONResponse("config get", ConfigValueData{Key: key, Value: value}).Write(w)
		}
		fmt.Fprintln(w, value)
		return nil

	case "set":
		if len(args.Positional) != 2 {
			return NewUsageError("usage: relaychat config set KEY VALUE")
		}
		key, value := args.Positional[0], args.Positional[1]
		saved, err := setConfigValue(path, key, value)
		if err != nil {
			return NewCommandError("config set", key, err)
		}
		if args.JSON {
			v, _ := saved.Get(key)
			return NewJSONResponse("config set", ConfigValueData{Key: key, Value: v}).Write(w)
		}
		fmt.Fprintf(w, "%s %s = %s\n", CommandStyle.Render("Saved"), key, value)
		return nil

	case "path":
		_, statErr := os.Stat(path)
		if args.JSON {
			return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: statErr == nil}).Write(w)
		}
		fmt.Fprintln(w, path)
		return nil

	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return NewJSONResponse("config keys", keys).Write(w)
		}
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
		return nil

	default:
		return NewUsageError(fmt.Sprintf("unknown config subcommand %q (show, get, set, path, keys)", args.Subcommand))
	}
}

// setConfigValue loads the file at path (or the defaults when it does not
// exist), applies one change, validates and saves it.
func setConfigValue(path, key, value string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".json") {
		return cfg, config.SaveJSON(cfg, path)
	}
	return cfg, config.SaveTOML(cfg, path)
}
