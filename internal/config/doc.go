// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for relaychat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - APIConfig: Remote endpoint base URL, default mode, system prompt
//   - StorageConfig: Conversation database location
//   - LogConfig: Log level and file
//   - UIConfig: Error text, markdown rendering, re-entrancy policy
//   - Watcher: fsnotify-based reload of a config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RELAYCHAT_*, API_ENDPOINT)
//   - ~/.relaychat/config.toml
//   - ~/.relaychat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Reload on change:
//
//	w, err := config.Watch(path, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        client.SetBaseURL(cfg.API.BaseURL)
//	    }
//	})
//	defer w.Close()
package config
