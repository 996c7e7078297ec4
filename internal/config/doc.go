// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for tariel.
//
// Supports both TOML and JSON configuration formats, with built-in defaults,
// .env loading, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointConfig: Remote assistant URL, timeout and tool flag
//   - QuotaConfig: Per-session call ceiling
//   - RenderConfig: Progressive reveal and scroll behavior
//   - SystemConfig: Assistant identity, capabilities and constraints
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TARIEL_*), including those set by ./.env
//   - ~/.tariel/config.toml
//   - ~/.tariel/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.Endpoint.Timeout()
package config
