// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/config"
	"github.com/jeranaias/tariel/internal/logging"
	"github.com/jeranaias/tariel/internal/session"
	"github.com/jeranaias/tariel/internal/storage"
)

// runMode selects where logs go.
type runMode int

const (
	// modeCLI logs warnings to stderr (everything with --verbose).
	modeCLI runMode = iota

	// modeTUI logs to a file so the screen stays clean.
	modeTUI
)

// App is the wired application shared by all commands.
type App struct {
	Config       *config.Config
	Store        *session.Store
	Orchestrator *chat.Orchestrator
	Retry        chat.RetryPolicy
	System       chat.SystemConfig

	// Transcripts is nil when the history directory cannot be created.
	Transcripts *storage.TranscriptStore

	Logger zerolog.Logger

	kv        storage.KV
	events    *session.Events
	logCloser io.Closer
}

// open sets up logging for mode and builds the App.
func (o *rootOptions) open(mode runMode) (*App, error) {
	logger, closer, err := o.setupLogging(mode)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(o.cfg, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

func (o *rootOptions) setupLogging(mode runMode) (zerolog.Logger, io.Closer, error) {
	level := o.cfg.Log.Level
	if o.verbose {
		level = "debug"
	}

	if mode == modeTUI {
		path, err := o.cfg.LogPath()
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		return logging.Setup(logging.Options{Level: level, File: path})
	}

	if !o.verbose && logging.ParseLevel(level) < zerolog.WarnLevel {
		level = "warn"
	}
	return logging.Setup(logging.Options{Level: level, File: o.cfg.Log.File, Console: true})
}

// NewApp wires the session medium, store, event bus, transport and
// orchestrator described by cfg.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, err
	}
	kv, err := storage.Open(cfg.Session.Backend, path)
	if err != nil {
		return nil, errors.Wrap(err, "open session medium")
	}

	events := session.NewEvents(logger)
	store := session.NewStore(kv,
		session.WithCeiling(cfg.Quota.MaxCalls),
		session.WithLogger(logger),
		session.WithEvents(events),
	)

	transport := chat.NewHTTPTransport(cfg.Endpoint.URL).
		WithTimeout(cfg.Endpoint.Timeout()).
		WithLogger(logger)
	orch := chat.NewOrchestrator(transport, store,
		chat.WithUseTools(cfg.Endpoint.UseTools),
		chat.WithLogger(logger),
	)

	app := &App{
		Config:       cfg,
		Store:        store,
		Orchestrator: orch,
		Retry: chat.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay(),
			MaxDelay:     cfg.Retry.MaxDelay(),
		},
		System: chat.SystemConfig{
			Identity:     cfg.System.Identity,
			Capabilities: cfg.System.Capabilities,
			Constraints:  cfg.System.Constraints,
		},
		Logger: logger,
		kv:     kv,
		events: events,
	}

	if dir, err := config.HistoryDir(); err != nil {
		logger.Warn().Err(err).Msg("transcript archive disabled")
	} else if ts, err := storage.NewTranscriptStore(dir); err != nil {
		logger.Warn().Err(err).Msg("transcript archive disabled")
	} else {
		app.Transcripts = ts
	}

	logger.Debug().
		Str("endpoint", cfg.Endpoint.URL).
		Str("backend", cfg.Session.Backend).
		Int("max_calls", cfg.Quota.MaxCalls).
		Msg("application wired")
	return app, nil
}

// archive records a successful exchange when the archive is available.
func (a *App) archive(res chat.Result) {
	if a.Transcripts == nil {
		return
	}
	if err := chat.Archive(a.Transcripts, res); err != nil {
		a.Logger.Warn().Err(err).Str("session_id", res.SessionID).Msg("could not archive exchange")
	}
}

// Close releases the event bus, the session medium and the log file.
func (a *App) Close() error {
	var first error
	if err := a.events.Close(); err != nil {
		first = errors.Wrap(err, "close session events")
	}
	if err := a.kv.Close(); err != nil && first == nil {
		first = errors.Wrap(err, "close session medium")
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return first
}
