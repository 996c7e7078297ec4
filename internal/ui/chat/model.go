// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	core "github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/config"
	"github.com/jeranaias/tariel/internal/render"
	"github.com/jeranaias/tariel/internal/session"
	"github.com/jeranaias/tariel/internal/storage"
	"github.com/jeranaias/tariel/internal/ui/components"
	"github.com/jeranaias/tariel/internal/ui/styles"
)

const (
	// sidebarWidth is the session list column, shown on wide terminals.
	sidebarWidth    = 28
	minSidebarWidth = 90

	// chromeHeight is header, status bar, input and help.
	chromeHeight = 4

	inputCharLimit = 4000
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the collaborators of the chat view.
type Deps struct {
	Store        *session.Store
	Orchestrator *core.Orchestrator
	Retry        core.RetryPolicy
	System       core.SystemConfig

	// Transcripts is optional; nil disables archiving.
	Transcripts *storage.TranscriptStore

	Render config.RenderConfig

	// Logger defaults to the global logger.
	Logger *zerolog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the bubbletea model for the chat view.
type Model struct {
	store       *session.Store
	orch        *core.Orchestrator
	retry       core.RetryPolicy
	system      core.SystemConfig
	transcripts *storage.TranscriptStore
	logger      zerolog.Logger

	// Conversation
	conv      core.Conversation
	sending   bool
	pending   string // user text of the request in flight
	cancelMgr *cancelManager
	calls     int
	sessions  []session.Usage

	// Status
	lastErr string
	notice  string

	// Reveal
	reveal       *render.Model
	revealID     string // ID of the message being revealed
	formatter    *render.Formatter
	settler      *render.ScrollSettler
	autoScroll   bool
	scrollMargin int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	theme    *styles.Theme
	header   *components.Header
	status   *components.StatusBar
	sidebar  *components.SessionList

	// Event sources
	ctx         context.Context
	stop        context.CancelFunc
	quotaCh     chan QuotaMsg
	unsubscribe func()
	events      <-chan session.SessionEvent

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the chat view in the store's current session and subscribes
// to quota changes and session events. Call Close when done.
func New(deps Deps) Model {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = inputCharLimit
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(styles.ThinkingSpinner.Spinner()),
		spinner.WithStyle(theme.Spinner),
	)

	ctx, stop := context.WithCancel(context.Background())

	quotaCh := make(chan QuotaMsg, 16)
	unsubscribe := deps.Store.Notifier().Subscribe(func(id string, count int) {
		select {
		case quotaCh <- QuotaMsg{SessionID: id, Count: count}:
		default:
			// The view also re-reads counts when replies arrive.
		}
	})

	var events <-chan session.SessionEvent
	if bus := deps.Store.Events(); bus != nil {
		ch, err := bus.Subscribe(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("session events unavailable")
		} else {
			events = ch
		}
	}

	id := deps.Store.Current()

	m := Model{
		store:        deps.Store,
		orch:         deps.Orchestrator,
		retry:        deps.Retry,
		system:       deps.System,
		transcripts:  deps.Transcripts,
		logger:       logger,
		conv:         core.NewConversation(id, deps.System),
		cancelMgr:    newCancelManager(),
		calls:        deps.Store.CurrentCalls(id),
		reveal:       render.NewModel(deps.Render.Speed, deps.Render.Tick()),
		formatter:    render.NewFormatter(deps.Render.WordWrap,
			render.WithDarkBackground(theme.IsDark),
			render.WithFormatterLogger(logger),
		),
		settler:      render.NewScrollSettler(),
		autoScroll:   deps.Render.AutoScroll,
		scrollMargin: deps.Render.ScrollMargin,
		input:        input,
		spinner:      sp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
		theme:        theme,
		header:       components.NewHeader(theme),
		status:       components.NewStatusBar(theme),
		sidebar:      components.NewSessionList(theme),
		ctx:          ctx,
		stop:         stop,
		quotaCh:      quotaCh,
		unsubscribe:  unsubscribe,
		events:       events,
	}
	m.sessions = m.knownSessions()
	if id == "" {
		m.lastErr = "Session storage is unavailable."
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForQuota(m.ctx, m.quotaCh),
		waitForSessionEvent(m.events),
	)
}

// Close cancels the request in flight and detaches from the session store.
func (m Model) Close() {
	m.cancelMgr.cancel()
	m.unsubscribe()
	m.stop()
}

// Conversation returns the current conversation.
func (m Model) Conversation() core.Conversation { return m.conv }

// Sending reports whether a request is in flight.
func (m Model) Sending() bool { return m.sending }

// Calls returns the call count shown for the current session.
func (m Model) Calls() int { return m.calls }

// Err returns the error shown in the status bar, if any.
func (m Model) Err() string { return m.lastErr }

// AutoScroll reports whether auto-scroll is on.
func (m Model) AutoScroll() bool { return m.autoScroll }

// Sessions returns the session list shown in the sidebar.
func (m Model) Sessions() []session.Usage { return m.sessions }

// Reveal exposes the reveal component.
func (m Model) Reveal() *render.Model { return m.reveal }

// knownSessions lists sessions with quota records plus the current one.
func (m Model) knownSessions() []session.Usage {
	list := m.store.Known()
	cur := m.conv.SessionID
	if cur == "" {
		return list
	}
	for _, u := range list {
		if u.SessionID == cur {
			return list
		}
	}
	return append(list, session.Usage{
		SessionID: cur,
		Calls:     m.store.CurrentCalls(cur),
		Remaining: m.store.RemainingCalls(cur),
	})
}

// switchTo abandons the current conversation, including any request in
// flight and any reveal, and starts an empty one in id.
func (m *Model) switchTo(id string) {
	if m.cancelMgr.pending() {
		m.logger.Debug().Str("session_id", m.conv.SessionID).Msg("abandoning request in flight")
	}
	m.cancelMgr.cancel()
	m.reveal.Stop()
	m.settler.Cancel()
	m.formatter.Reset()

	m.conv = core.NewConversation(id, m.system)
	m.sending = false
	m.pending = ""
	m.revealID = ""
	m.lastErr = ""
	m.calls = m.store.CurrentCalls(id)
	m.sessions = m.knownSessions()

	m.logger.Info().Str("session_id", id).Msg("switched session")
	m.refresh()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	vpWidth := width
	if width >= minSidebarWidth {
		vpWidth -= sidebarWidth
	}
	vpHeight := max(height-chromeHeight, 1)

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}

	m.input.Width = max(width-4, 10)
	m.help.Width = width
	m.formatter.SetWidth(max(vpWidth-2, 20))
	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if m.autoScroll && (m.sending || m.reveal.Running()) {
		m.viewport.GotoBottom()
	}
}
