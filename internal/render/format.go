// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/tariel/internal/segment"
)

const (
	// DefaultWidth is the wrap width when none is configured.
	DefaultWidth = 100

	// maxCellWidth bounds a single table cell.
	maxCellWidth = 40

	// maxCached bounds the finalized segment cache.
	maxCached = 256
)

var (
	tableBorderColor = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	tableHeaderColor = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	captionColor     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
)

// Formatter renders reply text segment by segment.
//
// Output for every segment except the last is cached by content, so once a
// segment has been followed by another its rendering never changes while
// the reply keeps growing.
type Formatter struct {
	width  int
	dark   bool
	plain  bool
	prose  *glamour.TermRenderer
	cache  map[string]string
	logger zerolog.Logger
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithDarkBackground overrides terminal background detection.
func WithDarkBackground(dark bool) FormatterOption {
	return func(f *Formatter) { f.dark = dark }
}

// WithPlainText disables markdown rendering of prose segments.
func WithPlainText() FormatterOption {
	return func(f *Formatter) { f.plain = true }
}

// WithFormatterLogger sets the logger.
func WithFormatterLogger(logger zerolog.Logger) FormatterOption {
	return func(f *Formatter) { f.logger = logger }
}

// NewFormatter creates a formatter wrapping prose at width columns.
func NewFormatter(width int, opts ...FormatterOption) *Formatter {
	if width <= 0 {
		width = DefaultWidth
	}
	f := &Formatter{
		width:  width,
		dark:   termenv.HasDarkBackground(),
		cache:  make(map[string]string),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetWidth changes the wrap width and drops cached output.
func (f *Formatter) SetWidth(width int) {
	if width <= 0 || width == f.width {
		return
	}
	f.width = width
	f.prose = nil
	f.Reset()
}

// Width returns the wrap width.
func (f *Formatter) Width() int { return f.width }

// Dark reports whether prose uses the dark markdown style.
func (f *Formatter) Dark() bool { return f.dark }

// Reset drops cached segment output.
func (f *Formatter) Reset() {
	f.cache = make(map[string]string)
}

// Render splits text into segments and renders each. When final is false
// the last segment is treated as still growing and is not cached.
func (f *Formatter) Render(text string, final bool) string {
	segs := segment.Split(text)
	parts := make([]string, 0, len(segs))
	for i, seg := range segs {
		growing := !final && i == len(segs)-1
		parts = append(parts, f.renderCached(seg, growing))
	}
	return strings.Join(parts, "\n\n")
}

func (f *Formatter) renderCached(seg segment.Segment, growing bool) string {
	key := seg.Kind.String() + "\x00" + seg.Content
	if out, ok := f.cache[key]; ok {
		return out
	}
	out := f.RenderSegment(seg)
	if !growing {
		if len(f.cache) >= maxCached {
			f.Reset()
		}
		f.cache[key] = out
	}
	return out
}

// RenderSegment renders one segment without caching.
func (f *Formatter) RenderSegment(seg segment.Segment) string {
	if seg.Kind == segment.Table {
		return f.renderTable(seg.Content)
	}
	return f.renderProse(seg.Content)
}

func (f *Formatter) renderProse(s string) string {
	if f.plain {
		return s
	}
	if f.prose == nil {
		style := "light"
		if f.dark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(f.width),
		)
		if err != nil {
			f.logger.Warn().Err(err).Msg("markdown renderer unavailable")
			f.plain = true
			return s
		}
		f.prose = r
	}
	out, err := f.prose.Render(s)
	if err != nil {
		f.logger.Debug().Err(err).Msg("markdown render failed, using raw text")
		return s
	}
	return strings.Trim(out, "\n")
}

func (f *Formatter) renderTable(content string) string {
	grid := segment.ParseGrid(content)
	if len(grid.Headers) == 0 && len(grid.Rows) == 0 {
		return content
	}

	cols := len(grid.Headers)
	for _, row := range grid.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	headers := fitRow(grid.Headers, cols)
	rows := make([][]string, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		rows = append(rows, fitRow(row, cols))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tableBorderColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(tableHeaderColor)
			}
			return s
		}).
		Headers(headers...).
		Rows(rows...)

	out := t.Render()
	if caption := segment.Caption(content); caption != "" {
		out = lipgloss.NewStyle().Italic(true).Foreground(captionColor).Render(caption) + "\n" + out
	}
	return out
}

// fitRow pads row to cols cells and truncates long cells by display width.
func fitRow(row []string, cols int) []string {
	out := make([]string, cols)
	for i := range out {
		if i < len(row) {
			out[i] = runewidth.Truncate(row[i], maxCellWidth, "…")
		}
	}
	return out
}
