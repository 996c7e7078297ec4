// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package segment

import (
	"regexp"
	"strings"
)

// Kind is the type of a segment.
type Kind int

const (
	Text Kind = iota
	Table
)

func (k Kind) String() string {
	if k == Table {
		return "table"
	}
	return "text"
}

// Segment is a contiguous run of a reply.
type Segment struct {
	Kind    Kind
	Content string
}

var (
	// A line starting with a pipe followed, on the same or a later line, by a
	// line ending with a pipe.
	pipeTable = regexp.MustCompile(`(?m)^\|[\s\S]*\|$`)

	// Lead-in phrases, anchored at the very start of the input.
	leadIn = regexp.MustCompile(`(?i)^(Table|Here is a table|Showing table|Comparison table):`)

	// One pipe-delimited row of simple cells.
	dataRow = regexp.MustCompile(`^\|\s*[\w\s.%-]+(?:\s*\|\s*[\w\s.%-]+)*\s*\|$`)
)

// IsTableLike reports whether s looks like (the start of) a table: a pipe
// table, a lead-in phrase, or at least two data rows.
func IsTableLike(s string) bool {
	if pipeTable.MatchString(s) || leadIn.MatchString(s) {
		return true
	}
	rows := 0
	for _, line := range strings.Split(s, "\n") {
		if dataRow.MatchString(line) {
			rows++
			if rows >= 2 {
				return true
			}
		}
	}
	return false
}

// Split divides text into ordered segments. Text segments are trimmed and keep
// their interior blank lines; table segments are trimmed.
func Split(text string) []Segment {
	var (
		segments []Segment
		pending  strings.Builder
	)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	flush := func() {
		if s := strings.TrimSpace(pending.String()); s != "" {
			segments = append(segments, Segment{Kind: Text, Content: s})
		}
		pending.Reset()
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}

		if !IsTableLike(line + "\n" + next) {
			pending.WriteString(line)
			pending.WriteByte('\n')
			continue
		}

		flush()

		var table strings.Builder
		table.WriteString(line)
		table.WriteByte('\n')
		j := i + 1
		for j < len(lines) && continuesTable(lines[j]) {
			table.WriteString(lines[j])
			table.WriteByte('\n')
			j++
		}
		i = j - 1

		if s := strings.TrimSpace(table.String()); s != "" {
			segments = append(segments, Segment{Kind: Table, Content: s})
		}
	}
	flush()

	return segments
}

func continuesTable(line string) bool {
	return IsTableLike(line) || strings.HasPrefix(strings.TrimSpace(line), "|")
}
