// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package segment

import (
	"regexp"
	"strings"
)

// Grid is a parsed table. Rows may differ in width from Headers.
type Grid struct {
	Headers []string
	Rows    [][]string
}

var yearYield = regexp.MustCompile(`(\d{4})\s*\|\s*([\d.]+)`)

// ParseGrid parses a table segment. Three shapes are tried in order:
//
//  1. Pipe rows: the first is the header, the second (the separator) is
//     skipped, the rest are data.
//  2. Year/yield pairs "2021 | 4.5" when the content mentions Year, USDC or USDT.
//  3. One "Property: Value" row per non-blank line.
func ParseGrid(content string) Grid {
	lines := nonBlankLines(content)

	for _, line := range lines {
		if pipeTable.MatchString(line) {
			return parsePipeRows(lines)
		}
	}

	if strings.Contains(content, "Year") || strings.Contains(content, "USDC") || strings.Contains(content, "USDT") {
		if matches := yearYield.FindAllStringSubmatch(content, -1); len(matches) > 0 {
			g := Grid{Headers: []string{"Year", "Yield (%)"}, Rows: make([][]string, 0, len(matches))}
			for _, m := range matches {
				g.Rows = append(g.Rows, []string{m[1], m[2]})
			}
			return g
		}
	}

	g := Grid{Headers: []string{"Property", "Value"}, Rows: make([][]string, 0, len(lines))}
	for _, line := range lines {
		prop, value, _ := strings.Cut(line, ":")
		g.Rows = append(g.Rows, []string{strings.TrimSpace(prop), strings.TrimSpace(value)})
	}
	return g
}

// Caption returns the lines of a table segment that precede its first pipe
// row, joined by spaces. Segments without pipe rows have no caption.
func Caption(content string) string {
	var caption []string
	for _, line := range nonBlankLines(content) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") {
			return strings.Join(caption, " ")
		}
		caption = append(caption, trimmed)
	}
	return ""
}

func parsePipeRows(lines []string) Grid {
	var rows []string
	for _, line := range lines {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "|") {
			rows = append(rows, t)
		}
	}

	g := Grid{Rows: [][]string{}}
	if len(rows) == 0 {
		return g
	}
	g.Headers = splitRow(rows[0])
	if len(rows) > 2 {
		for _, row := range rows[2:] {
			g.Rows = append(g.Rows, splitRow(row))
		}
	}
	return g
}

// splitRow splits a pipe row into trimmed cells. Only the empty cells created
// by a leading or trailing pipe are dropped, so empty interior cells keep
// their column.
func splitRow(row string) []string {
	cells := strings.Split(row, "|")
	if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func nonBlankLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
