// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DETECTION
// =============================================================================

func TestIsTableLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"| a | b |", true},
		{"| a | b", false},
		{"|", false},
		{"plain prose", false},
		{"Table: yields by year", true},
		{"here is a table: below", true},
		{"Comparison table: USDC vs USDT", true},
		{"See the Table: below", false},
		{"intro\n| a | b |", true},
		{"| 2021 | 4.5% |\n| 2022 | 3.1% |", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTableLike(tt.in); got != tt.want {
			t.Errorf("IsTableLike(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// SPLIT
// =============================================================================

func TestSplit_ProseTableProse(t *testing.T) {
	text := "Here are the yields.\n\n| Year | USDC |\n|------|------|\n| 2021 | 4.5 |\n| 2022 | 3.1 |\n\nLet me know if you need more."

	segs := Split(text)
	require.Len(t, segs, 3)

	assert.Equal(t, Segment{Kind: Text, Content: "Here are the yields."}, segs[0])
	assert.Equal(t, Table, segs[1].Kind)
	assert.Equal(t, "| Year | USDC |\n|------|------|\n| 2021 | 4.5 |\n| 2022 | 3.1 |", segs[1].Content)
	assert.Equal(t, Segment{Kind: Text, Content: "Let me know if you need more."}, segs[2])
}

func TestSplit_LeadInLineJoinsTable(t *testing.T) {
	text := "Some context.\nComparison of stablecoins:\n| Coin | Yield |\n|---|---|\n| USDC | 4.5 |"

	segs := Split(text)
	require.Len(t, segs, 2)
	assert.Equal(t, "Some context.", segs[0].Content)
	assert.Equal(t, Table, segs[1].Kind)
	assert.True(t, strings.HasPrefix(segs[1].Content, "Comparison of stablecoins:\n|"))
	assert.Equal(t, "Comparison of stablecoins:", Caption(segs[1].Content))
}

func TestSplit_TextOnlyKeepsInteriorBlankLines(t *testing.T) {
	segs := Split("  First paragraph.\n\nSecond paragraph.  \n")
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Kind: Text, Content: "First paragraph.\n\nSecond paragraph."}, segs[0])
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("\n \n\t\n"))
}

func TestSplit_TableEndsAtBlankLine(t *testing.T) {
	segs := Split("| a | b |\n| 1 | 2 |\n\n| c | d |")
	require.Len(t, segs, 2)
	assert.Equal(t, Table, segs[0].Kind)
	assert.Equal(t, Table, segs[1].Kind)
	assert.Equal(t, "| c | d |", segs[1].Content)
}

func TestSplit_ExplicitLeadIn(t *testing.T) {
	segs := Split("Table: APY\nThat is all.")
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Kind: Table, Content: "Table: APY"}, segs[0])
	assert.Equal(t, Segment{Kind: Text, Content: "That is all."}, segs[1])
}

func TestSplit_CRLF(t *testing.T) {
	segs := Split("Intro\r\n\r\n| a | b |\r\n| 1 | 2 |\r\n")
	require.Len(t, segs, 2)
	assert.Equal(t, "Intro", segs[0].Content)
	assert.Equal(t, "| a | b |\n| 1 | 2 |", segs[1].Content)
}

// Joining the segments in order gives back the input up to whitespace.
func TestSplit_RoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		"Intro line\n| h1 | h2 |\n|----|----|\n| a | b |\ntrailing text\n\nmore",
		"Table: stats\n| x | y |\n| 1 | 2 |\n\nDone.",
		"| only | table |\n| --- | --- |",
		"a\n\n\nb\n| c |\n|\nd",
		"Year | USDC\n2021 | 4.5\n2022 | 3.0",
	}
	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }

	for _, in := range inputs {
		var parts []string
		for _, s := range Split(in) {
			assert.NotEmpty(t, s.Content)
			assert.Equal(t, strings.TrimSpace(s.Content), s.Content)
			parts = append(parts, s.Content)
		}
		assert.Equal(t, normalize(in), normalize(strings.Join(parts, "\n")), "input %q", in)
	}
}

// Prefixes of a growing reply never panic and never lose text.
func TestSplit_EveryPrefix(t *testing.T) {
	text := "Sure.\nHere is a table: rates\n| Year | Yield |\n|---|---|\n| 2021 | 4.5 |\nThanks!"
	runes := []rune(text)
	for i := 0; i <= len(runes); i++ {
		prefix := string(runes[:i])
		var parts []string
		for _, s := range Split(prefix) {
			parts = append(parts, s.Content)
		}
		assert.Equal(t,
			strings.Join(strings.Fields(prefix), " "),
			strings.Join(strings.Fields(strings.Join(parts, "\n")), " "))
	}
}
