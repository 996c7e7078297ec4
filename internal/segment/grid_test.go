// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGrid_PipeRows(t *testing.T) {
	g := ParseGrid("| Year | USDC | USDT |\n|------|------|------|\n| 2021 | 4.5 | 3.9 |\n| 2022 | 3.1 | 2.8 |")

	assert.Equal(t, []string{"Year", "USDC", "USDT"}, g.Headers)
	assert.Equal(t, [][]string{{"2021", "4.5", "3.9"}, {"2022", "3.1", "2.8"}}, g.Rows)
}

func TestParseGrid_SkipsSecondRowAlways(t *testing.T) {
	// Without a separator the first data row is still treated as one.
	g := ParseGrid("| a | b |\n| 1 | 2 |\n| 3 | 4 |")
	assert.Equal(t, []string{"a", "b"}, g.Headers)
	assert.Equal(t, [][]string{{"3", "4"}}, g.Rows)
}

func TestParseGrid_EmptyInteriorCellKeepsColumn(t *testing.T) {
	g := ParseGrid("| k | v | note |\n|---|---|---|\n| a |  | x |")
	assert.Equal(t, [][]string{{"a", "", "x"}}, g.Rows)
}

func TestParseGrid_RaggedRows(t *testing.T) {
	g := ParseGrid("| a | b | c |\n|---|---|---|\n| 1 |\n| 1 | 2 | 3 | 4 |")
	assert.Len(t, g.Headers, 3)
	assert.Equal(t, [][]string{{"1"}, {"1", "2", "3", "4"}}, g.Rows)
}

func TestParseGrid_CaptionExcluded(t *testing.T) {
	g := ParseGrid("Stablecoin yields:\n| Coin | APY |\n|---|---|\n| USDC | 4.5 |")
	assert.Equal(t, []string{"Coin", "APY"}, g.Headers)
	assert.Equal(t, [][]string{{"USDC", "4.5"}}, g.Rows)
}

func TestParseGrid_HeaderOnly(t *testing.T) {
	g := ParseGrid("| a | b |")
	assert.Equal(t, []string{"a", "b"}, g.Headers)
	assert.Empty(t, g.Rows)
}

func TestParseGrid_YearYield(t *testing.T) {
	g := ParseGrid("Year | USDC\n2021 | 4.5\n2022 | 3.25")
	assert.Equal(t, []string{"Year", "Yield (%)"}, g.Headers)
	assert.Equal(t, [][]string{{"2021", "4.5"}, {"2022", "3.25"}}, g.Rows)
}

func TestParseGrid_PropertyValue(t *testing.T) {
	g := ParseGrid("Table: Network stats\nChain: Ethereum\nURL: https://example.com\nno colon here")
	assert.Equal(t, []string{"Property", "Value"}, g.Headers)
	assert.Equal(t, [][]string{
		{"Table", "Network stats"},
		{"Chain", "Ethereum"},
		{"URL", "https://example.com"},
		{"no colon here", ""},
	}, g.Rows)
}

func TestParseGrid_Total(t *testing.T) {
	for _, in := range []string{"", "|", "||", "| |\n| |", "\n\n", ":", "Year"} {
		assert.NotPanics(t, func() { ParseGrid(in) }, "input %q", in)
	}
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Intro", Caption("Intro\n| a |\n|---|"))
	assert.Equal(t, "", Caption("| a |\n|---|"))
	assert.Equal(t, "", Caption("Table: x"))
}
