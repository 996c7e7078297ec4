// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits assistant replies into prose and table segments and
// parses table segments into grids.
//
// Detection is line based with one line of lookahead, so a lead-in line that
// directly precedes a pipe row is grouped with the table and surfaces as its
// Caption. Split and ParseGrid are total: any input yields a result.
package segment
