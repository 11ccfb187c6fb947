// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package summary renders the outcome of a run as a console table.
package summary

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/vk/kwgrid/internal/result"
)

// Formatter formats runs as tables.
type Formatter struct {
	// ShowTests adds a row per test below its suite.
	ShowTests bool
	// Color selects a colored style matching the overall status.
	Color bool
	// MessageWidth caps the width of the message column.
	MessageWidth int
}

// Format renders run.
func (f *Formatter) Format(run *result.Run) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (run %s)", run.Suite.Name, run.ID))
	t.AppendHeader(table.Row{"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Message"})

	width := f.MessageWidth
	if width <= 0 {
		width = 80
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Message", WidthMax: width, WidthMaxEnforcer: text.WrapSoft},
	})

	f.addSuite(t, run.Suite, 0)

	stats := run.Stats()
	status := overall(stats)
	if f.Color {
		switch status {
		case result.StatusFail:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		case result.StatusSkip:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		default:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(run.End.Sub(run.Start)),
		stats.Total,
		stats.Passed,
		stats.Failed,
		stats.Skipped,
		string(status),
		"",
	})

	t.Render()
	return buf.String()
}

func (f *Formatter) addSuite(t table.Writer, suite *result.Result, depth int) {
	stats := result.StatsOf(suite)
	t.AppendRow(table.Row{
		"Suite",
		indent(depth) + suite.Name,
		formatDuration(suite.Elapsed()),
		stats.Total,
		stats.Passed,
		stats.Failed,
		stats.Skipped,
		string(suite.Status),
		firstLine(suite.Message),
	})
	for _, c := range suite.Children {
		switch c.Kind {
		case result.KindTest:
			if f.ShowTests {
				t.AppendRow(table.Row{
					"Test",
					indent(depth+1) + c.Name,
					formatDuration(c.Elapsed()),
					"-",
					"",
					"",
					"",
					string(c.Status),
					firstLine(c.Message),
				})
			}
		case result.KindSuite:
			f.addSuite(t, c, depth+1)
		}
	}
}

// overall is FAIL when anything failed, SKIP when everything was skipped.
func overall(s result.Stats) result.Status {
	switch {
	case s.Failed > 0:
		return result.StatusFail
	case s.Total > 0 && s.Skipped == s.Total:
		return result.StatusSkip
	}
	return result.StatusPass
}

func indent(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("│   ", depth-1) + "├── "
}

func firstLine(msg string) string {
	line, _, more := strings.Cut(msg, "\n")
	if more {
		return line + " ..."
	}
	return line
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Millisecond).String()
}
