package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelFail
)

const statusLabelWidth = 18

func (l level) label() string {
	switch l {
	case levelOK:
		return "OK"
	case levelWarn:
		return "WARN"
	case levelFail:
		return "FAIL"
	default:
		return "INFO"
	}
}

func (l level) colors() text.Colors {
	switch l {
	case levelOK:
		return text.Colors{text.FgGreen}
	case levelWarn:
		return text.Colors{text.FgYellow}
	case levelFail:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgCyan}
	}
}

// checkLevel maps a readiness result. Failed checks warn; the daemon still runs.
func checkLevel(passed bool) level {
	if passed {
		return levelOK
	}
	return levelWarn
}

// statusLine renders "  Label:   [LEVEL] detail".
func statusLine(label string, lvl level, detail string, color bool) string {
	badge := "[" + lvl.label() + "]"
	if color {
		badge = lvl.colors().Sprint(badge)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)
	if detail = strings.TrimSpace(detail); detail != "" {
		line += " " + detail
	}
	return line
}

func sectionHeader(title string, color bool) string {
	title = strings.ToUpper(strings.TrimSpace(title))
	if color {
		return text.Colors{text.Bold, text.Underline}.Sprint(title)
	}
	return title + "\n" + strings.Repeat("-", len(title))
}
