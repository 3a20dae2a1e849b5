// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	rule = strings.Repeat("=", 60)
)

// banner prints title between two rules.
func banner(w io.Writer, title string) {
	styledBanner(w, titleStyle, title)
}

func errorBanner(w io.Writer, title string) {
	styledBanner(w, errorStyle, title)
}

func styledBanner(w io.Writer, style lipgloss.Style, title string) {
	fmt.Fprintln(w, ruleStyle.Render(rule))
	fmt.Fprintln(w, style.Render(title))
	fmt.Fprintln(w, ruleStyle.Render(rule))
}
