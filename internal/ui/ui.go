// Package ui provides styled terminal output for the dinner CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/whatsfordinner/dinner/internal/dish"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Width(10)
	headStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// Setup picks the color profile from the environment. NO_COLOR and a
// non-terminal stdout turn colors off.
func Setup(noColor bool) {
	if noColor || termenv.EnvNoColor() || !IsTerminal(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Success prints a success message.
func Success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✔ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message.
func Warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, warningStyle.Render("Warning: "+fmt.Sprintf(format, args...)))
}

// Error prints an error message.
func Error(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+fmt.Sprintf(format, args...)))
}

// Title renders s as a heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Subtle renders s dimmed.
func Subtle(s string) string {
	return subtleStyle.Render(s)
}

// DishLine formats one row of the active list. The head row is
// highlighted.
func DishLine(index int, d dish.Dish, today time.Time, days bool) string {
	label := labelStyle.Render(dish.DayLabel(index, today, days))
	name := d.Emoji + " " + d.Name
	if index == 0 {
		name = headStyle.Render(name)
	}
	return label + name + " " + subtleStyle.Render("("+shortID(d.ID)+")")
}

// DishList formats the whole active list.
func DishList(list []dish.Dish, today time.Time, days bool) string {
	if len(list) == 0 {
		return subtleStyle.Render("No dishes planned. Add one with: dinner add <name>")
	}
	lines := make([]string, len(list))
	for i, d := range list {
		lines[i] = DishLine(i, d, today, days)
	}
	return strings.Join(lines, "\n")
}

// HistoryLine formats one archived dish with its relative completion time.
func HistoryLine(d dish.Dish, now time.Time) string {
	when := "unknown"
	if d.CompletedDate != nil {
		when = humanize.RelTime(*d.CompletedDate, now, "ago", "from now")
	}
	return fmt.Sprintf("%s %s %s", d.Emoji, d.Name, subtleStyle.Render("("+when+", "+shortID(d.ID)+")"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
