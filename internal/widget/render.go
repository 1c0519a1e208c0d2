package widget

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Family is the widget size.
type Family int

const (
	// Small is the phone's home-screen card.
	Small Family = iota

	// Inline is the companion's one-line complication.
	Inline
)

// ParseFamily maps "small" and "inline" to a Family. Anything else is
// Small.
func ParseFamily(s string) Family {
	if strings.EqualFold(s, "inline") {
		return Inline
	}
	return Small
}

const cardWidth = 24

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// Render draws e for the given family.
func Render(e Entry, family Family) string {
	if family == Inline {
		return renderInline(e)
	}
	return renderSmall(e)
}

func renderSmall(e Entry) string {
	lines := []string{headerStyle.Render("Today")}
	if e.Dish == nil {
		lines = append(lines, emptyStyle.Render("No dish planned"))
	} else {
		name := nameStyle.Width(cardWidth).Render(e.Dish.Name)
		emoji := lipgloss.PlaceHorizontal(cardWidth, lipgloss.Right, e.Dish.Emoji)
		lines = append(lines, name, "", emoji)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderInline shows the first emoji and the name, truncated to fit a
// complication.
func renderInline(e Entry) string {
	if e.Dish == nil {
		return "🍽️ No dish"
	}
	emoji := "🍽️"
	if fields := strings.Fields(e.Dish.Emoji); len(fields) > 0 {
		emoji = fields[0]
	}
	return emoji + " " + runewidth.Truncate(e.Dish.Name, cardWidth, "…")
}
