package tui

import (
	"fmt"
	"strings"

	"archfeed/internal/card"
)

const help = "j/space next | k previous | s share | o read more | r start over | q quit"

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🏛  Architecture on Wikipedia"))
	b.WriteString("\n")

	switch {
	case m.err != nil && m.current == nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("❌ %v", m.err)))
		b.WriteString("\n")
	case m.current == nil && m.exhausted:
		b.WriteString(InfoStyle.Render("No articles found."))
		b.WriteString("\n")
	case m.current == nil:
		b.WriteString(StatusStyle.Render("⏳ Loading articles..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.cardView())
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(HighlightStyle.Render(m.status))
		b.WriteString("\n")
	} else if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Could not load more: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(InfoStyle.Render(help))
	return b.String()
}

func (m Model) cardView() string {
	var b strings.Builder

	counter := fmt.Sprintf("%d / %d", m.index+1, len(m.articles))
	if m.fetching {
		counter += "  loading more..."
	}
	b.WriteString(InfoStyle.Render(counter))
	b.WriteString("\n")

	rendered := m.current.Render(m.width)
	if rendered == "" {
		// Rejected by the live category check.
		b.WriteString(InfoStyle.Render(card.NotCategorizedMessage + " Skipping."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(rendered)
	b.WriteString("\n")

	if m.reading != nil {
		text := m.reading.Excerpt
		if text == "" {
			text = m.reading.Title
		}
		b.WriteString(ReadingStyle.Width(m.width - 2).Render(text))
		b.WriteString("\n")
	}
	return b.String()
}
