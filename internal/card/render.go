package card

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA"))

	bodyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#D0D0D0"))

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262"))

	linkStyle = lipgloss.NewStyle().
		Underline(true).
		Foreground(lipgloss.Color("#7D56F4"))
)

const maxBodyLines = 6

// Render draws the card at the given width. A card that failed the
// category check renders as the empty string.
func (c *Card) Render(width int) string {
	snap := c.Snapshot()
	if snap.State == StateInvalid {
		return ""
	}
	if width < 20 {
		width = 20
	}
	inner := width - frameStyle.GetHorizontalFrameSize()

	var b strings.Builder
	b.WriteString(titleStyle.Width(inner).Render(snap.Article.Title))
	b.WriteString("\n")

	if th := snap.Article.Thumbnail; th != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("[image %dx%d]", th.Width, th.Height)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if snap.State == StatePending {
		b.WriteString(mutedStyle.Render(strings.Repeat("░", inner*3/4)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(strings.Repeat("░", inner)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(strings.Repeat("░", inner*5/6)))
	} else {
		b.WriteString(clampLines(bodyStyle.Width(inner).Render(snap.Content), maxBodyLines))
	}
	b.WriteString("\n\n")

	b.WriteString(linkStyle.Render(snap.URL))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Read more →"))

	return frameStyle.Width(width).Render(b.String())
}

func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	lines = lines[:n]
	lines[n-1] = strings.TrimRight(lines[n-1], " ") + "…"
	return strings.Join(lines, "\n")
}
