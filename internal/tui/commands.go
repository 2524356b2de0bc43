package tui

import (
	"context"

	"archfeed/internal/card"
	"archfeed/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

func fetchMore(f Feed) tea.Cmd {
	return func() tea.Msg {
		added, err := f.FetchMore(context.Background())
		return fetchedMsg{added: added, err: err}
	}
}

// awaitCard blocks until the card's background check ends.
func awaitCard(c *card.Card) tea.Cmd {
	pageID := c.Article().PageID
	done := c.Done()
	return func() tea.Msg {
		<-done
		return validatedMsg{pageID: pageID}
	}
}

func shareCard(c *card.Card, s card.Sharer) tea.Cmd {
	return func() tea.Msg {
		return sharedMsg{err: c.Share(context.Background(), s)}
	}
}

func readArticle(r Reader, a model.Article) tea.Cmd {
	return func() tea.Msg {
		reading, err := r.Read(context.Background(), a)
		return readMsg{reading: reading, err: err}
	}
}

func resetFeed(f Feed) tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: f.Reset(context.Background())}
	}
}
