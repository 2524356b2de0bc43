package tui

import (
	"errors"
	"fmt"

	"archfeed/internal/feed"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case fetchedMsg:
		return m.handleFetched(msg)
	case validatedMsg:
		return m.handleValidated(msg)
	case sharedMsg:
		return m.handleShared(msg)
	case readMsg:
		return m.handleRead(msg)
	case resetMsg:
		return m.handleReset(msg)
	case NoticeMsg:
		m.status = string(msg)
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.current != nil {
			m.current.Unmount()
		}
		return m, tea.Quit
	case "j", "down", " ", "space":
		if m.index+1 < len(m.articles) {
			return m.show(m.index + 1)
		}
		return m.maybeFetch()
	case "k", "up":
		if m.current != nil && m.index > 0 {
			return m.show(m.index - 1)
		}
	case "s":
		if m.current != nil {
			m.status = "Sharing..."
			return m, shareCard(m.current, m.sharer)
		}
	case "o":
		if m.current != nil && m.reader != nil {
			m.status = "Loading article..."
			return m, readArticle(m.reader, m.current.Article())
		}
	case "r":
		m.status = "Starting over..."
		return m, resetFeed(m.feed)
	}
	return m, nil
}

func (m Model) handleFetched(msg fetchedMsg) (tea.Model, tea.Cmd) {
	m.fetching = false
	switch {
	case errors.Is(msg.err, feed.ErrBusy):
		return m, nil
	case errors.Is(msg.err, feed.ErrExhausted):
		m.exhausted = true
		m.status = "You have seen every article."
		return m, nil
	case msg.err != nil:
		m.err = msg.err
		return m, nil
	}

	m.err = nil
	m.articles = m.feed.Articles()
	if len(m.articles) == 0 {
		m.fetching = true
		return m, fetchMore(m.feed)
	}
	if m.current == nil {
		return m.show(0)
	}
	if !m.current.Visible() && m.index+1 < len(m.articles) {
		return m.show(m.index + 1)
	}
	return m, nil
}

// handleValidated skips a card that failed the category check.
func (m Model) handleValidated(msg validatedMsg) (tea.Model, tea.Cmd) {
	if m.current == nil || m.current.Article().PageID != msg.pageID || m.current.Visible() {
		return m, nil
	}
	if m.index+1 < len(m.articles) {
		return m.show(m.index + 1)
	}
	return m.maybeFetch()
}

func (m Model) handleShared(msg sharedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("Share failed: %v", msg.err)
		return m, nil
	}
	// A notice from the clipboard fallback takes precedence.
	if m.status == "Sharing..." {
		m.status = "Shared."
	}
	return m, nil
}

func (m Model) handleRead(msg readMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("Could not load article: %v", msg.err)
		return m, nil
	}
	if m.current == nil || msg.reading.PageID != m.current.Article().PageID {
		return m, nil
	}
	m.reading = msg.reading
	m.status = ""
	return m, nil
}

func (m Model) handleReset(msg resetMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("Reset failed", zap.Error(msg.err))
		m.status = fmt.Sprintf("Reset failed: %v", msg.err)
		return m, nil
	}
	if m.current != nil {
		m.current.Unmount()
	}
	m.current = nil
	m.articles = nil
	m.reading = nil
	m.index = 0
	m.exhausted = false
	m.err = nil
	m.status = ""
	if m.fetching {
		// The in-flight fetch comes back empty and triggers a new one.
		return m, nil
	}
	m.fetching = true
	return m, fetchMore(m.feed)
}
