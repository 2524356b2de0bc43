// Package tui is the terminal card feed: one article per screen, more
// articles fetched as the reader nears the end.
package tui

import (
	"context"

	"archfeed/internal/card"
	"archfeed/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// prefetchDistance is how close to the last card FetchMore is triggered.
const prefetchDistance = 2

// Feed is the part of feed.Source the terminal feed drives.
type Feed interface {
	Articles() []model.Article
	FetchMore(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Reader loads the full text behind "Read more".
type Reader interface {
	Read(ctx context.Context, article model.Article) (*model.Reading, error)
}

// Model represents the TUI state
type Model struct {
	feed     Feed
	checker  card.Checker
	sharer   card.Sharer
	reader   Reader
	category string
	logger   *zap.Logger

	articles []model.Article
	index    int
	current  *card.Card
	reading  *model.Reading

	fetching  bool
	exhausted bool
	status    string
	err       error
	width     int
}

func NewModel(f Feed, checker card.Checker, sharer card.Sharer, r Reader, category string, logger *zap.Logger) Model {
	return Model{
		feed:     f,
		checker:  checker,
		sharer:   sharer,
		reader:   r,
		category: category,
		logger:   logger,
		fetching: true,
		width:    72,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return fetchMore(m.feed)
}

// show moves to card i. The previous card is unmounted so a late result
// cannot land on the new screen.
func (m Model) show(i int) (Model, tea.Cmd) {
	if m.current != nil {
		m.current.Unmount()
	}
	m.index = i
	m.reading = nil
	m.current = card.New(m.articles[i], m.checker, m.category, m.logger)
	m.current.Mount()

	var more tea.Cmd
	m, more = m.maybeFetch()
	return m, tea.Batch(awaitCard(m.current), more)
}

func (m Model) maybeFetch() (Model, tea.Cmd) {
	if m.fetching || m.exhausted {
		return m, nil
	}
	if len(m.articles)-1-m.index > prefetchDistance {
		return m, nil
	}
	m.fetching = true
	return m, fetchMore(m.feed)
}

// Current returns the card on screen, or nil before the first batch.
func (m Model) Current() *card.Card {
	return m.current
}

// Index is the position of the visible card.
func (m Model) Index() int {
	return m.index
}

// Status is the last notice shown in the footer.
func (m Model) Status() string {
	return m.status
}
