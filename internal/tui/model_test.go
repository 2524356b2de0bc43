package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"archfeed/internal/card"
	"archfeed/internal/feed"
	"archfeed/internal/model"
	"archfeed/internal/share"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFeed struct {
	mu       sync.Mutex
	batches  [][]model.Article
	articles []model.Article
	err      error
	calls    int
	resets   int
}

func (f *fakeFeed) Articles() []model.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Article(nil), f.articles...)
}

func (f *fakeFeed) FetchMore(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, feed.ErrExhausted
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	f.articles = append(f.articles, b...)
	return len(b), nil
}

func (f *fakeFeed) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.articles = nil
	return nil
}

type fakeChecker struct {
	rejected map[int]bool
	gate     chan struct{}
}

func (c *fakeChecker) PageCheck(ctx context.Context, pageID int) (*model.PageCheck, error) {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	category := "Category:Architecture"
	if c.rejected[pageID] {
		category = "Category:Cats"
	}
	return &model.PageCheck{
		PageID:     pageID,
		Extract:    fmt.Sprintf("Extract %d", pageID),
		Categories: []string{category},
	}, nil
}

type fakeSharer struct {
	got []share.Payload
}

func (s *fakeSharer) Share(_ context.Context, p share.Payload) error {
	s.got = append(s.got, p)
	return nil
}

type fakeReader struct {
	err error
}

func (r *fakeReader) Read(_ context.Context, a model.Article) (*model.Reading, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &model.Reading{PageID: a.PageID, Title: a.Title, Excerpt: "The long read of " + a.Title}, nil
}

func articles(first, count int) []model.Article {
	out := make([]model.Article, count)
	for i := range out {
		id := first + i
		out[i] = model.Article{PageID: id, Title: fmt.Sprintf("Article %d", id)}
	}
	return out
}

func newTestModel(f *fakeFeed, c *fakeChecker) (Model, *fakeSharer) {
	s := &fakeSharer{}
	return NewModel(f, c, s, &fakeReader{}, "Category:Architecture", zap.NewNop()), s
}

// run executes cmd and every command that follows from it, feeding each
// message back through Update.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		updated, follow := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, follow)
	}
	return m
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, cmd := m.Update(msg)
	return run(t, updated.(Model), cmd)
}

func TestModel_InitShowsFirstCard(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 5)}}
	m, _ := newTestModel(f, &fakeChecker{})

	m = run(t, m, m.Init())

	require.NotNil(t, m.Current())
	assert.Equal(t, 1, m.Current().Article().PageID)
	assert.Equal(t, card.StateValid, m.Current().State())
	assert.Equal(t, 1, f.calls, "five cards is more than the prefetch distance")

	view := m.View()
	assert.Contains(t, view, "Article 1")
	assert.Contains(t, view, "Extract 1")
	assert.Contains(t, view, "1 / 5")
}

func TestModel_FetchesMoreNearTheEnd(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 4), articles(5, 2)}}
	m, _ := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())
	require.Equal(t, 1, f.calls)

	m = press(t, m, "j")

	assert.Equal(t, 1, m.Index())
	assert.Equal(t, 2, f.calls)
	assert.Len(t, m.articles, 6)
}

func TestModel_NavigationKeys(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 10)}}
	m, _ := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())

	m = press(t, m, "down")
	m = press(t, m, " ")
	assert.Equal(t, 2, m.Index())

	m = press(t, m, "k")
	m = press(t, m, "up")
	m = press(t, m, "up")
	assert.Equal(t, 0, m.Index(), "cannot move before the first card")
	assert.Equal(t, 1, m.Current().Article().PageID)
}

func TestModel_UnmountsCardOnMove(t *testing.T) {
	f := &fakeFeed{articles: articles(1, 5)}
	m, _ := newTestModel(f, &fakeChecker{gate: make(chan struct{})})

	updated, _ := m.Update(fetchedMsg{added: 5})
	m = updated.(Model)
	first := m.Current()
	require.NotNil(t, first)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = updated.(Model)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("moving away did not cancel the check")
	}
	assert.Equal(t, card.StatePending, first.State())
	assert.Equal(t, 2, m.Current().Article().PageID)
	m.Current().Unmount()
}

func TestModel_SkipsRejectedCard(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 6)}}
	m, _ := newTestModel(f, &fakeChecker{rejected: map[int]bool{2: true}})
	m = run(t, m, m.Init())

	m = press(t, m, "j")

	assert.Equal(t, 2, m.Index())
	assert.Equal(t, 3, m.Current().Article().PageID)
}

func TestModel_Share(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 5)}}
	m, sharer := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())

	m = press(t, m, "s")

	require.Len(t, sharer.got, 1)
	assert.Equal(t, "Extract 1", sharer.got[0].Text)
	assert.Equal(t, "https://en.wikipedia.org/?curid=1", sharer.got[0].URL)
	assert.Equal(t, "Shared.", m.Status())
}

func TestModel_ClipboardNoticeWins(t *testing.T) {
	m, _ := newTestModel(&fakeFeed{}, &fakeChecker{})
	m.status = "Sharing..."

	updated, _ := m.Update(NoticeMsg(share.CopiedMessage))
	updated, _ = updated.(Model).Update(sharedMsg{})

	assert.Equal(t, share.CopiedMessage, updated.(Model).Status())
}

func TestModel_ReadMore(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 5)}}
	m, _ := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())

	m = press(t, m, "o")
	assert.Contains(t, m.View(), "The long read of Article 1")

	m = press(t, m, "j")
	assert.NotContains(t, m.View(), "The long read of Article 1")
}

func TestModel_ReadMoreFailure(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 5)}}
	m, _ := newTestModel(f, &fakeChecker{})
	m.reader = &fakeReader{err: errors.New("timeout")}
	m = run(t, m, m.Init())

	m = press(t, m, "o")
	assert.Contains(t, m.Status(), "timeout")
}

func TestModel_ResetStartsOver(t *testing.T) {
	f := &fakeFeed{batches: [][]model.Article{articles(1, 5), articles(10, 5)}}
	m, _ := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())
	m = press(t, m, "j")

	m = press(t, m, "r")

	assert.Equal(t, 1, f.resets)
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, 10, m.Current().Article().PageID)
	assert.Len(t, m.articles, 5)
}

func TestModel_EmptyFeed(t *testing.T) {
	m, _ := newTestModel(&fakeFeed{}, &fakeChecker{})
	m = run(t, m, m.Init())

	assert.Nil(t, m.Current())
	assert.Contains(t, m.View(), "No articles found.")
}

func TestModel_FetchErrorShown(t *testing.T) {
	f := &fakeFeed{err: errors.New("upstream down")}
	m, _ := newTestModel(f, &fakeChecker{})
	m = run(t, m, m.Init())

	assert.Contains(t, m.View(), "upstream down")
}

func TestModel_BusyIsIgnored(t *testing.T) {
	m, _ := newTestModel(&fakeFeed{}, &fakeChecker{})

	updated, cmd := m.Update(fetchedMsg{err: feed.ErrBusy})

	assert.Nil(t, cmd)
	assert.NoError(t, updated.(Model).err)
	assert.False(t, updated.(Model).fetching)
}
