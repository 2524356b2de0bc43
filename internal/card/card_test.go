package card

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"archfeed/internal/model"
	"archfeed/internal/share"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const category = "Category:Architecture"

type fakeChecker struct {
	mu     sync.Mutex
	checks map[int]*model.PageCheck
	err    error
	// release, when set, blocks PageCheck until closed or the ctx ends.
	release chan struct{}
	calls   []int
	// ignoreCtx makes a blocked call return its result even after cancellation.
	ignoreCtx bool
}

func (f *fakeChecker) PageCheck(ctx context.Context, pageID int) (*model.PageCheck, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageID)
	f.mu.Unlock()

	if f.release != nil {
		if f.ignoreCtx {
			<-f.release
		} else {
			select {
			case <-f.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.checks[pageID], nil
}

func vault() model.Article {
	return model.Article{
		PageID:    42,
		Title:     "Vault (architecture)",
		Thumbnail: &model.Thumbnail{Source: "http://img/42.jpg", Width: 400, Height: 300},
	}
}

func architecture(pageID int, extract string) *model.PageCheck {
	return &model.PageCheck{
		PageID:     pageID,
		Extract:    extract,
		Categories: []string{"Category:Arches", "Category:ARCHITECTURE"},
	}
}

func TestCard_ValidArticle(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{
		42: architecture(42, "A vault is a self-supporting arched form."),
	}}
	c := New(vault(), checker, category, zap.NewNop())
	c.Mount()
	<-c.Done()

	assert.Equal(t, StateValid, c.State())
	assert.Equal(t, "A vault is a self-supporting arched form.", c.Content())
	assert.True(t, c.Visible())

	out := c.Render(60)
	assert.Contains(t, out, "Vault (architecture)")
	assert.Contains(t, out, "https://en.wikipedia.org/?curid=42")
	assert.Contains(t, out, "Read more")
}

func TestCard_NotInCategoryRendersNothing(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{
		42: {PageID: 42, Extract: "Some text", Categories: []string{"Category:Architecture stubs"}},
	}}
	c := New(vault(), checker, category, zap.NewNop())
	c.Validate(context.Background())

	assert.Equal(t, StateInvalid, c.State())
	assert.Equal(t, NotCategorizedMessage, c.Content())
	assert.False(t, c.Visible())
	assert.Equal(t, "", c.Render(60), "invalid card renders nothing, not even the message")
}

func TestCard_MissingExtractIsInvalid(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{42: architecture(42, "")}}
	c := New(vault(), checker, category, zap.NewNop())
	c.Validate(context.Background())

	assert.Equal(t, StateInvalid, c.State())
}

func TestCard_FetchErrorKeepsCardVisible(t *testing.T) {
	checker := &fakeChecker{err: errors.New("timeout")}
	c := New(vault(), checker, category, zap.NewNop())
	c.Validate(context.Background())

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, LoadFailedMessage, c.Content())
	assert.True(t, c.Visible())
	assert.Contains(t, c.Render(60), "Failed to load content")
}

func TestCard_PendingRendersPlaceholder(t *testing.T) {
	c := New(vault(), &fakeChecker{}, category, zap.NewNop())
	out := c.Render(60)
	assert.Contains(t, out, "Vault (architecture)")
	assert.Contains(t, out, "░")
}

func TestCard_UnmountBeforeResolveDropsResult(t *testing.T) {
	release := make(chan struct{})
	checker := &fakeChecker{
		release:   release,
		ignoreCtx: true,
		checks:    map[int]*model.PageCheck{42: architecture(42, "late")},
	}
	c := New(vault(), checker, category, zap.NewNop())
	c.Mount()
	done := c.Done()

	c.Unmount()
	close(release)
	<-done

	assert.Equal(t, StatePending, c.State(), "no state update after unmount")
	assert.Empty(t, c.Content())
}

func TestCard_UnmountCancelsRequest(t *testing.T) {
	checker := &fakeChecker{release: make(chan struct{})}
	c := New(vault(), checker, category, zap.NewNop())
	c.Mount()
	done := c.Done()

	c.Unmount()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("validation was not cancelled")
	}
	assert.Equal(t, StatePending, c.State())
}

func TestCard_IdentityChangeSupersedesValidation(t *testing.T) {
	release := make(chan struct{})
	checker := &fakeChecker{
		release:   release,
		ignoreCtx: true,
		checks: map[int]*model.PageCheck{
			42: architecture(42, "old"),
			43: architecture(43, "new"),
		},
	}
	c := New(vault(), checker, category, zap.NewNop())
	c.Mount()
	first := c.Done()

	next := vault()
	next.PageID = 43
	c.SetArticle(next)
	second := c.Done()

	close(release)
	<-first
	<-second

	assert.Equal(t, StateValid, c.State())
	assert.Equal(t, "new", c.Content())
	assert.Equal(t, 43, c.Article().PageID)
}

func TestCard_SameIdentityDoesNotRefetch(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{42: architecture(42, "x")}}
	c := New(vault(), checker, category, zap.NewNop())
	c.Mount()
	<-c.Done()

	renamed := vault()
	renamed.Title = "Vault"
	c.SetArticle(renamed)
	<-c.Done()

	assert.Equal(t, []int{42}, checker.calls)
	assert.Equal(t, "Vault", c.Article().Title)
}

func TestCard_ValidateRespectsCancelledContext(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{42: architecture(42, "x")}}
	c := New(vault(), checker, category, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Validate(ctx)

	assert.Equal(t, StatePending, c.State())
}

type recordingSharer struct {
	got []share.Payload
}

func (r *recordingSharer) Share(_ context.Context, p share.Payload) error {
	r.got = append(r.got, p)
	return nil
}

func TestCard_SharePayload(t *testing.T) {
	checker := &fakeChecker{checks: map[int]*model.PageCheck{42: architecture(42, "A vault.")}}
	c := New(vault(), checker, category, zap.NewNop())

	sharer := &recordingSharer{}
	require.NoError(t, c.Share(context.Background(), sharer))
	assert.Equal(t, DefaultShareText, sharer.got[0].Text, "still loading uses the default text")

	c.Validate(context.Background())
	require.NoError(t, c.Share(context.Background(), sharer))
	assert.Equal(t, share.Payload{
		Title: "Vault (architecture)",
		Text:  "A vault.",
		URL:   "https://en.wikipedia.org/?curid=42",
	}, sharer.got[1])
}

func TestClampLines(t *testing.T) {
	assert.Equal(t, "a\nb", clampLines("a\nb", 3))
	assert.Equal(t, "a\nb…", clampLines("a\nb\nc\nd", 2))
}
