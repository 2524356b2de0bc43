package card

import (
	"context"
	"sync"

	"archfeed/internal/model"
	"archfeed/internal/share"

	"go.uber.org/zap"
)

const (
	NotCategorizedMessage = "This article is not properly categorized in architecture."
	LoadFailedMessage     = "Failed to load content. Please try again later."
	DefaultShareText      = "Check out this architecture article on Wikipedia"
)

// Checker looks up the live extract and categories of a page.
type Checker interface {
	PageCheck(ctx context.Context, pageID int) (*model.PageCheck, error)
}

// Sharer is the share facility a card hands its payload to.
type Sharer interface {
	Share(ctx context.Context, p share.Payload) error
}

type State string

const (
	StatePending State = "pending"
	StateValid   State = "valid"
	StateInvalid State = "invalid"
	StateFailed  State = "failed"
)

// Snapshot is a point-in-time view of a card.
type Snapshot struct {
	Article model.Article `json:"article"`
	State   State         `json:"state"`
	Content string        `json:"content,omitempty"`
	URL     string        `json:"url"`
}

// Card shows one article after confirming it still belongs to the
// category. Results of a validation that was cancelled or superseded
// are dropped.
type Card struct {
	checker  Checker
	category string
	logger   *zap.Logger

	mu      sync.Mutex
	article model.Article
	state   State
	content string
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an unmounted card. category is matched exactly, ignoring case.
func New(article model.Article, checker Checker, category string, logger *zap.Logger) *Card {
	return &Card{
		checker:  checker,
		category: category,
		logger:   logger,
		article:  article,
		state:    StatePending,
	}
}

// Mount starts validating the current article in the background.
func (c *Card) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

// Unmount cancels an in-flight validation. Its result is never applied.
func (c *Card) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// SetArticle swaps the article. A different page id cancels the running
// validation and starts a new one.
func (c *Card) SetArticle(a model.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a.PageID == c.article.PageID {
		c.article = a
		return
	}
	c.article = a
	c.state = StatePending
	c.content = ""
	c.startLocked()
}

// Validate runs the check synchronously, bound to ctx.
func (c *Card) Validate(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	gen := c.gen
	pageID := c.article.PageID
	c.mu.Unlock()

	c.run(ctx, gen, pageID)
}

// Done is closed when the validation started by Mount or SetArticle ends.
func (c *Card) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

func (c *Card) startLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	pageID := c.article.PageID

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done

	go func() {
		defer close(done)
		defer cancel()
		c.run(ctx, gen, pageID)
	}()
}

func (c *Card) run(ctx context.Context, gen uint64, pageID int) {
	logger := c.logger.With(zap.Int("pageid", pageID))

	var (
		state   State
		content string
	)
	check, err := c.checker.PageCheck(ctx, pageID)
	switch {
	case err != nil && ctx.Err() != nil:
		return
	case err != nil:
		logger.Error("Error fetching article content", zap.Error(err))
		state, content = StateFailed, LoadFailedMessage
	case check.InCategory(c.category) && check.Extract != "":
		state, content = StateValid, check.Extract
	default:
		logger.Info("Article not in category", zap.String("category", c.category))
		state, content = StateInvalid, NotCategorizedMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || gen != c.gen {
		return
	}
	c.state = state
	c.content = content
}

func (c *Card) Article() model.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.article
}

func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Card) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Visible is false once the live check rejected the article.
func (c *Card) Visible() bool {
	return c.State() != StateInvalid
}

func (c *Card) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Article: c.article,
		State:   c.state,
		Content: c.content,
		URL:     c.article.URL(),
	}
}

// SharePayload uses the validated extract when there is one.
func (c *Card) SharePayload() share.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := DefaultShareText
	if c.state == StateValid && c.content != "" {
		text = c.content
	}
	return share.Payload{
		Title: c.article.Title,
		Text:  text,
		URL:   c.article.URL(),
	}
}

// Share is best effort: errors are logged by the sharer and returned.
func (c *Card) Share(ctx context.Context, s Sharer) error {
	return s.Share(ctx, c.SharePayload())
}
