package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"archfeed/internal/model"
	"archfeed/internal/store"

	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when FetchMore is called while another call is loading.
	ErrBusy = errors.New("fetch already in progress")
	// ErrExhausted is returned when no further unseen articles are available.
	ErrExhausted = errors.New("no more articles")

	errStale = errors.New("batch outdated by reset")
)

// API is the part of the Wikipedia client the feed depends on.
type API interface {
	CategoryMembers(ctx context.Context, category string, limit int) ([]model.Member, error)
	PageDetails(ctx context.Context, ids []int) ([]model.Article, error)
	RandomSample(ctx context.Context, category string, size int) ([]model.Article, error)
}

// Strategy selects how the source pages through the category.
type Strategy string

const (
	// StrategyCursor lists the category once, shuffles it and walks it page by page.
	StrategyCursor Strategy = "cursor"
	// StrategyRandom draws a fresh random sample per batch and
	// de-duplicates against the seen ledger.
	StrategyRandom Strategy = "random"
)

// Options configures a Source.
type Options struct {
	Category    string
	Strategy    Strategy
	PageSize    int
	SampleSize  int
	MemberLimit int
	// Prefetch keeps one random batch buffered ahead of the visible list.
	Prefetch bool
	// ResetOnExhaustion clears the ledger when a random sample yields
	// nothing new. Previously seen articles may then reappear on the next call.
	ResetOnExhaustion bool
}

func DefaultOptions() Options {
	return Options{
		Category:          "Category:Architecture",
		Strategy:          StrategyRandom,
		PageSize:          10,
		SampleSize:        20,
		MemberLimit:       500,
		Prefetch:          true,
		ResetOnExhaustion: true,
	}
}

// Source is one feed session: an append-only list of articles plus the
// state needed to extend it. Each Source owns its state exclusively.
type Source struct {
	api       API
	preloader Preloader
	ledger    store.Ledger
	logger    *zap.Logger
	opts      Options
	shuffle   func([]model.Member)

	loading atomic.Bool

	mu            sync.Mutex
	articles      []model.Article
	buffer        []model.Article
	members       []model.Member
	membersLoaded bool
	cursor        int
	epoch         uint64
	refill        chan struct{}
	closed        bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

// NewSource creates an empty feed session. A nil preloader skips the
// readiness wait; a nil ledger uses an in-memory one.
func NewSource(api API, preloader Preloader, ledger store.Ledger, opts Options, logger *zap.Logger) *Source {
	def := DefaultOptions()
	if opts.Category == "" {
		opts.Category = def.Category
	}
	if opts.Strategy == "" {
		opts.Strategy = def.Strategy
	}
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = def.SampleSize
	}
	if opts.MemberLimit <= 0 {
		opts.MemberLimit = def.MemberLimit
	}
	if preloader == nil {
		preloader = nopPreloader{}
	}
	if ledger == nil {
		ledger = store.NewMemoryLedger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		api:       api,
		preloader: preloader,
		ledger:    ledger,
		logger:    logger.With(zap.String("strategy", string(opts.Strategy))),
		opts:      opts,
		shuffle:   fisherYates,
		bgCtx:     ctx,
		bgCancel:  cancel,
	}
}

// Articles returns a copy of the visible list.
func (s *Source) Articles() []model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// Loading reports whether a FetchMore call is in flight.
func (s *Source) Loading() bool {
	return s.loading.Load()
}

// Buffered is the number of prefetched articles not yet visible.
func (s *Source) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// FetchMore appends the next batch of unique articles and returns how
// many were added. It returns ErrBusy without side effects while another
// call is running. On failure the visible list is left untouched.
func (s *Source) FetchMore(ctx context.Context) (int, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer s.loading.Store(false)

	var (
		n   int
		err error
	)
	switch s.opts.Strategy {
	case StrategyCursor:
		n, err = s.fetchPage(ctx)
	default:
		n, err = s.fetchSample(ctx)
	}

	switch {
	case err == nil:
		s.logger.Debug("Batch appended", zap.Int("added", n))
	case errors.Is(err, errStale):
		s.logger.Debug("Batch discarded after reset")
		err = nil
	case errors.Is(err, ErrExhausted):
		s.logger.Info("Feed exhausted")
	default:
		s.logger.Error("Error fetching articles", zap.Error(err))
	}
	return n, err
}

// Reset empties the session so the next FetchMore starts from scratch.
// A refill that started before Reset is discarded when it completes.
func (s *Source) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.articles = nil
	s.buffer = nil
	s.members = nil
	s.membersLoaded = false
	s.cursor = 0

	if err := s.ledger.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	s.logger.Info("Feed reset")
	return nil
}

// Close stops any background refill and waits for it to return.
func (s *Source) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.bgCancel()
	s.wg.Wait()
}

func (s *Source) fetchPage(ctx context.Context) (int, error) {
	if err := s.loadMembers(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	epoch := s.epoch
	start := s.cursor
	if start >= len(s.members) {
		s.mu.Unlock()
		return 0, ErrExhausted
	}
	end := min(start+s.opts.PageSize, len(s.members))
	ids := make([]int, 0, end-start)
	for _, m := range s.members[start:end] {
		ids = append(ids, m.PageID)
	}
	s.mu.Unlock()

	details, err := s.api.PageDetails(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("fetch details: %w", err)
	}

	batch := make([]model.Article, 0, len(details))
	for _, a := range details {
		if a.HasThumbnail() {
			batch = append(batch, a)
		}
	}
	s.settle(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return 0, errStale
	}
	s.articles = append(s.articles, batch...)
	s.cursor = end
	return len(batch), nil
}

func (s *Source) loadMembers(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.membersLoaded
	epoch := s.epoch
	s.mu.Unlock()
	if loaded {
		return nil
	}

	members, err := s.api.CategoryMembers(ctx, s.opts.Category, s.opts.MemberLimit)
	if err != nil {
		return fmt.Errorf("fetch category members: %w", err)
	}
	s.shuffle(members)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return errStale
	}
	s.members = members
	s.membersLoaded = true
	s.cursor = 0
	s.logger.Info("Category listed", zap.Int("members", len(members)))
	return nil
}

func (s *Source) fetchSample(ctx context.Context) (int, error) {
	if err := s.awaitRefill(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	if len(s.buffer) > 0 {
		batch := s.buffer
		s.buffer = nil
		s.articles = append(s.articles, batch...)
		s.mu.Unlock()

		s.startRefill()
		return len(batch), nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	batch, err := s.nextSample(ctx)
	if errors.Is(err, ErrExhausted) {
		return 0, s.exhausted(ctx, epoch)
	}
	if err != nil {
		return 0, err
	}
	if err := s.commit(ctx, epoch, batch, false); err != nil {
		return 0, err
	}

	s.startRefill()
	return len(batch), nil
}

// nextSample draws a random sample and keeps the unseen articles that
// have a thumbnail, after their images have settled.
func (s *Source) nextSample(ctx context.Context) ([]model.Article, error) {
	sample, err := s.api.RandomSample(ctx, s.opts.Category, s.opts.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("fetch sample: %w", err)
	}

	batch := make([]model.Article, 0, len(sample))
	for _, a := range sample {
		if !a.HasThumbnail() {
			continue
		}
		seen, err := s.ledger.Contains(ctx, a.PageID)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup: %w", err)
		}
		if !seen {
			batch = append(batch, a)
		}
	}
	if len(batch) == 0 {
		return nil, ErrExhausted
	}

	s.settle(ctx, batch)
	return batch, nil
}

// commit makes a settled batch visible (or buffers it) and merges its ids
// into the ledger in one step.
func (s *Source) commit(ctx context.Context, epoch uint64, batch []model.Article, buffered bool) error {
	ids := make([]int, len(batch))
	for i, a := range batch {
		ids[i] = a.PageID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return errStale
	}
	if err := s.ledger.Add(ctx, ids...); err != nil {
		return fmt.Errorf("ledger add: %w", err)
	}
	if buffered {
		s.buffer = append(s.buffer, batch...)
	} else {
		s.articles = append(s.articles, batch...)
	}
	return nil
}

// exhausted applies the exhaustion policy for a sample that had nothing new.
func (s *Source) exhausted(ctx context.Context, epoch uint64) error {
	if !s.opts.ResetOnExhaustion {
		return ErrExhausted
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	if err := s.ledger.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	s.logger.Info("Sample space exhausted, seen ids cleared")
	return nil
}

func (s *Source) startRefill() {
	if !s.opts.Prefetch || s.opts.Strategy != StrategyRandom {
		return
	}

	s.mu.Lock()
	if s.refill != nil || s.closed {
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	s.refill = done
	epoch := s.epoch
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			if s.refill == done {
				s.refill = nil
			}
			s.mu.Unlock()
			close(done)
		}()

		ctx := s.bgCtx
		batch, err := s.nextSample(ctx)
		if errors.Is(err, ErrExhausted) {
			if err := s.exhausted(ctx, epoch); err != nil && !errors.Is(err, ErrExhausted) {
				s.logger.Warn("Prefetch ledger reset failed", zap.Error(err))
			}
			return
		}
		if err != nil {
			s.logger.Warn("Prefetch failed", zap.Error(err))
			return
		}
		if err := s.commit(ctx, epoch, batch, true); err != nil {
			if !errors.Is(err, errStale) {
				s.logger.Warn("Prefetch commit failed", zap.Error(err))
			}
			return
		}
		s.logger.Debug("Buffer refilled", zap.Int("buffered", len(batch)))
	}()
}

func (s *Source) awaitRefill(ctx context.Context) error {
	s.mu.Lock()
	done := s.refill
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func fisherYates(members []model.Member) {
	for i := len(members) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		members[i], members[j] = members[j], members[i]
	}
}
