package share

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnsupported means the native share target is not available here.
var ErrUnsupported = errors.New("native share unavailable")

// CopiedMessage is shown after the clipboard fallback succeeds.
const CopiedMessage = "Link copied to clipboard!"

// Payload is what gets shared.
type Payload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Native hands a payload to a platform share facility.
type Native interface {
	Share(ctx context.Context, p Payload) error
}

// Clipboard receives the link when native sharing is unavailable.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Notifier tells the user what happened.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Sharer shares through the native target and falls back to the clipboard.
type Sharer struct {
	native    Native
	clipboard Clipboard
	notifier  Notifier
	logger    *zap.Logger
}

// NewSharer wires the share targets. native and notifier may be nil.
func NewSharer(native Native, clipboard Clipboard, notifier Notifier, logger *zap.Logger) *Sharer {
	return &Sharer{
		native:    native,
		clipboard: clipboard,
		notifier:  notifier,
		logger:    logger,
	}
}

// Share never panics or exits; failures are logged and returned.
func (s *Sharer) Share(ctx context.Context, p Payload) error {
	logger := s.logger.With(zap.String("url", p.URL))

	if s.native != nil {
		err := s.native.Share(ctx, p)
		if err == nil {
			logger.Info("Article shared")
			return nil
		}
		if !errors.Is(err, ErrUnsupported) {
			logger.Error("Sharing failed", zap.Error(err))
			return fmt.Errorf("share: %w", err)
		}
	}

	if s.clipboard == nil {
		logger.Error("Sharing failed", zap.Error(ErrUnsupported))
		return ErrUnsupported
	}
	if err := s.clipboard.WriteText(ctx, p.URL); err != nil {
		logger.Error("Sharing failed", zap.Error(err))
		return fmt.Errorf("copy link: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Notify(CopiedMessage)
	}
	logger.Info("Link copied")
	return nil
}
