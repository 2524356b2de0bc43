package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"archfeed/internal/card"
	"archfeed/internal/feed"
	"archfeed/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Feed is the part of feed.Source the API exposes.
type Feed interface {
	Articles() []model.Article
	Loading() bool
	Buffered() int
	FetchMore(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Server serves one feed session over JSON.
type Server struct {
	feed     Feed
	checker  card.Checker
	sharer   card.Sharer
	category string
	logger   *zap.Logger
	router   *mux.Router
	server   *http.Server
}

func NewServer(f Feed, checker card.Checker, sharer card.Sharer, category string, logger *zap.Logger) *Server {
	s := &Server{
		feed:     f,
		checker:  checker,
		sharer:   sharer,
		category: category,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/articles", s.handleArticles).Methods("GET")
	api.HandleFunc("/articles/more", s.handleMore).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/cards/{pageid:[0-9]+}", s.handleCard).Methods("GET")
	api.HandleFunc("/cards/{pageid:[0-9]+}/share", s.handleShare).Methods("POST")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type articlesResponse struct {
	Articles []model.Article `json:"articles"`
	Loading  bool            `json:"loading"`
	Buffered int             `json:"buffered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, articlesResponse{
		Articles: s.feed.Articles(),
		Loading:  s.feed.Loading(),
		Buffered: s.feed.Buffered(),
	})
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	added, err := s.feed.FetchMore(r.Context())
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]int{"added": added})
	case errors.Is(err, feed.ErrBusy):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, feed.ErrExhausted):
		s.writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	default:
		// Already logged by the feed.
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream fetch failed"})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.feed.Reset(r.Context()); err != nil {
		s.logger.Error("Failed to reset feed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "reset failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupCard(w, r)
	if !ok {
		return
	}
	c.Validate(r.Context())
	s.writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupCard(w, r)
	if !ok {
		return
	}
	c.Validate(r.Context())
	if err := c.Share(r.Context(), s.sharer); err != nil {
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "share failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupCard builds a card for an article currently in the feed.
func (s *Server) lookupCard(w http.ResponseWriter, r *http.Request) (*card.Card, bool) {
	pageID, err := strconv.Atoi(mux.Vars(r)["pageid"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid page id"})
		return nil, false
	}
	for _, a := range s.feed.Articles() {
		if a.PageID == pageID {
			return card.New(a, s.checker, s.category, s.logger), true
		}
	}
	s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "article not in feed"})
	return nil, false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
