package model

import (
	"strconv"
	"strings"
	"time"
)

// ArticleBaseURL is the canonical article address prefix; the page id is appended.
const ArticleBaseURL = "https://en.wikipedia.org/?curid="

// Thumbnail describes the representative image of a page.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Article is a Wikipedia page as shown in the feed.
// PageID is assigned by Wikipedia and is the only identity key.
type Article struct {
	PageID    int        `json:"pageid"`
	Title     string     `json:"title"`
	Extract   string     `json:"extract,omitempty"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
}

// URL returns the canonical link to the article.
func (a Article) URL() string {
	return ArticleURL(a.PageID)
}

// HasThumbnail reports whether the article carries a usable image.
func (a Article) HasThumbnail() bool {
	return a.Thumbnail != nil && a.Thumbnail.Source != ""
}

// ArticleURL builds the canonical link for a page id.
func ArticleURL(pageID int) string {
	return ArticleBaseURL + strconv.Itoa(pageID)
}

// Member is one entry of a category listing.
type Member struct {
	PageID int    `json:"pageid"`
	Title  string `json:"title"`
}

// PageCheck is the live category and extract lookup for a single page.
type PageCheck struct {
	PageID     int      `json:"pageid"`
	Title      string   `json:"title"`
	Extract    string   `json:"extract,omitempty"`
	Categories []string `json:"categories"`
}

// InCategory compares category titles exactly, ignoring case.
func (p PageCheck) InCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Reading is the readable body of an article downloaded from its page.
type Reading struct {
	PageID    int       `json:"pageid"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
