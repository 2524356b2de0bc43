package wiki

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMembers is returned when a listing response has no categorymembers.
	ErrNoMembers = errors.New("no category members in response")
	// ErrNoPages is returned when a details response has no pages.
	ErrNoPages = errors.New("no pages in response")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wiki api returned %d: %s", e.Code, e.Body)
}

type apiResponse struct {
	Query *apiQuery `json:"query"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type apiQuery struct {
	CategoryMembers []apiMember        `json:"categorymembers"`
	Pages           map[string]apiPage `json:"pages"`
}

type apiMember struct {
	PageID int    `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

type apiPage struct {
	PageID     int           `json:"pageid"`
	Title      string        `json:"title"`
	Extract    string        `json:"extract"`
	Thumbnail  *apiThumbnail `json:"thumbnail"`
	Categories []apiCategory `json:"categories"`
	Missing    *string       `json:"missing"`
	Invalid    *string       `json:"invalid"`
}

type apiThumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type apiCategory struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}
