package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"archfeed/internal/model"

	"go.uber.org/zap"
)

// DefaultBaseURL is the English Wikipedia API endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/w/api.php"

const defaultUserAgent = "archfeed/1.0 (https://github.com/archfeed/archfeed)"

// Client is a thin MediaWiki query client. It holds no per-session state.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithUserAgent overrides the User-Agent sent with every request.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// CategoryMembers lists up to limit pages of the category.
func (c *Client) CategoryMembers(ctx context.Context, category string, limit int) ([]model.Member, error) {
	params := url.Values{
		"list":    {"categorymembers"},
		"cmtitle": {category},
		"cmlimit": {strconv.Itoa(limit)},
		"cmtype":  {"page"},
	}

	resp, err := c.query(ctx, "categorymembers", params)
	if err != nil {
		return nil, err
	}
	if resp.Query == nil || resp.Query.CategoryMembers == nil {
		return nil, ErrNoMembers
	}

	members := make([]model.Member, 0, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		members = append(members, model.Member{PageID: m.PageID, Title: m.Title})
	}
	return members, nil
}

// PageDetails fetches extracts and thumbnails for ids, in the order given.
func (c *Client) PageDetails(ctx context.Context, ids []int) ([]model.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := detailParams()
	params.Set("pageids", joinIDs(ids))

	resp, err := c.query(ctx, "details", params)
	if err != nil {
		return nil, err
	}
	if resp.Query == nil || resp.Query.Pages == nil {
		return nil, ErrNoPages
	}

	byID := make(map[int]model.Article, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if p.Missing != nil || p.Invalid != nil {
			continue
		}
		byID[p.PageID] = toArticle(p)
	}

	articles := make([]model.Article, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// RandomSample asks for size random members of the category with
// extracts and thumbnails inlined. Results are ordered by page id.
func (c *Client) RandomSample(ctx context.Context, category string, size int) ([]model.Article, error) {
	params := detailParams()
	params.Set("generator", "categorymembers")
	params.Set("gcmtitle", category)
	params.Set("gcmlimit", strconv.Itoa(size))
	params.Set("gcmtype", "page")
	params.Set("gcmsort", "random")

	resp, err := c.query(ctx, "sample", params)
	if err != nil {
		return nil, err
	}
	if resp.Query == nil || resp.Query.Pages == nil {
		return nil, ErrNoPages
	}

	articles := make([]model.Article, 0, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if p.Missing != nil || p.Invalid != nil {
			continue
		}
		articles = append(articles, toArticle(p))
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].PageID < articles[j].PageID })
	return articles, nil
}

// PageCheck fetches a short extract and the full category list of a page.
func (c *Client) PageCheck(ctx context.Context, pageID int) (*model.PageCheck, error) {
	params := url.Values{
		"pageids":     {strconv.Itoa(pageID)},
		"prop":        {"extracts|categories"},
		"explaintext": {"1"},
		"exintro":     {"1"},
		"exsentences": {"5"},
		"cllimit":     {"500"},
	}

	resp, err := c.query(ctx, "pagecheck", params)
	if err != nil {
		return nil, err
	}
	if resp.Query == nil || resp.Query.Pages == nil {
		return nil, ErrNoPages
	}
	p, ok := resp.Query.Pages[strconv.Itoa(pageID)]
	if !ok || p.Missing != nil || p.Invalid != nil {
		return nil, fmt.Errorf("pagecheck %d: %w", pageID, ErrNoPages)
	}

	check := &model.PageCheck{
		PageID:     p.PageID,
		Title:      p.Title,
		Extract:    p.Extract,
		Categories: make([]string, 0, len(p.Categories)),
	}
	for _, cat := range p.Categories {
		check.Categories = append(check.Categories, cat.Title)
	}
	return check, nil
}

func (c *Client) query(ctx context.Context, op string, params url.Values) (*apiResponse, error) {
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("origin", "*")

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Wiki request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: %w", op, &StatusError{Code: resp.StatusCode, Body: string(body)})
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%s: api error %s: %s", op, out.Error.Code, out.Error.Info)
	}
	return &out, nil
}

func detailParams() url.Values {
	return url.Values{
		"prop":        {"extracts|pageimages"},
		"exintro":     {"1"},
		"exchars":     {"1000"},
		"explaintext": {"1"},
		"piprop":      {"thumbnail"},
		"pithumbsize": {"400"},
	}
}

func toArticle(p apiPage) model.Article {
	a := model.Article{
		PageID:  p.PageID,
		Title:   p.Title,
		Extract: p.Extract,
	}
	if p.Thumbnail != nil {
		a.Thumbnail = &model.Thumbnail{
			Source: p.Thumbnail.Source,
			Width:  p.Thumbnail.Width,
			Height: p.Thumbnail.Height,
		}
	}
	return a
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}
