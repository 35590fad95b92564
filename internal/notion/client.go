// Package notion adapts the Notion API to the parts the diary uses:
// database pages, their properties and their top-level blocks.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"

	"github.com/jomei/notionapi"

	"github.com/julianstephens/journalbot/internal/constants"
	apperrors "github.com/julianstephens/journalbot/internal/errors"
	"github.com/julianstephens/journalbot/internal/index"
	"github.com/julianstephens/journalbot/internal/logger"
)

// maxChildren is the API's limit on blocks per create or append request.
const maxChildren = 100

// IsTransient reports whether a failed call may succeed if repeated later.
func IsTransient(err error) bool {
	return apperrors.IsTransient(err)
}

func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusConflict ||
		status >= 500
}

// classify wraps err with the operation name and marks rate limiting,
// upstream failures and network trouble as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("notion: %s: %w", op, err)
	if errors.Is(err, context.Canceled) {
		return wrapped
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		logger.Warn("notion request failed", "op", op, "status", apiErr.Status, "code", apiErr.Code)
		if transientStatus(apiErr.Status) {
			return apperrors.Transient(wrapped)
		}
		return wrapped
	}
	var rateErr *notionapi.RateLimitedError
	if errors.As(err, &rateErr) {
		logger.Warn("notion rate limit exhausted retries", "op", op)
		return apperrors.Transient(wrapped)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Transient(wrapped)
	}
	return wrapped
}

type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
	tag        string
	http       *http.Client
	baseURL    *url.URL
}

type Option func(*Client)

// WithBaseURL sends every request to another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if parsed, err := url.Parse(u); err == nil {
			c.baseURL = parsed
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTag sets the multi-select tag diary pages carry.
func WithTag(tag string) Option {
	return func(c *Client) { c.tag = tag }
}

func New(token, databaseID string, opts ...Option) *Client {
	c := &Client{
		databaseID: notionapi.DatabaseID(databaseID),
		tag:        constants.DefaultDiaryTag,
		http:       &http.Client{Timeout: constants.NotionRequestLimit},
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient := c.http
	if c.baseURL != nil {
		next := httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rebased := *httpClient
		rebased.Transport = rebaseTransport{target: c.baseURL, next: next}
		httpClient = &rebased
	}
	c.api = notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient))
	return c
}

// rebaseTransport rewrites the scheme and host of outgoing requests.
type rebaseTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	req.Host = t.target.Host
	return t.next.RoundTrip(req)
}

func (c *Client) Tag() string {
	return c.tag
}

// CreatePage adds a page to the diary database and returns its id. Children
// beyond the per-request limit are appended in follow-up calls; if one of
// those fails the page id is still returned with the error.
func (c *Client) CreatePage(ctx context.Context, props Properties, icon string, children []Block) (string, error) {
	first := children
	if len(first) > maxChildren {
		first = children[:maxChildren]
	}
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: props,
		Children:   toAPIBlocks(first),
		Icon:       EmojiIcon(icon),
	}

	logger.Debug("notion create page", "blocks", len(children))
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return "", classify("create page", err)
	}
	id := string(page.ID)
	if id == "" {
		return "", errors.New("notion: create page returned no id")
	}
	if len(children) > len(first) {
		if err := c.AppendBlocks(ctx, id, children[len(first):]); err != nil {
			return id, fmt.Errorf("notion: page %s created but content incomplete: %w", id, err)
		}
	}
	return id, nil
}

// PatchPageProperties overwrites the given properties and, when icon is not
// empty, the page icon.
func (c *Client) PatchPageProperties(ctx context.Context, pageID string, props Properties, icon string) error {
	if props == nil {
		props = Properties{}
	}
	req := &notionapi.PageUpdateRequest{Properties: props, Icon: EmojiIcon(icon)}
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), req)
	return classify("update page", err)
}

// AppendBlocks adds blocks after the last top-level block of a page.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []Block) error {
	for start := 0; start < len(blocks); start += maxChildren {
		end := min(start+maxChildren, len(blocks))
		req := &notionapi.AppendBlockChildrenRequest{Children: toAPIBlocks(blocks[start:end])}
		if _, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(pageID), req); err != nil {
			return classify("append blocks", err)
		}
	}
	return nil
}

// QueryBlocks returns every top-level block of a page in document order.
func (c *Client) QueryBlocks(ctx context.Context, pageID string) ([]Block, error) {
	var blocks []Block
	pagination := &notionapi.Pagination{PageSize: constants.NotionPageSize}
	for {
		res, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(pageID), pagination)
		if err != nil {
			return nil, classify("list blocks", err)
		}
		for _, b := range res.Results {
			blocks = append(blocks, fromAPI(b))
		}
		if !res.HasMore || res.NextCursor == "" {
			return blocks, nil
		}
		pagination.StartCursor = notionapi.Cursor(res.NextCursor)
	}
}

// UpdateParagraph replaces the text of a paragraph block.
func (c *Client) UpdateParagraph(ctx context.Context, blockID, text string) error {
	req := &notionapi.BlockUpdateRequest{
		Paragraph: &notionapi.Paragraph{RichText: RichTexts(text)},
	}
	_, err := c.api.Block.Update(ctx, notionapi.BlockID(blockID), req)
	return classify("update paragraph", err)
}

// QueryTaggedDocuments lists every page in the database carrying the diary
// tag, oldest first.
func (c *Client) QueryTaggedDocuments(ctx context.Context) ([]index.Document, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property:    constants.PropertyTags,
			MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: c.tag},
		},
		PageSize: constants.NotionPageSize,
	}

	var docs []index.Document
	for {
		res, err := c.api.Database.Query(ctx, c.databaseID, req)
		if err != nil {
			return nil, classify("query database", err)
		}
		for _, p := range res.Results {
			docs = append(docs, index.Document{
				ID:        string(p.ID),
				CreatedAt: p.CreatedTime,
				Icon:      pageIcon(p.Icon),
			})
		}
		if !res.HasMore || res.NextCursor == "" {
			break
		}
		req.StartCursor = notionapi.Cursor(res.NextCursor)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// Ping checks that the token can read the diary database.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.Database.Get(ctx, c.databaseID)
	return classify("get database", err)
}
