// Package glose wraps the Glose catalog REST API: shelves by user,
// forms by shelf, and single form lookups.
package glose

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/mhounton/shelf-import/config"
	"github.com/mhounton/shelf-import/models"
)

// APIError reports a failed catalog call. Status is zero when the
// request never produced an HTTP response.
type APIError struct {
	Status     int
	StatusText string
	Err        error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("glose api: request failed: %s", e.StatusText)
	}
	return fmt.Sprintf("glose api: network error: %v", e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Cache is the advisory response cache injected into the client. A nil
// cache disables caching entirely.
type Cache interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte)
}

// Client issues typed requests against the catalog API. It never
// retries; callers decide whether a failure is worth another attempt.
type Client struct {
	http  *resty.Client
	cache Cache
}

// NewClient builds a catalog client for cfg.APIBaseURL.
func NewClient(cfg *config.Config, cache Cache) *Client {
	r := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.APITimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: r, cache: cache}
}

// SetTransport swaps the underlying round tripper, used by tests to
// install a mock transport.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// ListShelves returns one page of a user's bookshelves.
func (c *Client) ListShelves(ctx context.Context, userID string, offset, limit int) (*models.ShelvesResponse, error) {
	var out models.ShelvesResponse
	path := fmt.Sprintf("/users/%s/shelves", url.PathEscape(userID))
	if err := c.getJSON(ctx, path, pageQuery(offset, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShelfForms returns one page of form ids on a shelf.
func (c *Client) ListShelfForms(ctx context.Context, shelfID string, offset, limit int) (*models.FormListResponse, error) {
	var out models.FormListResponse
	path := fmt.Sprintf("/shelves/%s/forms", url.PathEscape(shelfID))
	if err := c.getJSON(ctx, path, pageQuery(offset, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForm returns a single form record.
func (c *Client) GetForm(ctx context.Context, formID string) (*models.FormResponse, error) {
	var out models.FormResponse
	path := fmt.Sprintf("/forms/%s", url.PathEscape(formID))
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pageQuery(offset, limit int) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	key := path
	if len(query) > 0 {
		key = path + "?" + query.Encode()
	}

	if c.cache != nil {
		if raw, ok := c.cache.Get(key); ok {
			return json.Unmarshal(raw, out)
		}
	}

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return &APIError{Err: err}
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), StatusText: resp.Status()}
	}

	body := resp.Body()
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if c.cache != nil {
		c.cache.Add(key, body)
	}
	return nil
}
