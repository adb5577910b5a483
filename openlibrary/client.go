// Package openlibrary is a thin client for the public Open Library
// search and works API, used for discovery independent of the Glose
// catalog.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	coversBaseURL  = "https://covers.openlibrary.org"
)

// Client issues requests against openlibrary.org.
type Client struct {
	http *resty.Client
}

// NewClient builds a client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: r}
}

// SetTransport swaps the underlying round tripper, used by tests.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// Doc is one search result document.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	CoverID          int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
}

// SearchResponse matches search.json.
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// Search runs a paged full-text query against the book index.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*SearchResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"page":  strconv.Itoa(page),
			"limit": strconv.Itoa(limit),
		}).
		Get("/search.json")
	if err != nil {
		return nil, fmt.Errorf("openlibrary search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openlibrary search failed: %s", resp.Status())
	}

	// Decoded by hand rather than via SetResult: the upstream does not
	// always label responses as JSON.
	var out SearchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(out.Docs) > limit {
		out.Docs = out.Docs[:limit]
	}
	return &out, nil
}

// Description normalizes the works API's description field, which is
// served either as a bare string or as {"type", "value"}.
type Description string

func (d *Description) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*d = Description(plain)
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decode description: %w", err)
	}
	*d = Description(wrapped.Value)
	return nil
}

// Work matches /works/{id}.json.
type Work struct {
	Key              string      `json:"key"`
	Title            string      `json:"title"`
	Description      Description `json:"description"`
	Subjects         []string    `json:"subjects"`
	Covers           []int       `json:"covers"`
	FirstPublishDate string      `json:"first_publish_date"`
}

// GetWork fetches one work record by its id, e.g. "OL45883W".
func (c *Client) GetWork(ctx context.Context, id string) (*Work, error) {
	id = strings.TrimPrefix(id, "/works/")

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/works/%s.json", id))
	if err != nil {
		return nil, fmt.Errorf("openlibrary work: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openlibrary work fetch failed: %s", resp.Status())
	}

	var out Work
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode work response: %w", err)
	}
	return &out, nil
}

// Edition is one entry of a work's editions listing.
type Edition struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	ISBN10        []string `json:"isbn_10"`
	ISBN13        []string `json:"isbn_13"`
	CoverID       int      `json:"cover_i"`
}

// EditionsPage matches /works/{id}/editions.json.
type EditionsPage struct {
	Entries []Edition `json:"entries"`
	Size    int       `json:"size"`
}

// GetWorkEditions fetches one page of a work's editions.
func (c *Client) GetWorkEditions(ctx context.Context, id string, page, limit int) (*EditionsPage, error) {
	id = strings.TrimPrefix(id, "/works/")
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		Get(fmt.Sprintf("/works/%s/editions.json", id))
	if err != nil {
		return nil, fmt.Errorf("openlibrary editions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openlibrary editions fetch failed: %s", resp.Status())
	}

	var out EditionsPage
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode editions response: %w", err)
	}
	return &out, nil
}

// CoverURL returns the cover image URL for a cover id, or empty when
// no cover is known. Size is S, M, or L.
func CoverURL(coverID int, size string) string {
	if coverID == 0 {
		return ""
	}
	switch size {
	case "S", "M", "L":
	default:
		size = "M"
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", coversBaseURL, coverID, size)
}
