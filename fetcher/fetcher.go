// Package fetcher retrieves single third-party HTML pages with
// browser-like headers and classifies the outcome.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mhounton/shelf-import/config"
)

// Kind classifies the outcome of one page fetch.
type Kind int

const (
	KindSuccess Kind = iota
	KindBlocked
	KindNotFound
	KindServerError
	KindClientError
	KindNetworkError
	KindTimeout
)

// Result is the outcome of a single fetch attempt. It is consumed
// immediately by the caller and never persisted.
type Result struct {
	Kind         Kind
	HTML         string
	FinalURL     string
	Status       int
	AuthRequired bool
	Message      string
}

// Fetcher performs one bounded GET per call. The target is an
// uncontrolled third party, so every request carries a hard deadline
// and redirects are followed automatically.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
}

// New builds a page fetcher configured from cfg.
func New(cfg *config.Config) (*Fetcher, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user agent cannot be empty")
	}

	// Every fetch must be independently retryable, so the visited-URL
	// dedup colly does for crawls is disabled.
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(cfg.FetchTimeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.FetchTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{cfg: cfg, collector: collector}, nil
}

// WithTransport swaps the HTTP round tripper, used by tests to install
// a mock transport.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch issues one GET against pageURL and classifies the response.
// The site rejects requests lacking browser-like headers, so every
// request masquerades as a desktop browser navigation.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) Result {
	if err := ctx.Err(); err != nil {
		return classifyTransport(err)
	}

	collector := f.collector.Clone()
	var result Result

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
		r.Headers.Set("Referer", f.cfg.SiteBaseURL+"/")
		r.Headers.Set("Cache-Control", "no-cache")
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Result{
			Kind:     KindSuccess,
			HTML:     string(r.Body),
			FinalURL: r.Request.URL.String(),
			Status:   r.StatusCode,
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		if status != 0 {
			result = classifyStatus(status)
			return
		}
		result = classifyTransport(err)
	})

	if err := collector.Visit(pageURL); err != nil {
		return classifyTransport(err)
	}
	collector.Wait()

	return result
}

func classifyStatus(status int) Result {
	switch {
	case status == http.StatusUnauthorized:
		return Result{Kind: KindBlocked, Status: status, AuthRequired: true}
	case status == http.StatusForbidden:
		return Result{Kind: KindBlocked, Status: status}
	case status == http.StatusNotFound:
		return Result{Kind: KindNotFound, Status: status}
	case status >= http.StatusInternalServerError:
		return Result{Kind: KindServerError, Status: status}
	default:
		return Result{Kind: KindClientError, Status: status}
	}
}

func classifyTransport(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Kind: KindTimeout, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Result{Kind: KindTimeout, Message: err.Error()}
	}

	message := "unknown network error"
	if err != nil {
		message = err.Error()
	}
	return Result{Kind: KindNetworkError, Message: message}
}
