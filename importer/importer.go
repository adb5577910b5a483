// Package importer resolves arbitrary Glose URLs or usernames into
// normalized shelf and book data, combining page scraping with direct
// catalog API calls.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mhounton/shelf-import/config"
	"github.com/mhounton/shelf-import/extract"
	"github.com/mhounton/shelf-import/fetcher"
	"github.com/mhounton/shelf-import/glose"
	"github.com/mhounton/shelf-import/models"
)

// CatalogClient is the slice of the catalog API the orchestrator needs.
type CatalogClient interface {
	ListShelves(ctx context.Context, userID string, offset, limit int) (*models.ShelvesResponse, error)
	ListShelfForms(ctx context.Context, shelfID string, offset, limit int) (*models.FormListResponse, error)
	GetForm(ctx context.Context, formID string) (*models.FormResponse, error)
	GetForms(ctx context.Context, ids []string) []models.Form
}

// PageFetcher retrieves one HTML page per call.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) fetcher.Result
}

// Importer orchestrates imports. Each run is stateless relative to
// other concurrent runs; failures are independent and retryable.
type Importer struct {
	cfg     *config.Config
	catalog CatalogClient
	pages   PageFetcher
	metrics *Metrics
}

// New builds an importer from its collaborators. metrics may be nil.
func New(cfg *config.Config, catalog CatalogClient, pages PageFetcher, metrics *Metrics) *Importer {
	return &Importer{cfg: cfg, catalog: catalog, pages: pages, metrics: metrics}
}

// FromUsername imports every shelf of a public profile identified by a
// bare username.
func (im *Importer) FromUsername(ctx context.Context, username string) (*Result, error) {
	start := time.Now()
	result, err := im.fromUsername(ctx, username)
	im.observe(start, result, err)
	return result, err
}

// FromURL imports whatever a public page on the allowed domain
// identifies: a profile's shelves, a shelf's books, or a single book.
func (im *Importer) FromURL(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()
	result, err := im.fromURL(ctx, rawURL)
	im.observe(start, result, err)
	return result, err
}

func (im *Importer) fromUsername(ctx context.Context, username string) (*Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidInput{Reason: "username cannot be empty"}
	}

	profileURL := fmt.Sprintf("%s/u/%s/books/all", im.cfg.SiteBaseURL, url.PathEscape(username))
	slog.Debug("importing profile", slog.String("username", username), slog.String("url", profileURL))

	html, err := im.fetchPage(ctx, profileURL)
	if err != nil {
		return nil, err
	}
	return im.importProfile(ctx, html)
}

func (im *Importer) fromURL(ctx context.Context, rawURL string) (*Result, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrInvalidInput{Reason: "malformed URL"}
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, ErrInvalidInput{Reason: "URL must use http or https"}
	}
	// The allowlist check precedes any outbound call.
	if !im.allowedHost(target.Hostname()) {
		return nil, ErrInvalidInput{Reason: fmt.Sprintf("only %s URLs are supported", im.cfg.AllowedDomain)}
	}

	html, err := im.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if isProfilePath(target.Path) {
		return im.importProfile(ctx, html)
	}

	if shelfID, ok := extract.ShelfID(html); ok {
		return im.importShelf(ctx, shelfID)
	}

	if formID, ok := extract.FormID(html); ok {
		form, err := im.catalog.GetForm(ctx, formID)
		if err != nil {
			return nil, mapCatalogError(err)
		}
		return &Result{Kind: KindSingleBook, FormID: formID, Books: []models.Form{form.Data}}, nil
	}

	hint := "the page exposes no public shelf identifier; make sure the shelf is public and try again"
	if strings.Contains(target.Path, "/book/") {
		hint = "this looks like a book page; to import the shelf containing it, provide the public shelf URL instead"
	}
	return nil, ErrNoIdentifier{Hint: hint}
}

// fetchPage retrieves one page and gates on the blocked-content
// detector before handing HTML to extraction.
func (im *Importer) fetchPage(ctx context.Context, pageURL string) (string, error) {
	result := im.pages.Fetch(ctx, pageURL)
	switch result.Kind {
	case fetcher.KindSuccess:
	case fetcher.KindBlocked:
		return "", ErrBlocked{AuthRequired: result.AuthRequired}
	case fetcher.KindNotFound:
		return "", ErrNotFound{Reason: "page not found, check the URL"}
	case fetcher.KindServerError, fetcher.KindClientError:
		return "", ErrUpstream{Status: result.Status}
	case fetcher.KindTimeout:
		return "", ErrTimeout{Err: errors.New(result.Message)}
	default:
		return "", ErrNetwork{Err: errors.New(result.Message)}
	}

	if fetcher.IsBlockedContent(result.HTML) {
		return "", ErrBlocked{}
	}
	return result.HTML, nil
}

// importProfile resolves a fetched profile page into the user's
// shelves, falling back to raw token scanning when no explicit user id
// is present.
func (im *Importer) importProfile(ctx context.Context, html string) (*Result, error) {
	if userID, ok := extract.UserID(html); ok {
		shelves, err := im.catalog.ListShelves(ctx, userID, 0, im.cfg.ProfileShelvesLimit)
		if err != nil {
			return nil, mapCatalogError(err)
		}
		return &Result{Kind: KindUser, UserID: userID, Shelves: shelves.Data}, nil
	}

	candidates := extract.ShelfCandidates(html)
	if limit := im.cfg.MaxShelfCandidates; limit > 0 && len(candidates) > limit {
		slog.Warn("capping shelf candidates",
			slog.Int("found", len(candidates)),
			slog.Int("limit", limit),
		)
		candidates = candidates[:limit]
	}

	// Each candidate costs one live API round trip, so validation is
	// deliberately sequential rather than a concurrent burst against
	// the catalog.
	validated := make([]models.Shelf, 0, len(candidates))
	for _, id := range candidates {
		if !extract.IsCatalogID(id) {
			continue
		}
		// A candidate counts as a real shelf only when the listing
		// carries a data array; "data": null means the resource is not
		// a shelf even if the call succeeded.
		forms, err := im.catalog.ListShelfForms(ctx, id, 0, 1)
		if err != nil || forms.Data == nil {
			im.metrics.IncCandidateCheck("rejected")
			continue
		}
		im.metrics.IncCandidateCheck("accepted")
		validated = append(validated, models.Shelf{
			ID:         id,
			Name:       "Shelf " + id[:6],
			FormsCount: len(forms.Data),
		})
	}

	if len(validated) == 0 {
		return nil, ErrNotFound{Reason: "no shelves detected on this profile"}
	}
	return &Result{Kind: KindUser, Shelves: validated}, nil
}

func (im *Importer) importShelf(ctx context.Context, shelfID string) (*Result, error) {
	list, err := im.catalog.ListShelfForms(ctx, shelfID, 0, im.cfg.ShelfFormsLimit)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	books := im.catalog.GetForms(ctx, list.Data)
	if len(list.Data) > 0 && len(books) == 0 {
		return nil, ErrPartial{Succeeded: 0, Failed: len(list.Data)}
	}
	return &Result{Kind: KindShelf, ShelfID: shelfID, Books: books}, nil
}

func (im *Importer) allowedHost(host string) bool {
	host = strings.ToLower(host)
	domain := strings.ToLower(im.cfg.AllowedDomain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func isProfilePath(path string) bool {
	return path == "/u" || strings.HasPrefix(path, "/u/")
}

func mapCatalogError(err error) error {
	var apiErr *glose.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401:
			return ErrBlocked{AuthRequired: true}
		case apiErr.Status == 403:
			return ErrBlocked{}
		case apiErr.Status == 404:
			return ErrNotFound{Reason: "catalog resource not found"}
		case apiErr.Status != 0:
			return ErrUpstream{Status: apiErr.Status}
		}
		return ErrNetwork{Err: apiErr}
	}
	return ErrUpstream{Err: err}
}

func (im *Importer) observe(start time.Time, result *Result, err error) {
	im.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		im.metrics.IncImport(ReasonLabel(err))
		slog.Debug("import failed", slog.String("reason", ReasonLabel(err)), slog.Any("error", err))
		return
	}
	im.metrics.IncImport(outcomeLabel(result))
	if result.Kind == KindShelf || result.Kind == KindSingleBook {
		im.metrics.AddBooks(len(result.Books))
	}
}

func outcomeLabel(result *Result) string {
	switch result.Kind {
	case KindUser:
		return "user"
	case KindShelf:
		return "shelf"
	case KindSingleBook:
		return "single_book"
	default:
		return "empty"
	}
}
