package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mhounton/shelf-import/config"
	"github.com/mhounton/shelf-import/fetcher"
	"github.com/mhounton/shelf-import/glose"
	"github.com/mhounton/shelf-import/models"
)

const (
	testUserID  = "5a8411b53ed02c04187ff02a"
	testShelfID = "aaaaaaaaaaaaaaaaaaaaaaaa"
)

type listCall struct {
	id     string
	offset int
	limit  int
}

type stubCatalog struct {
	listShelves    func(userID string, offset, limit int) (*models.ShelvesResponse, error)
	listShelfForms func(shelfID string, offset, limit int) (*models.FormListResponse, error)
	getForm        func(formID string) (*models.FormResponse, error)

	shelvesCalls []listCall
	formsCalls   []listCall
}

func (s *stubCatalog) ListShelves(_ context.Context, userID string, offset, limit int) (*models.ShelvesResponse, error) {
	s.shelvesCalls = append(s.shelvesCalls, listCall{id: userID, offset: offset, limit: limit})
	if s.listShelves == nil {
		return nil, errors.New("unexpected ListShelves call")
	}
	return s.listShelves(userID, offset, limit)
}

func (s *stubCatalog) ListShelfForms(_ context.Context, shelfID string, offset, limit int) (*models.FormListResponse, error) {
	s.formsCalls = append(s.formsCalls, listCall{id: shelfID, offset: offset, limit: limit})
	if s.listShelfForms == nil {
		return nil, errors.New("unexpected ListShelfForms call")
	}
	return s.listShelfForms(shelfID, offset, limit)
}

func (s *stubCatalog) GetForm(_ context.Context, formID string) (*models.FormResponse, error) {
	if s.getForm == nil {
		return nil, errors.New("unexpected GetForm call")
	}
	return s.getForm(formID)
}

func (s *stubCatalog) GetForms(ctx context.Context, ids []string) []models.Form {
	forms := make([]models.Form, 0, len(ids))
	for _, id := range ids {
		resp, err := s.GetForm(ctx, id)
		if err != nil {
			continue
		}
		forms = append(forms, resp.Data)
	}
	return forms
}

type stubFetcher struct {
	pages map[string]fetcher.Result
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, pageURL string) fetcher.Result {
	s.calls++
	if result, ok := s.pages[pageURL]; ok {
		return result
	}
	return fetcher.Result{Kind: fetcher.KindNotFound, Status: 404}
}

func successPage(html string) fetcher.Result {
	return fetcher.Result{Kind: fetcher.KindSuccess, HTML: html, Status: 200}
}

func newTestImporter(catalog CatalogClient, pages PageFetcher) *Importer {
	return New(config.DefaultConfig(), catalog, pages, NewMetrics())
}

func TestFromURLRejectsForeignDomainWithoutFetching(t *testing.T) {
	pages := &stubFetcher{}
	im := newTestImporter(&stubCatalog{}, pages)

	_, err := im.FromURL(context.Background(), "https://example.com/shelves/aaaaaaaaaaaaaaaaaaaaaaaa")
	var invalid ErrInvalidInput
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if pages.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0 (allowlist check must precede fetch)", pages.calls)
	}
}

func TestFromURLAcceptsSubdomains(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://www.glose.com/shelves/page": successPage(`<a href="/shelves/` + testShelfID + `">x</a>`),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(string, int, int) (*models.FormListResponse, error) {
			return &models.FormListResponse{Data: []string{}}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromURL(context.Background(), "https://www.glose.com/shelves/page")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != KindShelf || result.ShelfID != testShelfID {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFromURLMalformedInput(t *testing.T) {
	im := newTestImporter(&stubCatalog{}, &stubFetcher{})
	for _, input := range []string{"://nope", "ftp://glose.com/x", "glose.com/no-scheme"} {
		if _, err := im.FromURL(context.Background(), input); ReasonLabel(err) != "invalid_input" {
			t.Fatalf("input %q: expected invalid_input, got %v", input, err)
		}
	}
}

func TestFromURLBlockedStatus(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/shelf": {Kind: fetcher.KindBlocked, Status: 403},
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	_, err := im.FromURL(context.Background(), "https://glose.com/shelf")
	var blocked ErrBlocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if blocked.AuthRequired {
		t.Fatalf("403 must map to access denied, not auth required")
	}
}

func TestFromURLBlockedContentDespite200(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/shelf": successPage(`<html><body>Please sign in to continue</body></html>`),
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	if _, err := im.FromURL(context.Background(), "https://glose.com/shelf"); ReasonLabel(err) != "blocked" {
		t.Fatalf("expected blocked, got %v", err)
	}
}

func TestFromUsernameResolvesUserID(t *testing.T) {
	profileHTML := `<script>{"user": {"_id": "` + testUserID + `"}}</script>`
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc/books/all": successPage(profileHTML),
	}}
	shelves := []models.Shelf{
		{ID: testShelfID, Name: "Reading now", FormsCount: 3},
		{ID: "bbbbbbbbbbbbbbbbbbbbbbbb", Name: "Classics"},
	}
	catalog := &stubCatalog{
		listShelves: func(userID string, offset, limit int) (*models.ShelvesResponse, error) {
			return &models.ShelvesResponse{Data: shelves}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromUsername(context.Background(), "marc")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != KindUser || result.UserID != testUserID {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Shelves) != 2 || result.Shelves[0].Name != "Reading now" {
		t.Fatalf("shelves = %+v, want stub shelves verbatim", result.Shelves)
	}

	if len(catalog.shelvesCalls) != 1 {
		t.Fatalf("ListShelves calls = %d, want 1", len(catalog.shelvesCalls))
	}
	call := catalog.shelvesCalls[0]
	if call.id != testUserID || call.offset != 0 || call.limit != 100 {
		t.Fatalf("ListShelves called with %+v, want (%s, 0, 100)", call, testUserID)
	}
}

func TestFromUsernameFallbackValidatesCandidates(t *testing.T) {
	profileHTML := `
<a href="/shelves/aaaaaaaaaaaaaaaaaaaaaaaa">shelf</a>
<script>var junk = "deadbeefdeadbeefdeadbeef";</script>`
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc/books/all": successPage(profileHTML),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(shelfID string, offset, limit int) (*models.FormListResponse, error) {
			if shelfID == testShelfID {
				return &models.FormListResponse{Data: []string{"111111111111111111111111"}}, nil
			}
			return nil, &glose.APIError{Status: 404, StatusText: "404 Not Found"}
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromUsername(context.Background(), "marc")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != KindUser || result.UserID != "" {
		t.Fatalf("fallback result must have no user id: %+v", result)
	}
	if len(result.Shelves) != 1 {
		t.Fatalf("shelves = %d, want 1 validated candidate", len(result.Shelves))
	}
	shelf := result.Shelves[0]
	if shelf.ID != testShelfID || shelf.Name != "Shelf aaaaaa" || shelf.FormsCount != 1 {
		t.Fatalf("unexpected placeholder shelf %+v", shelf)
	}

	// Every candidate gets one validation probe with offset 0, limit 1.
	if len(catalog.formsCalls) != 2 {
		t.Fatalf("validation calls = %d, want 2", len(catalog.formsCalls))
	}
	for _, call := range catalog.formsCalls {
		if call.offset != 0 || call.limit != 1 {
			t.Fatalf("validation call %+v, want offset 0 limit 1", call)
		}
	}
}

func TestFromUsernameFallbackRejectsNullDataListing(t *testing.T) {
	profileHTML := `
<a href="/shelves/aaaaaaaaaaaaaaaaaaaaaaaa">real</a>
<a href="/shelves/bbbbbbbbbbbbbbbbbbbbbbbb">impostor</a>`
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc/books/all": successPage(profileHTML),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(shelfID string, offset, limit int) (*models.FormListResponse, error) {
			if shelfID == testShelfID {
				return &models.FormListResponse{Data: []string{}}, nil
			}
			// 200 OK but "data": null; not a shelf.
			return &models.FormListResponse{}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromUsername(context.Background(), "marc")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Shelves) != 1 || result.Shelves[0].ID != testShelfID {
		t.Fatalf("shelves = %+v, want only the candidate with a data array", result.Shelves)
	}
}

func TestFromUsernameFallbackCap(t *testing.T) {
	profileHTML := `
<a href="/shelves/aaaaaaaaaaaaaaaaaaaaaaaa">a</a>
<a href="/shelves/bbbbbbbbbbbbbbbbbbbbbbbb">b</a>
<a href="/shelves/cccccccccccccccccccccccc">c</a>`
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc/books/all": successPage(profileHTML),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(string, int, int) (*models.FormListResponse, error) {
			return &models.FormListResponse{Data: []string{}}, nil
		},
	}

	cfg := config.DefaultConfig()
	cfg.MaxShelfCandidates = 2
	im := New(cfg, catalog, pages, NewMetrics())

	result, err := im.FromUsername(context.Background(), "marc")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Shelves) != 2 || len(catalog.formsCalls) != 2 {
		t.Fatalf("cap not honoured: shelves=%d calls=%d", len(result.Shelves), len(catalog.formsCalls))
	}
}

func TestFromUsernameNoShelvesDetected(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc/books/all": successPage(`<html><body>bare page</body></html>`),
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	if _, err := im.FromUsername(context.Background(), "marc"); ReasonLabel(err) != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestFromUsernameEmpty(t *testing.T) {
	pages := &stubFetcher{}
	im := newTestImporter(&stubCatalog{}, pages)

	if _, err := im.FromUsername(context.Background(), "   "); ReasonLabel(err) != "invalid_input" {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if pages.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0", pages.calls)
	}
}

func TestFromURLShelfImportDropsFailedForms(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/shelves/page": successPage(`<section data-shelf-id="` + testShelfID + `"></section>`),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(shelfID string, offset, limit int) (*models.FormListResponse, error) {
			return &models.FormListResponse{Data: []string{
				"111111111111111111111111",
				"222222222222222222222222",
				"333333333333333333333333",
			}}, nil
		},
		getForm: func(formID string) (*models.FormResponse, error) {
			if formID == "222222222222222222222222" {
				return nil, &glose.APIError{Status: 500, StatusText: "500 Internal Server Error"}
			}
			return &models.FormResponse{Data: models.Form{ID: formID, Title: "Book " + formID[:2]}}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromURL(context.Background(), "https://glose.com/shelves/page")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != KindShelf || result.ShelfID != testShelfID {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Books) != 2 {
		t.Fatalf("books = %d, want 2 (one fetch failed)", len(result.Books))
	}
	if result.Count() != 2 {
		t.Fatalf("count = %d, want 2", result.Count())
	}
}

func TestFromURLShelfImportAllFormsFailing(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/shelves/page": successPage(`<section data-shelf-id="` + testShelfID + `"></section>`),
	}}
	catalog := &stubCatalog{
		listShelfForms: func(string, int, int) (*models.FormListResponse, error) {
			return &models.FormListResponse{Data: []string{"111111111111111111111111"}}, nil
		},
		getForm: func(string) (*models.FormResponse, error) {
			return nil, &glose.APIError{Status: 500, StatusText: "500 Internal Server Error"}
		},
	}
	im := newTestImporter(catalog, pages)

	_, err := im.FromURL(context.Background(), "https://glose.com/shelves/page")
	var partial ErrPartial
	if !errors.As(err, &partial) {
		t.Fatalf("expected ErrPartial, got %v", err)
	}
	if partial.Failed != 1 || partial.Succeeded != 0 {
		t.Fatalf("unexpected partial counts %+v", partial)
	}
}

func TestFromURLSingleBookFallback(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/book/the-trial": successPage(`<div data-form-id="111111111111111111111111"></div>`),
	}}
	catalog := &stubCatalog{
		getForm: func(formID string) (*models.FormResponse, error) {
			return &models.FormResponse{Data: models.Form{ID: formID, Title: "The Trial"}}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromURL(context.Background(), "https://glose.com/book/the-trial")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != KindSingleBook || result.FormID != "111111111111111111111111" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Books) != 1 || result.Books[0].Title != "The Trial" {
		t.Fatalf("books = %+v, want The Trial", result.Books)
	}
}

func TestFromURLNoIdentifierHints(t *testing.T) {
	bare := successPage(`<html><body>nothing to see</body></html>`)
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/book/mystery": bare,
		"https://glose.com/somewhere":    bare,
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	_, err := im.FromURL(context.Background(), "https://glose.com/book/mystery")
	var noID ErrNoIdentifier
	if !errors.As(err, &noID) {
		t.Fatalf("expected ErrNoIdentifier, got %v", err)
	}
	if !strings.Contains(noID.Hint, "book page") {
		t.Fatalf("book URLs must get the book-page hint, got %q", noID.Hint)
	}

	_, err = im.FromURL(context.Background(), "https://glose.com/somewhere")
	if !errors.As(err, &noID) {
		t.Fatalf("expected ErrNoIdentifier, got %v", err)
	}
	if strings.Contains(noID.Hint, "book page") {
		t.Fatalf("generic URLs must get the generic hint, got %q", noID.Hint)
	}
}

func TestFromURLProfileShapedPageUsesProfileFlow(t *testing.T) {
	profileHTML := `<a href="/users/` + testUserID + `">me</a>` +
		`<a href="/shelves/aaaaaaaaaaaaaaaaaaaaaaaa">shelf</a>`
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/u/marc": successPage(profileHTML),
	}}
	catalog := &stubCatalog{
		listShelves: func(string, int, int) (*models.ShelvesResponse, error) {
			return &models.ShelvesResponse{Data: []models.Shelf{{ID: testShelfID, Name: "Reading"}}}, nil
		},
	}
	im := newTestImporter(catalog, pages)

	result, err := im.FromURL(context.Background(), "https://glose.com/u/marc")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	// A /u/ page with an explicit user id resolves through the API,
	// never through the shelf-link fallback.
	if result.Kind != KindUser || result.UserID != testUserID {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(catalog.formsCalls) != 0 {
		t.Fatalf("no candidate validation expected, got %d calls", len(catalog.formsCalls))
	}
}

func TestFromURLUpstreamServerError(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/shelf": {Kind: fetcher.KindServerError, Status: 503},
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	_, err := im.FromURL(context.Background(), "https://glose.com/shelf")
	var upstream ErrUpstream
	if !errors.As(err, &upstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if upstream.Status != 503 {
		t.Fatalf("status = %d, want 503", upstream.Status)
	}
}

func TestFromURLTimeout(t *testing.T) {
	pages := &stubFetcher{pages: map[string]fetcher.Result{
		"https://glose.com/slow": {Kind: fetcher.KindTimeout, Message: "context deadline exceeded"},
	}}
	im := newTestImporter(&stubCatalog{}, pages)

	if _, err := im.FromURL(context.Background(), "https://glose.com/slow"); ReasonLabel(err) != "timeout" {
		t.Fatalf("expected timeout, got %v", err)
	}
}
