package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mhounton/shelf-import/importer"
	"github.com/mhounton/shelf-import/openlibrary"
)

type importService interface {
	FromURL(ctx context.Context, rawURL string) (*importer.Result, error)
	FromUsername(ctx context.Context, username string) (*importer.Result, error)
}

type workIndex interface {
	Search(ctx context.Context, query string, page, limit int) (*openlibrary.SearchResponse, error)
	GetWork(ctx context.Context, id string) (*openlibrary.Work, error)
}

type server struct {
	imports importService
	library workIndex
}

func (s *server) register(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/import", s.handleImport)
	api.POST("/import/all", s.handleImportAll)
	api.GET("/openlibrary/search", s.handleSearch)
	api.GET("/openlibrary/work/:id", s.handleWork)
}

func (s *server) handleImport(c *gin.Context) {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	result, err := s.imports.FromURL(c.Request.Context(), body.URL)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resultBody(result))
}

func (s *server) handleImportAll(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username"})
		return
	}

	result, err := s.imports.FromUsername(c.Request.Context(), body.Username)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resultBody(result))
}

func (s *server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	resp, err := s.library.Search(c.Request.Context(), query, page, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleWork(c *gin.Context) {
	work, err := s.library.GetWork(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, work)
}

// resultBody mirrors the response shapes the web client consumes.
func resultBody(result *importer.Result) gin.H {
	switch result.Kind {
	case importer.KindUser:
		body := gin.H{
			"type":    "user",
			"shelves": result.Shelves,
			"count":   result.Count(),
		}
		if result.UserID != "" {
			body["userId"] = result.UserID
		} else {
			body["userId"] = nil
		}
		return body
	case importer.KindShelf:
		return gin.H{
			"shelfId": result.ShelfID,
			"books":   result.Books,
			"count":   result.Count(),
		}
	case importer.KindSingleBook:
		return gin.H{
			"shelfId":      nil,
			"singleFormId": result.FormID,
			"books":        result.Books,
			"count":        result.Count(),
		}
	default:
		return gin.H{"count": 0}
	}
}

func errorStatus(err error) int {
	var invalid importer.ErrInvalidInput
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	var noID importer.ErrNoIdentifier
	if errors.As(err, &noID) {
		return http.StatusBadRequest
	}
	var blocked importer.ErrBlocked
	if errors.As(err, &blocked) {
		if blocked.AuthRequired {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	}
	var notFound importer.ErrNotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	var timeout importer.ErrTimeout
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout
	}
	var upstream importer.ErrUpstream
	if errors.As(err, &upstream) {
		if upstream.Status >= 400 && upstream.Status < 500 {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
