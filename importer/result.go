package importer

import "github.com/mhounton/shelf-import/models"

// ResultKind tags what an import resolved to.
type ResultKind int

const (
	KindEmpty ResultKind = iota
	KindUser
	KindShelf
	KindSingleBook
)

// Result is the normalized outcome of one import request. It is built
// once, returned to the caller, and never mutated afterward.
type Result struct {
	Kind ResultKind

	// UserID is empty when shelves were recovered from raw page tokens
	// and no explicit user id was found.
	UserID  string
	Shelves []models.Shelf

	ShelfID string
	FormID  string
	Books   []models.Form
}

// Count returns the number of top-level items the import produced.
func (r *Result) Count() int {
	switch r.Kind {
	case KindUser:
		return len(r.Shelves)
	case KindShelf, KindSingleBook:
		return len(r.Books)
	default:
		return 0
	}
}
