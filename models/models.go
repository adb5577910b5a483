// Package models defines the wire shapes of the Glose catalog API.
package models

// Author is a single credited author on a form.
type Author struct {
	Name string `json:"name"`
}

// Price is the optional retail price attached to a form.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Form is Glose's term for a book record.
type Form struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []Author `json:"authors,omitempty"`
	Cover         string   `json:"cover,omitempty"`
	Price         *Price   `json:"price,omitempty"`
	AverageRating float64  `json:"averageRating,omitempty"`
	RatingsCount  int      `json:"ratingsCount,omitempty"`
	Description   string   `json:"description,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
}

// Shelf is a bookshelf summary. Name and Description are placeholders
// when the shelf was recovered from raw page tokens instead of the API.
type Shelf struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FormsCount  int    `json:"formsCount,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Metadata is the paging envelope returned by list endpoints.
type Metadata struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ShelvesResponse is the body of GET /users/{id}/shelves.
type ShelvesResponse struct {
	Data     []Shelf  `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// FormListResponse is the body of GET /shelves/{id}/forms. Data holds
// form ids, not full records.
type FormListResponse struct {
	Data     []string `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// FormResponse is the body of GET /forms/{id}.
type FormResponse struct {
	Data Form `json:"data"`
}
