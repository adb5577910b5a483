package glose

import (
	"context"
	"strings"

	"github.com/mhounton/shelf-import/models"
)

// SearchShelfForms lists one page of a shelf, hydrates the records, and
// keeps those whose title or author matches query case-insensitively.
func (c *Client) SearchShelfForms(ctx context.Context, shelfID, query string, offset, limit int) ([]models.Form, error) {
	list, err := c.ListShelfForms(ctx, shelfID, offset, limit)
	if err != nil {
		return nil, err
	}

	forms := c.GetForms(ctx, list.Data)
	needle := strings.ToLower(query)

	matched := make([]models.Form, 0, len(forms))
	for _, form := range forms {
		if matchesForm(form, needle) {
			matched = append(matched, form)
		}
	}
	return matched, nil
}

func matchesForm(form models.Form, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(form.Title), needle) {
		return true
	}
	for _, author := range form.Authors {
		if strings.Contains(strings.ToLower(author.Name), needle) {
			return true
		}
	}
	return false
}
