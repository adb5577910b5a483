package glose

import (
	"context"
	"log/slog"

	"github.com/mhounton/shelf-import/models"
)

// GetForms hydrates form ids into full records. The contract is
// best-effort: each id is fetched concurrently, individual failures are
// dropped, and only the successes are returned, in settle order. An
// empty input yields an empty result with no network calls.
func (c *Client) GetForms(ctx context.Context, ids []string) []models.Form {
	responses := settleAll(ctx, ids, func(ctx context.Context, id string) (*models.FormResponse, error) {
		resp, err := c.GetForm(ctx, id)
		if err != nil {
			slog.Debug("dropping failed form fetch", slog.String("form_id", id), slog.Any("error", err))
		}
		return resp, err
	})

	forms := make([]models.Form, 0, len(responses))
	for _, resp := range responses {
		forms = append(forms, resp.Data)
	}
	return forms
}
