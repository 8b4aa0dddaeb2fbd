package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gamex/gamex-cli/internal/debug"
)

// Products lists the denominations of one game category. The endpoint is
// public, so no session is needed.
func (s CatalogService) Products(ctx context.Context, categoryID int) (*ProductResponse, error) {
	var result ProductResponse
	err := s.do(ctx, request{
		op:     "catalog.products",
		method: http.MethodGet,
		url:    s.endpoints().CategoryProducts(categoryID),
	}, &result)
	if err != nil {
		return nil, err
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("parsed products", "category_id", categoryID, "count", len(result.Items()))
	}
	return &result, nil
}
