package storefront_api

import (
	"context"
	"fmt"
	"net/http"
	"storefront-service/internal/contracts"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
)

func (c *Client) ListCategories(ctx context.Context) ([]domain.FacetItem, error) {
	return c.listFacets(ctx, "ListCategories", "/categories/")
}

func (c *Client) ListLocations(ctx context.Context) ([]domain.FacetItem, error) {
	return c.listFacets(ctx, "ListLocations", "/locations/")
}

func (c *Client) ListSubCategories(ctx context.Context, categoryID int) ([]domain.FacetItem, error) {
	return c.listFacets(ctx, "ListSubCategories", fmt.Sprintf("/categories/%d/subcategories/", categoryID))
}

func (c *Client) ListSubLocations(ctx context.Context, locationID int) ([]domain.FacetItem, error) {
	return c.listFacets(ctx, "ListSubLocations", fmt.Sprintf("/locations/%d/sublocations/", locationID))
}

// listFacets принимает как голый массив, так и пагинированный {"results": [...]}.
func (c *Client) listFacets(ctx context.Context, method, path string) ([]domain.FacetItem, error) {
	logger := c.logger(ctx, method)

	payload, err := c.call(ctx, logger, http.MethodGet, path, nil, nil, contracts.FacetsResponseV1)
	if err != nil {
		return nil, err
	}

	var dtos []facetDTO
	if isJSONArray(payload) {
		err = decode(payload, &dtos)
	} else {
		var envelope struct {
			Results []facetDTO `json:"results"`
		}
		err = decode(payload, &envelope)
		dtos = envelope.Results
	}
	if err != nil {
		logger.Error("Failed to decode facets response", err, nil)
		return nil, err
	}

	items := make([]domain.FacetItem, len(dtos))
	for i, dto := range dtos {
		items[i] = dto.toDomain()
	}
	logger.Debug("Facets received", port.Fields{"count": len(items)})
	return items, nil
}
