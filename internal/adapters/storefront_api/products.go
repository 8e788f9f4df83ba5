package storefront_api

import (
	"context"
	"net/http"
	"net/url"
	"storefront-service/internal/contracts"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"strconv"
	"strings"
)

// ListProducts реализует ProductCatalogPort.
func (c *Client) ListProducts(ctx context.Context, req domain.RequestDescriptor) (*domain.ProductPage, error) {
	query := productsQuery(req)
	logger := c.logger(ctx, "ListProducts").WithFields(port.Fields{"query": query.Encode()})

	payload, err := c.call(ctx, logger, http.MethodGet, "/products/", query, nil, contracts.ProductsResponseV1)
	if err != nil {
		return nil, err
	}

	var dto productsResponse
	if err := decode(payload, &dto); err != nil {
		logger.Error("Failed to decode products response", err, nil)
		return nil, err
	}

	page := &domain.ProductPage{
		Results: make([]domain.Product, len(dto.Results)),
		Count:   dto.Count,
	}
	for i, p := range dto.Results {
		page.Results[i] = p.toDomain()
	}
	logger.Debug("Products received", port.Fields{"count": dto.Count, "items_on_page": len(page.Results)})
	return page, nil
}

// productsQuery переводит дескриптор в параметры запроса:
// id одного типа фасета передаются через запятую.
func productsQuery(req domain.RequestDescriptor) url.Values {
	q := url.Values{}
	if req.OrderBy != "" {
		q.Set("ordering", req.OrderBy)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(req.PageSize))
	}

	ids := make(map[domain.FilterType][]string)
	var order []domain.FilterType
	search := strings.TrimSpace(req.Query)

	for _, f := range req.Filters {
		switch f.Type {
		case domain.FilterQuery:
			if search == "" {
				search = strings.TrimSpace(f.Name)
			}
		case domain.FilterPrice:
			if f.Min != nil {
				q.Set("min_price", strconv.FormatFloat(*f.Min, 'f', -1, 64))
			}
			if f.Max != nil {
				q.Set("max_price", strconv.FormatFloat(*f.Max, 'f', -1, 64))
			}
		default:
			if _, seen := ids[f.Type]; !seen {
				order = append(order, f.Type)
			}
			ids[f.Type] = append(ids[f.Type], strconv.Itoa(f.ID))
		}
	}

	for _, t := range order {
		q.Set(string(t), strings.Join(ids[t], ","))
	}
	if search != "" {
		q.Set("search", search)
	}
	return q
}
