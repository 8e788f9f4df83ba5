package port

import (
	"context"
	"storefront-service/internal/core/domain"
)

// ProductCatalogPort - контракт клиента листинга товаров.
type ProductCatalogPort interface {
	ListProducts(ctx context.Context, req domain.RequestDescriptor) (*domain.ProductPage, error)
}
