package port

import (
	"context"
	"storefront-service/internal/core/domain"
)

// FacetCatalogPort - справочники фасетов (деревья категорий и локаций).
type FacetCatalogPort interface {
	ListCategories(ctx context.Context) ([]domain.FacetItem, error)
	ListLocations(ctx context.Context) ([]domain.FacetItem, error)
	ListSubCategories(ctx context.Context, categoryID int) ([]domain.FacetItem, error)
	ListSubLocations(ctx context.Context, locationID int) ([]domain.FacetItem, error)
}
