package usecase

import (
	"context"
	"fmt"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"

	"golang.org/x/sync/errgroup"
)

// ReferenceSink получает загруженные справочники верхнего уровня.
type ReferenceSink interface {
	SetReferences(categories, locations []domain.FacetItem)
}

// CatalogBootstrapUseCase параллельно загружает категории и локации.
type CatalogBootstrapUseCase struct {
	facets port.FacetCatalogPort
	sink   ReferenceSink
}

func NewCatalogBootstrapUseCase(facets port.FacetCatalogPort, sink ReferenceSink) *CatalogBootstrapUseCase {
	return &CatalogBootstrapUseCase{facets: facets, sink: sink}
}

func (uc *CatalogBootstrapUseCase) Execute(ctx context.Context) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "CatalogBootstrap"})
	ucLogger.Info("Use case started", nil)

	var categories, locations []domain.FacetItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := uc.facets.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		categories = items
		return nil
	})
	g.Go(func() error {
		items, err := uc.facets.ListLocations(gctx)
		if err != nil {
			return fmt.Errorf("failed to load locations: %w", err)
		}
		locations = items
		return nil
	})
	if err := g.Wait(); err != nil {
		ucLogger.Error("Failed to load reference lists", err, nil)
		return err
	}

	uc.sink.SetReferences(categories, locations)
	ucLogger.Info("Use case finished successfully", port.Fields{
		"categories": len(categories),
		"locations":  len(locations),
	})
	return nil
}
