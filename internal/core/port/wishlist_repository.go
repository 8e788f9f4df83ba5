package port

import (
	"context"
	"storefront-service/internal/core/domain"
)

// WishlistRepositoryPort - контракт для адаптера, работающего с локальной БД списка желаний.
type WishlistRepositoryPort interface {
	Add(ctx context.Context, userID string, productID int) error
	Remove(ctx context.Context, userID string, productID int) error
	FindByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}
