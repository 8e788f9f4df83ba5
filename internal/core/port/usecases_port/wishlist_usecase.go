package usecases_port

import "context"

type WishlistUseCasePort interface {
	Add(ctx context.Context, userID string, productID int) error
	Remove(ctx context.Context, userID string, productID int) error
	// Возвращает срез ID товаров
	List(ctx context.Context, userID string) ([]int, error)
}
