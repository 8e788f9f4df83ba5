package usecase

import (
	"context"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
)

// WishlistUseCase - список желаний пользователя. Без репозитория все операции
// возвращают domain.ErrWishlistDisabled.
type WishlistUseCase struct {
	repo port.WishlistRepositoryPort
}

func NewWishlistUseCase(repo port.WishlistRepositoryPort) *WishlistUseCase {
	return &WishlistUseCase{repo: repo}
}

func (uc *WishlistUseCase) Add(ctx context.Context, userID string, productID int) error {
	if uc.repo == nil {
		return domain.ErrWishlistDisabled
	}
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "AddToWishlist",
		"user_id":    userID,
		"product_id": productID,
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.repo.Add(ctx, userID, productID); err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}

func (uc *WishlistUseCase) Remove(ctx context.Context, userID string, productID int) error {
	if uc.repo == nil {
		return domain.ErrWishlistDisabled
	}
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "RemoveFromWishlist",
		"user_id":    userID,
		"product_id": productID,
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.repo.Remove(ctx, userID, productID); err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}

// List возвращает id товаров в порядке добавления.
func (uc *WishlistUseCase) List(ctx context.Context, userID string) ([]int, error) {
	if uc.repo == nil {
		return nil, domain.ErrWishlistDisabled
	}
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetWishlist",
		"user_id":  userID,
	})

	items, err := uc.repo.FindByUser(ctx, userID)
	if err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return nil, err
	}

	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(ids)})
	return ids, nil
}
