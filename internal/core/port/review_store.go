package port

import (
	"context"
	"storefront-service/internal/core/domain"
	"time"
)

// ReviewStorePort - удаленное хранилище отзывов.
type ReviewStorePort interface {
	// ListReviews возвращает коллекцию, уже нормализованную из любой из трех форм ответа.
	ListReviews(ctx context.Context) (*domain.ReviewCollection, error)
	SetReviewApproval(ctx context.Context, reviewID int, status domain.ReviewStatus) error
	DeleteReview(ctx context.Context, reviewID int) error
	// AddAdminResponse возвращает дату ответа, если сервер её прислал.
	AddAdminResponse(ctx context.Context, reviewID int, text string) (*time.Time, error)
}
