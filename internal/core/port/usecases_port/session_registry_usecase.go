package usecases_port

import (
	"context"
	"storefront-service/internal/core/usecase"

	"github.com/google/uuid"
)

type SessionRegistryPort interface {
	Create(ctx context.Context, userID string) *usecase.StorefrontSession
	Get(id uuid.UUID) (*usecase.StorefrontSession, error)
	Close(id uuid.UUID) error
}
