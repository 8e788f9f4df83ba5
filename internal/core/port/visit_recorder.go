package port

import (
	"context"
	"storefront-service/internal/core/domain"
)

// VisitRecorderPort - запись аналитики посещений (HTTP или брокер сообщений).
type VisitRecorderPort interface {
	RecordVisit(ctx context.Context, visit domain.Visit) error
}
