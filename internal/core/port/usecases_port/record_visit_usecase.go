package usecases_port

import "context"

type RecordVisitUseCasePort interface {
	// Не блокирует: отправка идет в фоне
	Execute(ctx context.Context, itemID int, itemType string)
}
