package usecases_port

import "context"

type CatalogBootstrapUseCasePort interface {
	Execute(ctx context.Context) error
}
