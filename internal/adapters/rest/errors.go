package rest

import (
	"errors"
	"net/http"
	"storefront-service/internal/core/domain"
)

// statusForError сопоставляет доменную ошибку HTTP-статусу.
// fallback используется для всего остального (ошибки удаленного API, БД).
func statusForError(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFilter), errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrWishlistDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return fallback
}
