package domain

import "errors"

var (
	// ErrMalformedResponse - ответ удаленного API не соответствует ожидаемой форме.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrMutationInFlight - по этому id уже выполняется такая же операция.
	ErrMutationInFlight = errors.New("mutation already in flight")
	ErrSessionNotFound  = errors.New("session not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrInvalidFilter    = errors.New("invalid filter")
	// ErrWishlistDisabled - хранилище списка желаний не сконфигурировано.
	ErrWishlistDisabled = errors.New("wishlist storage is disabled")
)

// ErrInvalidStatus - недопустимый статус модерации.
var ErrInvalidStatus = errors.New("invalid review status")
