package storefront_api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"storefront-service/internal/contracts"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"time"
)

// ListReviews загружает всю коллекцию отзывов. Поддерживаются три формы ответа:
// голый массив, {"results": [...], "count": N} и {"data": [...]}.
func (c *Client) ListReviews(ctx context.Context) (*domain.ReviewCollection, error) {
	logger := c.logger(ctx, "ListReviews")

	payload, err := c.call(ctx, logger, http.MethodGet, "/reviews/", nil, nil, contracts.ReviewsResponseV1)
	if err != nil {
		return nil, err
	}

	collection, err := normalizeReviews(payload)
	if err != nil {
		logger.Error("Failed to decode reviews response", err, nil)
		return nil, err
	}
	logger.Debug("Reviews received", port.Fields{"count": collection.Count})
	return collection, nil
}

func normalizeReviews(payload []byte) (*domain.ReviewCollection, error) {
	var (
		dtos  []reviewDTO
		count = -1
	)
	if isJSONArray(payload) {
		if err := decode(payload, &dtos); err != nil {
			return nil, err
		}
	} else {
		var envelope reviewsEnvelope
		if err := decode(payload, &envelope); err != nil {
			return nil, err
		}
		dtos = envelope.Results
		if dtos == nil {
			dtos = envelope.Data
		}
		if envelope.Count != nil {
			count = *envelope.Count
		}
	}

	collection := &domain.ReviewCollection{Reviews: make([]domain.Review, len(dtos))}
	for i, dto := range dtos {
		collection.Reviews[i] = dto.toDomain()
	}
	collection.Count = len(collection.Reviews)
	if count > collection.Count {
		collection.Count = count
	}
	return collection, nil
}

// SetReviewApproval реализует ReviewStorePort.
func (c *Client) SetReviewApproval(ctx context.Context, reviewID int, status domain.ReviewStatus) error {
	logger := c.logger(ctx, "SetReviewApproval").WithFields(port.Fields{"review_id": reviewID, "status": status})

	_, err := c.call(ctx, logger, http.MethodPatch, fmt.Sprintf("/reviews/%d/", reviewID), nil, approvalRequest{Status: int(status)}, "")
	return err
}

// DeleteReview реализует ReviewStorePort.
func (c *Client) DeleteReview(ctx context.Context, reviewID int) error {
	logger := c.logger(ctx, "DeleteReview").WithFields(port.Fields{"review_id": reviewID})

	_, err := c.call(ctx, logger, http.MethodDelete, fmt.Sprintf("/reviews/%d/", reviewID), nil, nil, "")
	return err
}

// AddAdminResponse публикует ответ администратора. Возвращает дату ответа,
// если сервер её прислал; иначе nil.
func (c *Client) AddAdminResponse(ctx context.Context, reviewID int, text string) (*time.Time, error) {
	logger := c.logger(ctx, "AddAdminResponse").WithFields(port.Fields{"review_id": reviewID})

	payload, err := c.call(ctx, logger, http.MethodPost, fmt.Sprintf("/reviews/%d/response/", reviewID), nil, adminResponseRequest{Response: text}, "")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	if err := contracts.ValidateResponse(contracts.ReviewResponseResponseV1, payload); err != nil {
		// ответ уже записан сервером, дата возьмется локальная
		logger.Warn("Unexpected admin response body", port.Fields{"error": err.Error()})
		return nil, nil
	}

	var dto adminResponseResponse
	if err := decode(payload, &dto); err != nil {
		logger.Warn("Failed to decode admin response body", port.Fields{"error": err.Error()})
		return nil, nil
	}
	return dto.ResponseDate.ptr(), nil
}

func isJSONArray(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '['
}
