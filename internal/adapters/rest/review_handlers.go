package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"storefront-service/internal/core/usecase"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetReviews обрабатывает GET /api/v1/sessions/{sessionID}/reviews.
// Query-параметры меняют UI-состояние дашборда, ответ - производное представление.
func (h *StorefrontHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetReviews"})
	reviews := sessionFromRequest(r).Reviews

	q := r.URL.Query()
	if q.Has("search") {
		reviews.SetSearch(q.Get("search"))
	}
	if filterBy := q.Get("filter_by"); filterBy != "" {
		reviews.SetFilterBy(filterBy)
	}
	if sortBy := q.Get("sort_by"); sortBy != "" {
		reviews.SetSortBy(sortBy)
	}
	if rating := q.Get("rating"); rating != "" {
		value := 0
		if rating != domain.ReviewFilterAll {
			var err error
			value, err = strconv.Atoi(rating)
			if err != nil || value < 0 || value > 5 {
				logger.Warn("Invalid rating filter", port.Fields{"rating": rating})
				WriteJSONError(w, http.StatusBadRequest, "Invalid rating filter")
				return
			}
		}
		reviews.SetRatingFilter(value)
	}
	// page_size раньше page: смена размера может обрезать номер страницы
	if pageSize, ok, err := queryInt(r, "page_size"); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid page_size")
		return
	} else if ok {
		reviews.SetPageSize(pageSize)
	}
	if page, ok, err := queryInt(r, "page"); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid page")
		return
	} else if ok {
		reviews.SetPage(page)
	}

	RespondWithJSON(w, http.StatusOK, reviewListResponse(reviews))
}

// LoadReviews обрабатывает POST /api/v1/sessions/{sessionID}/reviews/load
func (h *StorefrontHandler) LoadReviews(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "LoadReviews"})
	reviews := sessionFromRequest(r).Reviews

	if err := reviews.LoadReviews(r.Context()); err != nil {
		logger.Error("Load reviews use case failed", err, nil)
		WriteJSONError(w, statusForError(err, http.StatusBadGateway), "Failed to load reviews")
		return
	}

	RespondWithJSON(w, http.StatusOK, reviewListResponse(reviews))
}

// DismissReviewsError обрабатывает DELETE /api/v1/sessions/{sessionID}/reviews/error
func (h *StorefrontHandler) DismissReviewsError(w http.ResponseWriter, r *http.Request) {
	sessionFromRequest(r).Reviews.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

// SetReviewApproval обрабатывает PATCH /api/v1/sessions/{sessionID}/reviews/{reviewID}/approval
func (h *StorefrontHandler) SetReviewApproval(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetReviewApproval"})
	reviews := sessionFromRequest(r).Reviews

	reviewID, ok := reviewIDFromURL(w, r, logger)
	if !ok {
		return
	}

	var reqDTO ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil || reqDTO.Status == nil {
		logger.Warn("Invalid request body for review approval", nil)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := reviews.HandleApprovalToggle(r.Context(), reviewID, domain.ReviewStatus(*reqDTO.Status)); err != nil {
		h.writeReviewMutationError(w, logger, err, "Failed to update review status")
		return
	}

	review, err := reviews.FindReview(reviewID)
	if err != nil {
		// удаленная запись прошла, но локальной копии нет (список не загружен)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	RespondWithJSON(w, http.StatusOK, toReviewResponse(review))
}

// DeleteReview обрабатывает DELETE /api/v1/sessions/{sessionID}/reviews/{reviewID}
func (h *StorefrontHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteReview"})
	reviews := sessionFromRequest(r).Reviews

	reviewID, ok := reviewIDFromURL(w, r, logger)
	if !ok {
		return
	}

	review, err := reviews.FindReview(reviewID)
	if err != nil {
		review = domain.Review{ID: reviewID}
	}

	if err := reviews.HandleDeleteReview(r.Context(), review); err != nil {
		h.writeReviewMutationError(w, logger, err, "Failed to delete review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RespondToReview обрабатывает POST /api/v1/sessions/{sessionID}/reviews/{reviewID}/response.
// Пустой текст - не ошибка: ответ не отправляется, отзыв возвращается без изменений.
func (h *StorefrontHandler) RespondToReview(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RespondToReview"})
	reviews := sessionFromRequest(r).Reviews

	reviewID, ok := reviewIDFromURL(w, r, logger)
	if !ok {
		return
	}

	var reqDTO ReviewReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for review response", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := reviews.RespondToReview(r.Context(), reviewID, reqDTO.Text)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			logger.Warn("Review is not in the loaded list", port.Fields{"review_id": reviewID})
			WriteJSONError(w, http.StatusNotFound, "Review not found")
			return
		}
		h.writeReviewMutationError(w, logger, err, "Failed to submit response")
		return
	}

	RespondWithJSON(w, http.StatusOK, toReviewResponse(review))
}

func (h *StorefrontHandler) writeReviewMutationError(w http.ResponseWriter, logger port.LoggerPort, err error, message string) {
	if usecase.IsMutationInFlight(err) {
		logger.Warn("Mutation already in flight", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusConflict, "Operation already in progress for this review")
		return
	}
	logger.Error(message, err, nil)
	WriteJSONError(w, statusForError(err, http.StatusBadGateway), message)
}

func reviewIDFromURL(w http.ResponseWriter, r *http.Request, logger port.LoggerPort) (int, bool) {
	reviewIDStr := chi.URLParam(r, "reviewID")
	reviewID, err := strconv.Atoi(reviewIDStr)
	if err != nil {
		logger.Warn("Invalid reviewID in URL", port.Fields{"provided_id": reviewIDStr})
		WriteJSONError(w, http.StatusBadRequest, "Invalid reviewID in URL")
		return 0, false
	}
	return reviewID, true
}

func reviewListResponse(reviews *usecase.ReviewModeration) ReviewListResponse {
	return toReviewListResponse(reviews.Dashboard())
}
