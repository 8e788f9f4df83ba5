package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"strings"
	"sync"
	"time"
)

// ReviewModeration - состояние дашборда модерации отзывов.
// Локальная копия меняется только после того, как удаленная запись подтверждена.
type ReviewModeration struct {
	store port.ReviewStorePort
	now   func() time.Time

	mu             sync.Mutex
	status         domain.ReviewLoadStatus
	reviews        []domain.Review
	errMsg         string
	showErrorModal bool
	query          domain.ReviewQuery
	updating       map[int]struct{}
	deleting       map[int]struct{}
	responding     map[int]struct{}

	respondTo    *domain.Review
	responseText string
}

// NewReviewModeration - конструктор.
func NewReviewModeration(store port.ReviewStorePort, pageSize int) *ReviewModeration {
	if pageSize <= 0 {
		pageSize = DefaultReviewsPageSize
	}
	return &ReviewModeration{
		store:  store,
		now:    time.Now,
		status: domain.ReviewsIdle,
		query: domain.ReviewQuery{
			FilterBy: domain.ReviewFilterAll,
			SortBy:   domain.ReviewSortNewest,
			Page:     1,
			PageSize: pageSize,
		},
		updating:   make(map[int]struct{}),
		deleting:   make(map[int]struct{}),
		responding: make(map[int]struct{}),
	}
}

// LoadReviews загружает всю коллекцию отзывов.
// При ошибке прежний список не трогается.
func (m *ReviewModeration) LoadReviews(ctx context.Context) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "LoadReviews"})

	m.mu.Lock()
	m.status = domain.ReviewsLoading
	m.mu.Unlock()

	collection, err := m.store.ListReviews(ctx)
	if err == nil && collection == nil {
		err = domain.ErrMalformedResponse
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		logger.Error("Failed to load reviews", err, nil)
		m.status = domain.ReviewsError
		m.setErrorLocked("Failed to load reviews")
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	m.reviews = cloneReviews(collection.Reviews)
	m.status = domain.ReviewsReady
	m.errMsg = ""
	m.clipPageLocked()

	logger.Info("Reviews loaded", port.Fields{"count": len(m.reviews), "remote_count": collection.Count})
	return nil
}

// HandleApprovalToggle меняет статус отзыва. Пока запрос в полете, id помечен как обновляемый;
// повторный вызов для того же id отклоняется, для других id - разрешен.
func (m *ReviewModeration) HandleApprovalToggle(ctx context.Context, reviewID int, newStatus domain.ReviewStatus) error {
	if !newStatus.Valid() {
		return fmt.Errorf("status %d: %w", newStatus, domain.ErrInvalidStatus)
	}
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "ReviewApprovalToggle",
		"review_id":  reviewID,
		"new_status": newStatus,
	})

	if err := m.begin(m.updating, reviewID); err != nil {
		return err
	}
	err := m.store.SetReviewApproval(ctx, reviewID, newStatus)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.updating, reviewID)

	if err != nil {
		logger.Error("Failed to update review status", err, nil)
		m.setErrorLocked("Failed to update review status")
		return fmt.Errorf("failed to update review %d: %w", reviewID, err)
	}

	for i := range m.reviews {
		if m.reviews[i].ID == reviewID {
			m.reviews[i].Status = newStatus
			break
		}
	}
	m.clipPageLocked()
	logger.Info("Review status updated", nil)
	return nil
}

// HandleDeleteReview удаляет отзыв удаленно, затем из локальной копии.
func (m *ReviewModeration) HandleDeleteReview(ctx context.Context, review domain.Review) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":  "DeleteReview",
		"review_id": review.ID,
	})

	if err := m.begin(m.deleting, review.ID); err != nil {
		return err
	}
	err := m.store.DeleteReview(ctx, review.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deleting, review.ID)

	if err != nil {
		logger.Error("Failed to delete review", err, nil)
		m.setErrorLocked("Failed to delete review")
		return fmt.Errorf("failed to delete review %d: %w", review.ID, err)
	}

	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.ID != review.ID {
			kept = append(kept, r)
		}
	}
	m.reviews = kept
	m.clipPageLocked()
	logger.Info("Review deleted", nil)
	return nil
}

// OpenResponseModal выбирает отзыв, на который администратор будет отвечать.
func (m *ReviewModeration) OpenResponseModal(review domain.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.respondTo = &review
	m.responseText = ""
	if review.Response != nil {
		m.responseText = *review.Response
	}
}

// SetResponseText - текст ответа в открытом окне.
func (m *ReviewModeration) SetResponseText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseText = text
}

// CloseResponseModal закрывает окно ответа без отправки.
func (m *ReviewModeration) CloseResponseModal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respondTo = nil
	m.responseText = ""
}

// HandleSubmitResponse отправляет ответ администратора.
// Без выбранного отзыва или с пустым текстом ничего не делает.
func (m *ReviewModeration) HandleSubmitResponse(ctx context.Context) error {
	m.mu.Lock()
	if m.respondTo == nil || strings.TrimSpace(m.responseText) == "" {
		m.mu.Unlock()
		return nil
	}
	reviewID := m.respondTo.ID
	text := strings.TrimSpace(m.responseText)
	m.mu.Unlock()

	if _, err := m.submitResponse(ctx, reviewID, text); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.respondTo != nil && m.respondTo.ID == reviewID {
		m.respondTo = nil
		m.responseText = ""
	}
	return nil
}

// RespondToReview отправляет ответ на конкретный отзыв, не трогая окно ответа.
// Пустой текст ничего не отправляет: возвращается отзыв без изменений.
func (m *ReviewModeration) RespondToReview(ctx context.Context, reviewID int, text string) (domain.Review, error) {
	review, err := m.FindReview(reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return review, nil
	}
	return m.submitResponse(ctx, reviewID, text)
}

// submitResponse пишет ответ удаленно и только после подтверждения - в локальную копию.
// Параллельный ответ на тот же отзыв отклоняется.
func (m *ReviewModeration) submitResponse(ctx context.Context, reviewID int, text string) (domain.Review, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":  "SubmitReviewResponse",
		"review_id": reviewID,
	})

	if err := m.begin(m.responding, reviewID); err != nil {
		return domain.Review{}, err
	}
	respondedAt, err := m.store.AddAdminResponse(ctx, reviewID, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responding, reviewID)

	if err != nil {
		logger.Error("Failed to submit admin response", err, nil)
		m.setErrorLocked("Failed to submit response")
		return domain.Review{}, fmt.Errorf("failed to respond to review %d: %w", reviewID, err)
	}

	date := m.now()
	if respondedAt != nil {
		date = *respondedAt
	}
	response := text
	updated := domain.Review{ID: reviewID, Response: &response, ResponseDate: &date}
	for i := range m.reviews {
		if m.reviews[i].ID == reviewID {
			m.reviews[i].Response = &response
			m.reviews[i].ResponseDate = &date
			updated = m.reviews[i]
			break
		}
	}
	logger.Info("Admin response submitted", nil)
	return updated, nil
}

// DismissError закрывает окно ошибки.
func (m *ReviewModeration) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showErrorModal = false
}

func (m *ReviewModeration) SetSearch(search string) {
	m.updateQuery(func(q *domain.ReviewQuery) { q.Search = search })
}

func (m *ReviewModeration) SetFilterBy(filterBy string) {
	m.updateQuery(func(q *domain.ReviewQuery) { q.FilterBy = filterBy })
}

// SetRatingFilter: 0 означает "все рейтинги".
func (m *ReviewModeration) SetRatingFilter(rating int) {
	m.updateQuery(func(q *domain.ReviewQuery) { q.RatingFilter = rating })
}

func (m *ReviewModeration) SetSortBy(sortBy string) {
	m.updateQuery(func(q *domain.ReviewQuery) { q.SortBy = sortBy })
}

func (m *ReviewModeration) SetPage(page int) {
	m.updateQuery(func(q *domain.ReviewQuery) { q.Page = page })
}

func (m *ReviewModeration) SetPageSize(pageSize int) {
	if pageSize <= 0 {
		return
	}
	m.updateQuery(func(q *domain.ReviewQuery) { q.PageSize = pageSize })
}

// Snapshot возвращает копию всего состояния дашборда.
func (m *ReviewModeration) Snapshot() domain.ReviewDashboardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(DeriveReviewView(m.reviews, m.query))
}

// Dashboard возвращает производное представление и состояние, снятые под одной блокировкой.
func (m *ReviewModeration) Dashboard() (domain.ReviewView, domain.ReviewDashboardState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := DeriveReviewView(m.reviews, m.query)
	return view, m.snapshotLocked(view)
}

func (m *ReviewModeration) snapshotLocked(view domain.ReviewView) domain.ReviewDashboardState {
	state := domain.ReviewDashboardState{
		Status:         m.status,
		Reviews:        cloneReviews(m.reviews),
		TotalPages:     view.TotalPages,
		Error:          m.errMsg,
		ShowErrorModal: m.showErrorModal,
		Query:          m.query,
		UpdatingIDs:    sortedIDs(m.updating),
		DeletingIDs:    sortedIDs(m.deleting),
		ResponseText:   m.responseText,
		ShowResponse:   m.respondTo != nil,
	}
	if m.respondTo != nil {
		r := *m.respondTo
		state.ReviewToRespond = &r
	}
	return state
}

// FindReview ищет отзыв в локальной копии.
func (m *ReviewModeration) FindReview(reviewID int) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == reviewID {
			return r, nil
		}
	}
	return domain.Review{}, fmt.Errorf("review %d: %w", reviewID, domain.ErrReviewNotFound)
}

func (m *ReviewModeration) begin(inflight map[int]struct{}, reviewID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := inflight[reviewID]; busy {
		return fmt.Errorf("review %d: %w", reviewID, domain.ErrMutationInFlight)
	}
	inflight[reviewID] = struct{}{}
	return nil
}

func (m *ReviewModeration) updateQuery(mutate func(q *domain.ReviewQuery)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(&m.query)
	m.clipPageLocked()
}

// clipPageLocked удерживает текущую страницу в [1, totalPages] после сужения выборки.
func (m *ReviewModeration) clipPageLocked() {
	view := DeriveReviewView(m.reviews, m.query)
	m.query.Page = view.Page
}

func (m *ReviewModeration) setErrorLocked(msg string) {
	m.errMsg = msg
	m.showErrorModal = true
}

func cloneReviews(reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, len(reviews))
	copy(out, reviews)
	return out
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IsMutationInFlight - удобная проверка для адаптеров.
func IsMutationInFlight(err error) bool {
	return errors.Is(err, domain.ErrMutationInFlight)
}
