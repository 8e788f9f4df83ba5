package usecase

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedModeration(t *testing.T, reviews []domain.Review) (*ReviewModeration, *fakeReviewStore) {
	t.Helper()
	store := newFakeReviewStore(reviews)
	m := NewReviewModeration(store, 20)
	require.NoError(t, m.LoadReviews(context.Background()))
	return m, store
}

func TestReviewModeration_LoadReviews(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(25))

	state := m.Snapshot()
	assert.Equal(t, domain.ReviewsReady, state.Status)
	assert.Len(t, state.Reviews, 25)
	assert.Equal(t, 2, state.TotalPages)
	assert.Empty(t, state.Error)
}

func TestReviewModeration_LoadFailureKeepsPriorReviews(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(3))
	store.listErr = errRemote

	err := m.LoadReviews(context.Background())
	require.ErrorIs(t, err, errRemote)

	state := m.Snapshot()
	assert.Equal(t, domain.ReviewsError, state.Status)
	assert.Len(t, state.Reviews, 3)
	assert.NotEmpty(t, state.Error)
	assert.True(t, state.ShowErrorModal)

	m.DismissError()
	assert.False(t, m.Snapshot().ShowErrorModal)
}

func TestReviewModeration_ApprovalRejectedLeavesReviewsUnchanged(t *testing.T) {
	reviews := makeReviews(10)
	m, store := loadedModeration(t, reviews)
	store.approvalErr = errRemote
	before := m.Snapshot().Reviews

	err := m.HandleApprovalToggle(context.Background(), 7, domain.ReviewApproved)
	require.Error(t, err)

	state := m.Snapshot()
	assert.Equal(t, before, state.Reviews)
	assert.NotEmpty(t, state.Error)
	assert.True(t, state.ShowErrorModal)
	assert.Empty(t, state.UpdatingIDs)
}

func TestReviewModeration_ApprovalAppliedAfterConfirmation(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(10))
	store.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- m.HandleApprovalToggle(context.Background(), 7, domain.ReviewApproved) }()

	require.Eventually(t, func() bool { return len(m.Snapshot().UpdatingIDs) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{7}, m.Snapshot().UpdatingIDs)
	r, err := m.FindReview(7)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewTrashed, r.Status, "local copy changes only after the remote write")

	err = m.HandleApprovalToggle(context.Background(), 7, domain.ReviewPending)
	assert.ErrorIs(t, err, domain.ErrMutationInFlight)

	close(store.block)
	require.NoError(t, <-done)

	r, err = m.FindReview(7)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, r.Status)
	assert.Empty(t, m.Snapshot().UpdatingIDs)
	assert.Equal(t, domain.ReviewApproved, store.approvals[7])
}

func TestReviewModeration_ApprovalRejectsUnknownStatus(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(2))

	err := m.HandleApprovalToggle(context.Background(), 1, domain.ReviewStatus(4))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestReviewModeration_DeleteReview(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(21))
	m.SetPage(2)
	require.Equal(t, 2, m.Snapshot().Query.Page)

	review, err := m.FindReview(21)
	require.NoError(t, err)
	require.NoError(t, m.HandleDeleteReview(context.Background(), review))

	_, err = m.FindReview(21)
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
	assert.Equal(t, []int{21}, store.deleted)
	assert.Equal(t, 1, m.Snapshot().Query.Page, "page clipped after the result set shrinks")
}

func TestReviewModeration_DeleteFailureKeepsRecord(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(3))
	store.deleteErr = errRemote

	review, err := m.FindReview(2)
	require.NoError(t, err)
	require.Error(t, m.HandleDeleteReview(context.Background(), review))

	_, err = m.FindReview(2)
	assert.NoError(t, err)
	assert.True(t, m.Snapshot().ShowErrorModal)
	assert.Empty(t, m.Snapshot().DeletingIDs)
}

func TestReviewModeration_SubmitResponse(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(3))
	respondedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.respondedAt = &respondedAt

	review, err := m.FindReview(2)
	require.NoError(t, err)
	m.OpenResponseModal(review)
	m.SetResponseText("  Thanks for the feedback!  ")
	require.True(t, m.Snapshot().ShowResponse)

	require.NoError(t, m.HandleSubmitResponse(context.Background()))

	updated, err := m.FindReview(2)
	require.NoError(t, err)
	require.NotNil(t, updated.Response)
	assert.Equal(t, "Thanks for the feedback!", *updated.Response)
	assert.Equal(t, respondedAt, *updated.ResponseDate)
	assert.Equal(t, "Thanks for the feedback!", store.responses[2])

	state := m.Snapshot()
	assert.False(t, state.ShowResponse)
	assert.Nil(t, state.ReviewToRespond)
}

func TestReviewModeration_SubmitResponseUsesLocalClock(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(1))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	review, err := m.FindReview(1)
	require.NoError(t, err)
	m.OpenResponseModal(review)
	m.SetResponseText("ok")
	require.NoError(t, m.HandleSubmitResponse(context.Background()))

	updated, err := m.FindReview(1)
	require.NoError(t, err)
	assert.Equal(t, now, *updated.ResponseDate)
}

func TestReviewModeration_SubmitResponseNoOps(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(2))

	require.NoError(t, m.HandleSubmitResponse(context.Background()))

	review, err := m.FindReview(1)
	require.NoError(t, err)
	m.OpenResponseModal(review)
	m.SetResponseText("   ")
	require.NoError(t, m.HandleSubmitResponse(context.Background()))

	assert.Empty(t, store.responses)
	assert.True(t, m.Snapshot().ShowResponse)

	m.CloseResponseModal()
	assert.False(t, m.Snapshot().ShowResponse)
}

func TestReviewModeration_SubmitResponseFailure(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(2))
	store.responseErr = errRemote

	review, err := m.FindReview(1)
	require.NoError(t, err)
	m.OpenResponseModal(review)
	m.SetResponseText("sorry")
	require.Error(t, m.HandleSubmitResponse(context.Background()))

	state := m.Snapshot()
	assert.True(t, state.ShowErrorModal)
	assert.True(t, state.ShowResponse, "modal stays open for retry")
	updated, _ := m.FindReview(1)
	assert.Nil(t, updated.Response)
}

func TestReviewModeration_FilterChangeClipsPage(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(60))
	m.SetPage(3)
	require.Equal(t, 3, m.Snapshot().Query.Page)

	m.SetFilterBy(domain.ReviewFilterApproved)
	assert.Equal(t, 1, m.Snapshot().Query.Page)

	view, _ := m.Dashboard()
	assert.Equal(t, 20, view.TotalCount)
	assert.Len(t, view.Paginated, 20)
}

func TestReviewModeration_RespondToReview(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(3))
	respondedAt := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	store.respondedAt = &respondedAt

	updated, err := m.RespondToReview(context.Background(), 3, "  Glad you liked it  ")
	require.NoError(t, err)
	require.NotNil(t, updated.Response)
	assert.Equal(t, 3, updated.ID)
	assert.Equal(t, "Glad you liked it", *updated.Response)
	assert.Equal(t, respondedAt, *updated.ResponseDate)
	assert.Equal(t, "Glad you liked it", store.responses[3])

	stored, err := m.FindReview(3)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
	assert.False(t, m.Snapshot().ShowResponse, "response window is not used")
}

func TestReviewModeration_RespondToReviewEdgeCases(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(2))

	_, err := m.RespondToReview(context.Background(), 99, "hello")
	require.ErrorIs(t, err, domain.ErrReviewNotFound)

	review, err := m.RespondToReview(context.Background(), 1, "   ")
	require.NoError(t, err)
	assert.Nil(t, review.Response)
	assert.Zero(t, store.ResponseCalls())
}

func TestReviewModeration_RespondToReviewKeepsOpenModal(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(3))

	other, err := m.FindReview(1)
	require.NoError(t, err)
	m.OpenResponseModal(other)
	m.SetResponseText("draft")

	_, err = m.RespondToReview(context.Background(), 2, "direct answer")
	require.NoError(t, err)

	state := m.Snapshot()
	assert.True(t, state.ShowResponse)
	require.NotNil(t, state.ReviewToRespond)
	assert.Equal(t, 1, state.ReviewToRespond.ID)
	assert.Equal(t, "draft", state.ResponseText)
}

func TestReviewModeration_RespondToReviewRejectsConcurrentSubmit(t *testing.T) {
	m, store := loadedModeration(t, makeReviews(2))
	store.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := m.RespondToReview(context.Background(), 2, "first")
		done <- err
	}()
	require.Eventually(t, func() bool { return store.ResponseCalls() == 1 }, time.Second, time.Millisecond)

	_, err := m.RespondToReview(context.Background(), 2, "second")
	require.ErrorIs(t, err, domain.ErrMutationInFlight)

	close(store.block)
	require.NoError(t, <-done)

	r, err := m.FindReview(2)
	require.NoError(t, err)
	assert.Equal(t, "first", *r.Response)
	assert.Equal(t, 1, store.ResponseCalls())
}

func TestReviewModeration_DashboardMatchesSnapshot(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(25))
	m.SetFilterBy(domain.ReviewFilterApproved)

	view, state := m.Dashboard()
	assert.Equal(t, view.TotalPages, state.TotalPages)
	assert.Equal(t, m.Snapshot().TotalPages, state.TotalPages)
	assert.Equal(t, len(view.Filtered), view.TotalCount)
}

func TestReviewModeration_TotalPagesFollowsPageSize(t *testing.T) {
	m, _ := loadedModeration(t, makeReviews(25))
	require.Equal(t, 2, m.Snapshot().TotalPages)

	m.SetPageSize(10)
	assert.Equal(t, 3, m.Snapshot().TotalPages)

	m.SetSearch("comment 25")
	assert.Equal(t, 1, m.Snapshot().TotalPages)
}
