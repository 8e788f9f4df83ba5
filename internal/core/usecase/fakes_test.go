package usecase

import (
	"context"
	"errors"
	"storefront-service/internal/core/domain"
	"sync"
	"time"
)

var errRemote = errors.New("remote unavailable")

type fakeFacets struct {
	mu            sync.Mutex
	categories    []domain.FacetItem
	locations     []domain.FacetItem
	subcategories map[int][]domain.FacetItem
	sublocations  map[int][]domain.FacetItem
	gates         map[int]chan struct{}
	err           error
	calls         int
}

func newFakeFacets() *fakeFacets {
	return &fakeFacets{
		subcategories: make(map[int][]domain.FacetItem),
		sublocations:  make(map[int][]domain.FacetItem),
		gates:         make(map[int]chan struct{}),
	}
}

func (f *fakeFacets) ListCategories(ctx context.Context) ([]domain.FacetItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.categories, f.err
}

func (f *fakeFacets) ListLocations(ctx context.Context) ([]domain.FacetItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.locations, f.err
}

func (f *fakeFacets) ListSubCategories(ctx context.Context, categoryID int) ([]domain.FacetItem, error) {
	f.mu.Lock()
	gate := f.gates[categoryID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.FacetItem(nil), f.subcategories[categoryID]...), nil
}

func (f *fakeFacets) ListSubLocations(ctx context.Context, locationID int) ([]domain.FacetItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.FacetItem(nil), f.sublocations[locationID]...), nil
}

func (f *fakeFacets) gate(categoryID int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[categoryID] = ch
	return ch
}

type fakeCatalog struct {
	mu       sync.Mutex
	requests []domain.RequestDescriptor
	respond  func(req domain.RequestDescriptor) (*domain.ProductPage, error)
}

func (f *fakeCatalog) ListProducts(ctx context.Context, req domain.RequestDescriptor) (*domain.ProductPage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &domain.ProductPage{Results: []domain.Product{}, Count: 0}, nil
	}
	return respond(req)
}

func (f *fakeCatalog) Requests() []domain.RequestDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RequestDescriptor(nil), f.requests...)
}

type fakeReviewStore struct {
	mu          sync.Mutex
	collection  *domain.ReviewCollection
	listErr     error
	approvalErr error
	deleteErr   error
	responseErr error
	respondedAt *time.Time
	approvals   map[int]domain.ReviewStatus
	deleted     []int
	responses   map[int]string
	block       chan struct{}

	responseCalls int
}

func newFakeReviewStore(reviews []domain.Review) *fakeReviewStore {
	return &fakeReviewStore{
		collection: &domain.ReviewCollection{Reviews: reviews, Count: len(reviews)},
		approvals:  make(map[int]domain.ReviewStatus),
		responses:  make(map[int]string),
	}
}

func (f *fakeReviewStore) ListReviews(ctx context.Context) (*domain.ReviewCollection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collection, nil
}

func (f *fakeReviewStore) SetReviewApproval(ctx context.Context, reviewID int, status domain.ReviewStatus) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approvalErr != nil {
		return f.approvalErr
	}
	f.approvals[reviewID] = status
	return nil
}

func (f *fakeReviewStore) DeleteReview(ctx context.Context, reviewID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, reviewID)
	return nil
}

func (f *fakeReviewStore) AddAdminResponse(ctx context.Context, reviewID int, text string) (*time.Time, error) {
	f.mu.Lock()
	f.responseCalls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.responseErr != nil {
		return nil, f.responseErr
	}
	f.responses[reviewID] = text
	return f.respondedAt, nil
}

type fakeVisitRecorder struct {
	mu     sync.Mutex
	visits []domain.Visit
	err    error
}

func (f *fakeVisitRecorder) RecordVisit(ctx context.Context, visit domain.Visit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, visit)
	return f.err
}

type fakeWishlistRepo struct {
	mu    sync.Mutex
	items []domain.WishlistItem
	err   error
}

func (f *fakeWishlistRepo) Add(ctx context.Context, userID string, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, domain.WishlistItem{UserID: userID, ProductID: productID, CreatedAt: time.Now()})
	return nil
}

func (f *fakeWishlistRepo) Remove(ctx context.Context, userID string, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	kept := f.items[:0]
	for _, item := range f.items {
		if item.UserID == userID && item.ProductID == productID {
			continue
		}
		kept = append(kept, item)
	}
	f.items = kept
	return nil
}

func (f *fakeWishlistRepo) FindByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.WishlistItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) ResponseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responseCalls
}
