package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

type stubCatalog struct {
	mu   sync.Mutex
	last domain.RequestDescriptor
	err  error
}

func (c *stubCatalog) ListProducts(_ context.Context, req domain.RequestDescriptor) (*domain.ProductPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return &domain.ProductPage{
		Results: []domain.Product{
			{ID: 1, Title: "Runner", CategoryIDs: []int{1}},
			{ID: 2, Title: "Boot", CategoryIDs: []int{1}},
		},
		Count: 14,
	}, nil
}

func (c *stubCatalog) lastRequest() domain.RequestDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

type stubFacets struct{}

func (stubFacets) ListCategories(context.Context) ([]domain.FacetItem, error) { return nil, nil }
func (stubFacets) ListLocations(context.Context) ([]domain.FacetItem, error)  { return nil, nil }
func (stubFacets) ListSubCategories(_ context.Context, id int) ([]domain.FacetItem, error) {
	return []domain.FacetItem{{ID: 10, Name: "Sneakers", ParentID: id}}, nil
}
func (stubFacets) ListSubLocations(context.Context, int) ([]domain.FacetItem, error) {
	return nil, nil
}

type stubReviews struct {
	mu      sync.Mutex
	reviews []domain.Review
	listErr error
}

func (s *stubReviews) ListReviews(context.Context) (*domain.ReviewCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Review, len(s.reviews))
	copy(out, s.reviews)
	return &domain.ReviewCollection{Reviews: out, Count: len(out)}, nil
}

func (s *stubReviews) SetReviewApproval(context.Context, int, domain.ReviewStatus) error { return nil }
func (s *stubReviews) DeleteReview(context.Context, int) error                          { return nil }

func (s *stubReviews) AddAdminResponse(context.Context, int, string) (*time.Time, error) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &at, nil
}

type stubVisits struct {
	mu     sync.Mutex
	visits []VisitRequest
}

func (s *stubVisits) Execute(_ context.Context, itemID int, itemType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, VisitRequest{ItemID: itemID, ItemType: itemType})
}

type stubWishlist struct {
	mu       sync.Mutex
	items    map[string][]int
	disabled bool
}

func (s *stubWishlist) Add(_ context.Context, userID string, productID int) error {
	if s.disabled {
		return domain.ErrWishlistDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = append(s.items[userID], productID)
	return nil
}

func (s *stubWishlist) Remove(_ context.Context, userID string, productID int) error {
	if s.disabled {
		return domain.ErrWishlistDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[userID][:0]
	for _, id := range s.items[userID] {
		if id != productID {
			kept = append(kept, id)
		}
	}
	s.items[userID] = kept
	return nil
}

func (s *stubWishlist) List(_ context.Context, userID string) ([]int, error) {
	if s.disabled {
		return nil, domain.ErrWishlistDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.items[userID]...), nil
}

type testEnv struct {
	router   http.Handler
	registry *usecase.SessionRegistry
	catalog  *stubCatalog
	reviews  *stubReviews
	visits   *stubVisits
	wishlist *stubWishlist
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := &stubCatalog{}
	reviews := &stubReviews{reviews: []domain.Review{
		{ID: 1, Rating: 5, Comment: "great", Name: "Ann", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Rating: 3, Comment: "ok", Name: "Bob", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Rating: 1, Comment: "bad", Name: "Cid", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	// окно тишины заведомо больше теста: отложенные запросы не мешают проверкам
	registry := usecase.NewSessionRegistry(catalog, stubFacets{}, reviews, usecase.SessionConfig{
		Products:        usecase.ProductQueryConfig{PageSize: 12, QuietWindow: time.Hour},
		ReviewsPageSize: 20,
	})
	registry.SetReferences(
		[]domain.FacetItem{{ID: 1, Name: "Shoes", Slug: "shoes"}},
		[]domain.FacetItem{{ID: 5, Name: "Minsk"}},
	)
	t.Cleanup(registry.CloseAll)

	visits := &stubVisits{}
	wishlist := &stubWishlist{items: make(map[string][]int)}
	handlers := NewStorefrontHandler(registry, visits, wishlist)

	return &testEnv{
		router:   NewRouter(handlers, contextkeys.NoopLogger(), []string{"*"}),
		registry: registry,
		catalog:  catalog,
		reviews:  reviews,
		visits:   visits,
		wishlist: wishlist,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLoggerMiddleware_TraceID(t *testing.T) {
	env := newTestEnv(t)

	traceID := uuid.New().String()
	rec := env.do(t, http.MethodGet, "/api/v1/health", "", "X-Trace-ID", traceID)
	assert.Equal(t, traceID, rec.Header().Get("X-Trace-ID"))

	rec = env.do(t, http.MethodGet, "/api/v1/health", "", "X-Trace-ID", "not-a-uuid")
	_, err := uuid.Parse(rec.Header().Get("X-Trace-ID"))
	assert.NoError(t, err, "a fresh trace id is generated")
}

func TestSessions_CreateAndClose(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New().String()
	rec := env.do(t, http.MethodPost, "/api/v1/sessions", "", "X-User-ID", userID)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeBody[SessionResponse](t, rec)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, 1, env.registry.Count())

	rec = env.do(t, http.MethodDelete, "/api/v1/sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.registry.Count())

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID+"/filters", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_BadInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions", "", "X-User-ID", "nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid/filters", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.New().String()+"/products", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session not found")
}

func TestFilters_ToggleRemoveClear(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	base := "/api/v1/sessions/" + id + "/filters"

	rec := env.do(t, http.MethodPost, base+"/toggle", `{"type":"categories","id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	filters := decodeBody[FiltersResponse](t, rec)
	require.Len(t, filters.Filters, 1)
	assert.Equal(t, "Shoes", filters.Filters[0].Name)

	rec = env.do(t, http.MethodPost, base+"/toggle", `{"type":"locations","id":99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	filters = decodeBody[FiltersResponse](t, rec)
	require.Len(t, filters.Filters, 2)
	assert.Equal(t, "Locations 99", filters.Filters[1].Name)

	rec = env.do(t, http.MethodDelete, base+"/99", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[FiltersResponse](t, rec).Filters, 1)

	rec = env.do(t, http.MethodDelete, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[FiltersResponse](t, rec).Filters)
}

func TestFilters_Rejects(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t) + "/filters"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"unknown type", http.MethodPost, base + "/toggle", `{"type":"colors","id":1}`},
		{"price via toggle", http.MethodPost, base + "/toggle", `{"type":"price","id":1}`},
		{"broken body", http.MethodPost, base + "/toggle", `{`},
		{"inverted price", http.MethodPut, base + "/price", `{"min":50,"max":10}`},
		{"bad filter id", http.MethodDelete, base + "/abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestFilters_PriceRange(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t) + "/filters"

	rec := env.do(t, http.MethodPut, base+"/price", `{"min":10,"max":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	filters := decodeBody[FiltersResponse](t, rec).Filters
	require.Len(t, filters, 1)
	assert.Equal(t, "price", filters[0].Type)
	assert.Equal(t, "Price 10.00-50.00", filters[0].Name)
}

func TestProducts_ImmediateFetch(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/filters/toggle", `{"type":"categories","id":1}`)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/products/fetch", `{"page":2,"order_by":"price"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[ProductListResponse](t, rec)
	assert.Len(t, list.Products, 2)
	assert.Equal(t, 14, list.TotalCount)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, "price", list.OrderBy)
	assert.Equal(t, []string{"Shoes"}, list.Products[0].CategoryNames)

	req := env.catalog.lastRequest()
	assert.Equal(t, 2, req.Page)
	require.Len(t, req.Filters, 1)
	assert.Equal(t, domain.FilterCategories, req.Filters[0].Type)
}

func TestProducts_FailureIsState(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.err = errUpstream
	id := env.createSession(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/products/fetch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ProductListResponse](t, rec)
	assert.Empty(t, list.Products)
	assert.NotEmpty(t, list.Error)
}

func TestProducts_SearchAndCategory(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/search", `{"query":"  boots "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "boots", decodeBody[ProductListResponse](t, rec).Query)

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/category", `{"slug":"shoes"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "shoes", decodeBody[ProductListResponse](t, rec).Category)
}

func TestProducts_SearchKeepsToggledFilter(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/filters/toggle", `{"type":"categories","id":2}`)
	rec := env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/search", `{"query":"red"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	filters := decodeBody[ProductListResponse](t, rec).Filters
	require.Len(t, filters, 1)
	assert.Equal(t, 2, filters[0].ID)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/products/fetch", `{"page":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeBody[ProductListResponse](t, rec).Page)

	req := env.catalog.lastRequest()
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, "red", req.Query)
	require.Len(t, req.Filters, 2)
	assert.Equal(t, domain.FilterCategories, req.Filters[0].Type)
	assert.Equal(t, 2, req.Filters[0].ID)
	assert.Equal(t, domain.FilterQuery, req.Filters[1].Type)
}

func TestReviews_Flow(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t) + "/reviews"

	rec := env.do(t, http.MethodPost, base+"/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ReviewListResponse](t, rec)
	assert.Equal(t, "ready", list.Status)
	assert.Equal(t, 3, list.TotalCount)

	rec = env.do(t, http.MethodGet, base+"?page_size=2&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeBody[ReviewListResponse](t, rec)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, 3, list.Reviews[0].ID, "newest first, the oldest lands on page 2")

	rec = env.do(t, http.MethodGet, base+"?rating=5&page_size=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeBody[ReviewListResponse](t, rec)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, 1, list.Reviews[0].ID)

	rec = env.do(t, http.MethodPatch, base+"/2/approval", `{"status":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[ReviewResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, base+"/2/response", `{"text":"thanks"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	review := decodeBody[ReviewResponse](t, rec)
	require.NotNil(t, review.Response)
	assert.Equal(t, "thanks", *review.Response)
	require.NotNil(t, review.ResponseDate)

	rec = env.do(t, http.MethodDelete, base+"/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, base+"?rating=all", "")
	assert.Equal(t, 2, decodeBody[ReviewListResponse](t, rec).TotalCount)
}

func TestReviews_Errors(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t) + "/reviews"
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/load", "").Code)

	rec := env.do(t, http.MethodPatch, base+"/1/approval", `{"status":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, base+"/1/approval", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, base+"?rating=9", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/42/response", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.reviews.mu.Lock()
	env.reviews.listErr = errUpstream
	env.reviews.mu.Unlock()

	rec = env.do(t, http.MethodPost, base+"/load", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, http.MethodGet, base, "")
	list := decodeBody[ReviewListResponse](t, rec)
	assert.True(t, list.ShowErrorModal)
	assert.Equal(t, 3, list.TotalCount, "previous reviews survive a failed reload")

	rec = env.do(t, http.MethodDelete, base+"/error", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, base, "")
	assert.False(t, decodeBody[ReviewListResponse](t, rec).ShowErrorModal)
}

func TestVisits(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/visits", `{"item_id":7,"item_type":"product"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []VisitRequest{{ItemID: 7, ItemType: "product"}}, env.visits.visits)

	rec = env.do(t, http.MethodPost, "/api/v1/visits", `{"item_id":0,"item_type":"product"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWishlist(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New().String()

	rec := env.do(t, http.MethodGet, "/api/v1/wishlist", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/wishlist", `{"product_id":5}`, "X-User-ID", userID)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/wishlist", `{"product_id":8}`, "X-User-ID", userID)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/wishlist/5", "", "X-User-ID", userID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/wishlist", "", "X-User-ID", userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{8}, decodeBody[WishlistResponse](t, rec).ProductIDs)

	env.wishlist.disabled = true
	rec = env.do(t, http.MethodGet, "/api/v1/wishlist", "", "X-User-ID", userID)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
