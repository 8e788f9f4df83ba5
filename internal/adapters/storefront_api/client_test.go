package storefront_api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	TraceID string
	Body    string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (rec *recorder) all() []recordedRequest {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]recordedRequest(nil), rec.requests...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			TraceID: r.Header.Get("X-Trace-ID"),
			Body:    string(body),
		})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second), rec
}

func respond(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func TestClient_ListProducts(t *testing.T) {
	client, recorded := newTestServer(t, respond(`{
		"count": 2,
		"results": [
			{"id": 1, "title": "Runner", "slug": "runner", "price": "59.90", "categories": [1, {"id": 3}], "location": 5, "created_at": "2024-03-01T12:00:00.123456Z"},
			{"id": 2, "title": "Boot", "price": 120, "categories": [], "location": null}
		]
	}`))

	min, max := 10.0, 99.5
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	page, err := client.ListProducts(ctx, domain.RequestDescriptor{
		OrderBy:  "-created_at",
		Page:     2,
		PageSize: 12,
		Query:    "run",
		Filters: []domain.FilterEntry{
			{Type: domain.FilterCategories, ID: 1},
			{Type: domain.FilterCategories, ID: 3},
			{Type: domain.FilterSubcategories, ID: 10, ParentID: 1},
			{Type: domain.FilterPrice, Min: &min, Max: &max},
			{Type: domain.FilterQuery, Name: "run"},
		},
	})
	require.NoError(t, err)

	require.Len(t, page.Results, 2)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 59.9, page.Results[0].Price)
	assert.Equal(t, []int{1, 3}, page.Results[0].CategoryIDs)
	assert.Equal(t, 5, page.Results[0].LocationID)
	assert.Equal(t, 2024, page.Results[0].CreatedAt.Year())
	assert.Equal(t, 120.0, page.Results[1].Price)
	assert.Zero(t, page.Results[1].LocationID)

	require.Len(t, recorded.all(), 1)
	req := recorded.all()[0]
	assert.Equal(t, "/api/products/", req.Path)
	assert.Equal(t, "trace-1", req.TraceID)
	assert.Equal(t, "categories=1%2C3&max_price=99.5&min_price=10&ordering=-created_at&page=2&page_size=12&search=run&subcategories=10", req.Query)
}

func TestClient_ListProducts_MalformedShape(t *testing.T) {
	client, _ := newTestServer(t, respond(`{"foo": 1}`))

	page, err := client.ListProducts(context.Background(), domain.RequestDescriptor{Page: 1})
	assert.Nil(t, page)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_NonOKStatus(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"detail":"upstream down"}`)
	})

	_, err := client.ListProducts(context.Background(), domain.RequestDescriptor{Page: 1})
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.NotErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_ListReviews_NormalizesShapes(t *testing.T) {
	review := `{"id": 7, "rating": 4, "comment": "Nice", "status": 0, "flagged": true, "created_at": "2024-03-01T10:00:00Z",
		"product": {"id": 9, "title": "Boot"}, "Name": "Ann", "Email": "ann@example.com", "response": null, "response_date": null}`

	cases := map[string]struct {
		body  string
		count int
	}{
		"bare array":  {body: `[` + review + `]`, count: 1},
		"paginated":   {body: `{"results": [` + review + `], "count": 40}`, count: 40},
		"data object": {body: `{"data": [` + review + `]}`, count: 1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestServer(t, respond(tc.body))

			collection, err := client.ListReviews(context.Background())
			require.NoError(t, err)
			require.Len(t, collection.Reviews, 1)
			assert.Equal(t, tc.count, collection.Count)

			r := collection.Reviews[0]
			assert.Equal(t, 7, r.ID)
			assert.Equal(t, domain.ReviewPending, r.Status)
			assert.True(t, r.Flagged)
			assert.Equal(t, "Ann", r.Name)
			assert.Equal(t, "ann@example.com", r.Email)
			require.NotNil(t, r.Product)
			assert.Equal(t, "Boot", r.Product.Title)
			assert.Nil(t, r.Response)
			assert.Nil(t, r.ResponseDate)
		})
	}
}

func TestClient_ListReviews_Malformed(t *testing.T) {
	client, _ := newTestServer(t, respond(`{"foo": 1}`))

	_, err := client.ListReviews(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_ReviewMutations(t *testing.T) {
	client, recorded := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			_, _ = io.WriteString(w, `{"id": 7, "response": "Thanks", "response_date": "2024-05-01"}`)
		default:
			_, _ = io.WriteString(w, `{"id": 7, "status": 1}`)
		}
	})
	ctx := context.Background()

	require.NoError(t, client.SetReviewApproval(ctx, 7, domain.ReviewApproved))
	require.NoError(t, client.DeleteReview(ctx, 8))
	respondedAt, err := client.AddAdminResponse(ctx, 7, "Thanks")
	require.NoError(t, err)
	require.NotNil(t, respondedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *respondedAt)

	require.Len(t, recorded.all(), 3)
	assert.Equal(t, recordedRequest{Method: http.MethodPatch, Path: "/api/reviews/7/", Body: `{"status":1}`}, recorded.all()[0])
	assert.Equal(t, http.MethodDelete, recorded.all()[1].Method)
	assert.Equal(t, "/api/reviews/8/", recorded.all()[1].Path)
	assert.Equal(t, "/api/reviews/7/response/", recorded.all()[2].Path)
	assert.JSONEq(t, `{"response":"Thanks"}`, recorded.all()[2].Body)
}

func TestClient_AddAdminResponse_EmptyBody(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	respondedAt, err := client.AddAdminResponse(context.Background(), 1, "ok")
	require.NoError(t, err)
	assert.Nil(t, respondedAt)
}

func TestClient_Facets(t *testing.T) {
	client, recorded := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/categories/" {
			_, _ = io.WriteString(w, `[{"id": 1, "name": "Shoes", "slug": "shoes"}]`)
			return
		}
		_, _ = io.WriteString(w, `{"results": [{"id": 10, "name": "Sneakers", "parent": 1}]}`)
	})
	ctx := context.Background()

	categories, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.FacetItem{{ID: 1, Name: "Shoes", Slug: "shoes"}}, categories)

	subcategories, err := client.ListSubCategories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.FacetItem{{ID: 10, Name: "Sneakers", ParentID: 1}}, subcategories)

	_, err = client.ListSubLocations(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "/api/locations/5/sublocations/", recorded.all()[2].Path)
}

func TestClient_RecordVisit(t *testing.T) {
	client, recorded := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, client.RecordVisit(context.Background(), domain.Visit{ItemID: 3, ItemType: "product", Timestamp: ts}))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(recorded.all()[0].Body), &body))
	assert.EqualValues(t, 3, body["item_id"])
	assert.Equal(t, "product", body["item_type"])
	assert.Equal(t, "2024-01-02T03:04:05Z", body["timestamp"])
}
