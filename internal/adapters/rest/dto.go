package rest

import (
	"storefront-service/internal/core/domain"
	"time"
)

// ErrorResponse - стандартная структура для ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleFilterRequest - тело POST .../filters/toggle.
type ToggleFilterRequest struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

type PriceRangeRequest struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type CategoryRequest struct {
	Slug string `json:"slug"`
}

// FetchProductsRequest - немедленный запрос (клик по странице, смена сортировки).
type FetchProductsRequest struct {
	OrderBy string `json:"order_by"`
	Page    int    `json:"page"`
}

type ApprovalRequest struct {
	Status *int `json:"status"`
}

type ReviewReplyRequest struct {
	Text string `json:"text"`
}

type VisitRequest struct {
	ItemID   int    `json:"item_id"`
	ItemType string `json:"item_type"`
}

type WishlistAddRequest struct {
	ProductID int `json:"product_id"`
}

type WishlistResponse struct {
	ProductIDs []int `json:"product_ids"`
}

type FilterEntryResponse struct {
	Type     string   `json:"type"`
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	ParentID int      `json:"parent_id,omitempty"`
}

type FacetItemResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	ParentID int    `json:"parent_id,omitempty"`
}

// FiltersResponse - активные фильтры и загруженные дочерние справочники.
type FiltersResponse struct {
	Filters       []FilterEntryResponse `json:"filters"`
	Subcategories []FacetItemResponse   `json:"subcategories"`
	Sublocations  []FacetItemResponse   `json:"sublocations"`
}

type ProductResponse struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Price         float64   `json:"price"`
	CategoryIDs   []int     `json:"category_ids"`
	CategoryNames []string  `json:"category_names"`
	LocationID    int       `json:"location_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProductListResponse - снимок оркестратора каталога.
type ProductListResponse struct {
	Products   []ProductResponse     `json:"products"`
	TotalCount int                   `json:"total_count"`
	Error      string                `json:"error,omitempty"`
	Loading    bool                  `json:"loading"`
	OrderBy    string                `json:"order_by"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	Query      string                `json:"query"`
	Category   string                `json:"category"`
	Filters    []FilterEntryResponse `json:"filters"`
}

type ReviewProductResponse struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type ReviewResponse struct {
	ID           int                    `json:"id"`
	Rating       int                    `json:"rating"`
	Comment      string                 `json:"comment"`
	Status       int                    `json:"status"`
	Flagged      bool                   `json:"flagged"`
	Response     *string                `json:"response"`
	ResponseDate *time.Time             `json:"response_date"`
	CreatedAt    time.Time              `json:"created_at"`
	Product      *ReviewProductResponse `json:"product"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
}

// ReviewListResponse - текущая страница дашборда модерации вместе с его состоянием.
type ReviewListResponse struct {
	Reviews        []ReviewResponse `json:"reviews"`
	TotalCount     int              `json:"total_count"`
	TotalPages     int              `json:"total_pages"`
	Page           int              `json:"page"`
	PageSize       int              `json:"page_size"`
	Status         string           `json:"status"`
	Error          string           `json:"error,omitempty"`
	ShowErrorModal bool             `json:"show_error_modal"`
	UpdatingIDs    []int            `json:"updating_ids"`
	DeletingIDs    []int            `json:"deleting_ids"`
}

func toFilterEntriesResponse(filters []domain.FilterEntry) []FilterEntryResponse {
	out := make([]FilterEntryResponse, len(filters))
	for i, f := range filters {
		out[i] = FilterEntryResponse{
			Type:     string(f.Type),
			ID:       f.ID,
			Name:     f.Name,
			Min:      f.Min,
			Max:      f.Max,
			ParentID: f.ParentID,
		}
	}
	return out
}

func toFacetItemsResponse(items []domain.FacetItem) []FacetItemResponse {
	out := make([]FacetItemResponse, len(items))
	for i, item := range items {
		out[i] = FacetItemResponse{ID: item.ID, Name: item.Name, Slug: item.Slug, ParentID: item.ParentID}
	}
	return out
}

func toProductListResponse(state domain.ProductListState) ProductListResponse {
	products := make([]ProductResponse, len(state.Products))
	for i, p := range state.Products {
		products[i] = ProductResponse{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			Price:         p.Price,
			CategoryIDs:   p.CategoryIDs,
			CategoryNames: p.CategoryNames,
			LocationID:    p.LocationID,
			CreatedAt:     p.CreatedAt,
		}
	}
	return ProductListResponse{
		Products:   products,
		TotalCount: state.TotalCount,
		Error:      state.Error,
		Loading:    state.Loading,
		OrderBy:    state.OrderBy,
		Page:       state.Page,
		PageSize:   state.PageSize,
		Query:      state.Query,
		Category:   state.Category,
		Filters:    toFilterEntriesResponse(state.Filters),
	}
}

func toReviewResponse(r domain.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:           r.ID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Status:       int(r.Status),
		Flagged:      r.Flagged,
		Response:     r.Response,
		ResponseDate: r.ResponseDate,
		CreatedAt:    r.CreatedAt,
		Name:         r.Name,
		Email:        r.Email,
	}
	if r.Product != nil {
		resp.Product = &ReviewProductResponse{ID: r.Product.ID, Title: r.Product.Title}
	}
	return resp
}

func toReviewListResponse(view domain.ReviewView, state domain.ReviewDashboardState) ReviewListResponse {
	reviews := make([]ReviewResponse, len(view.Paginated))
	for i, r := range view.Paginated {
		reviews[i] = toReviewResponse(r)
	}
	return ReviewListResponse{
		Reviews:        reviews,
		TotalCount:     view.TotalCount,
		TotalPages:     view.TotalPages,
		Page:           view.Page,
		PageSize:       state.Query.PageSize,
		Status:         string(state.Status),
		Error:          state.Error,
		ShowErrorModal: state.ShowErrorModal,
		UpdatingIDs:    nonNilInts(state.UpdatingIDs),
		DeletingIDs:    nonNilInts(state.DeletingIDs),
	}
}

func nonNilInts(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
