package storefront_api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"storefront-service/internal/core/domain"
	"strconv"
	"time"
)

// flexFloat принимает число или строку с числом (DRF отдает Decimal строкой).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// flexTime принимает RFC3339, дату-время без зоны или только дату.
type flexTime struct {
	time.Time
	Valid bool
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = flexTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = flexTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime{Time: parsed, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unsupported time format %q", s)
}

func (t flexTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// categoryRef - категория товара: либо id, либо вложенный объект.
type categoryRef struct {
	ID int
}

func (c *categoryRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		c.ID = obj.ID
		return nil
	}
	return json.Unmarshal(b, &c.ID)
}

type productDTO struct {
	ID         int           `json:"id"`
	Title      string        `json:"title"`
	Slug       string        `json:"slug"`
	Price      flexFloat     `json:"price"`
	Categories []categoryRef `json:"categories"`
	Location   *int          `json:"location"`
	CreatedAt  flexTime      `json:"created_at"`
}

type productsResponse struct {
	Count   int          `json:"count"`
	Results []productDTO `json:"results"`
}

func (dto productDTO) toDomain() domain.Product {
	p := domain.Product{
		ID:          dto.ID,
		Title:       dto.Title,
		Slug:        dto.Slug,
		Price:       float64(dto.Price),
		CategoryIDs: make([]int, len(dto.Categories)),
		CreatedAt:   dto.CreatedAt.Time,
	}
	for i, c := range dto.Categories {
		p.CategoryIDs[i] = c.ID
	}
	if dto.Location != nil {
		p.LocationID = *dto.Location
	}
	return p
}

type facetDTO struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent *int   `json:"parent"`
}

func (dto facetDTO) toDomain() domain.FacetItem {
	item := domain.FacetItem{ID: dto.ID, Name: dto.Name, Slug: dto.Slug}
	if dto.Parent != nil {
		item.ParentID = *dto.Parent
	}
	return item
}

type reviewProductDTO struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type reviewDTO struct {
	ID           int               `json:"id"`
	Rating       int               `json:"rating"`
	Comment      *string           `json:"comment"`
	Status       int               `json:"status"`
	Flagged      bool              `json:"flagged"`
	Response     *string           `json:"response"`
	ResponseDate flexTime          `json:"response_date"`
	CreatedAt    flexTime          `json:"created_at"`
	Product      *reviewProductDTO `json:"product"`
	Name         *string           `json:"Name"`
	Email        *string           `json:"Email"`
}

func (dto reviewDTO) toDomain() domain.Review {
	r := domain.Review{
		ID:           dto.ID,
		Rating:       dto.Rating,
		Comment:      deref(dto.Comment),
		Status:       domain.ReviewStatus(dto.Status),
		Flagged:      dto.Flagged,
		Response:     dto.Response,
		ResponseDate: dto.ResponseDate.ptr(),
		CreatedAt:    dto.CreatedAt.Time,
		Name:         deref(dto.Name),
		Email:        deref(dto.Email),
	}
	if dto.Product != nil {
		r.Product = &domain.ReviewProduct{ID: dto.Product.ID, Title: dto.Product.Title}
	}
	return r
}

type reviewsEnvelope struct {
	Results []reviewDTO `json:"results"`
	Data    []reviewDTO `json:"data"`
	Count   *int        `json:"count"`
}

type approvalRequest struct {
	Status int `json:"status"`
}

type adminResponseRequest struct {
	Response string `json:"response"`
}

type adminResponseResponse struct {
	Response     *string  `json:"response"`
	ResponseDate flexTime `json:"response_date"`
}

type visitRequest struct {
	ItemID    int       `json:"item_id"`
	ItemType  string    `json:"item_type"`
	Timestamp time.Time `json:"timestamp"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
