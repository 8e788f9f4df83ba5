package domain

import "time"

// RequestDescriptor - все параметры одного запроса списка товаров.
// Не хранится, пересчитывается при каждом fetch.
type RequestDescriptor struct {
	OrderBy  string
	Page     int
	PageSize int
	Filters  []FilterEntry
	Query    string
}

// Product - карточка товара в том виде, в каком её отдает каталог.
type Product struct {
	ID            int
	Title         string
	Slug          string
	Price         float64
	CategoryIDs   []int
	CategoryNames []string
	LocationID    int
	CreatedAt     time.Time
}

// ProductPage - одна страница каталога.
type ProductPage struct {
	Results []Product
	Count   int
}

// ProductListState - снимок состояния оркестратора для отображения.
type ProductListState struct {
	Products   []Product
	TotalCount int
	Error      string
	Loading    bool
	OrderBy    string
	Page       int
	PageSize   int
	Query      string
	Category   string
	Filters    []FilterEntry
}
