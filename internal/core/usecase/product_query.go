package usecase

import (
	"context"
	"errors"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"storefront-service/pkg/debounce"
	"strings"
	"sync"
	"time"
)

const (
	DefaultProductsPageSize = 12
	DefaultProductsOrder    = "-created_at"
)

// ProductQueryConfig - параметры оркестратора запросов каталога.
type ProductQueryConfig struct {
	PageSize     int
	DefaultOrder string
	QuietWindow  time.Duration
}

// ProductQuery собирает дескриптор запроса из фильтров, текста поиска,
// выбранной категории и пагинации и выполняет запрос к каталогу.
// Ошибки не возвращаются вызывающему коду: они становятся частью состояния.
type ProductQuery struct {
	catalog   port.ProductCatalogPort
	debouncer *debounce.Debouncer
	baseCtx   context.Context

	mu               sync.Mutex
	pageSize         int
	orderBy          string
	page             int
	query            string
	selectedCategory string
	categories       []domain.FacetItem
	lastFilters      []domain.FilterEntry

	products   []domain.Product
	totalCount int
	errMsg     string
	loading    bool

	// generation растет с каждым запросом; применяется только ответ последнего
	generation uint64
}

// NewProductQuery - конструктор. ctx используется как родительский для отложенных запросов:
// из него берутся логгер и trace_id.
func NewProductQuery(ctx context.Context, catalog port.ProductCatalogPort, cfg ProductQueryConfig) *ProductQuery {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultProductsPageSize
	}
	if cfg.DefaultOrder == "" {
		cfg.DefaultOrder = DefaultProductsOrder
	}
	return &ProductQuery{
		catalog:   catalog,
		debouncer: debounce.New(cfg.QuietWindow),
		baseCtx:   contextkeys.Detach(ctx),
		pageSize:  cfg.PageSize,
		orderBy:   cfg.DefaultOrder,
		page:      1,
		products:  []domain.Product{},
	}
}

// BuildRequest строит дескриптор запроса из явных фильтров и текущего состояния поиска.
func (q *ProductQuery) BuildRequest(orderBy string, page int, filters []domain.FilterEntry) domain.RequestDescriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buildRequestLocked(orderBy, page, filters)
}

func (q *ProductQuery) buildRequestLocked(orderBy string, page int, filters []domain.FilterEntry) domain.RequestDescriptor {
	if orderBy == "" {
		orderBy = q.orderBy
	}
	if page < 1 {
		page = 1
	}
	query := strings.TrimSpace(q.query)
	return domain.RequestDescriptor{
		OrderBy:  orderBy,
		Page:     page,
		PageSize: q.pageSize,
		Filters:  MergeRequestFilters(filters, query, q.selectedCategory, q.categories),
		Query:    query,
	}
}

// MergeRequestFilters объединяет явные фильтры, синтетическую запись query
// и запись категории, найденную по slug/имени, удаляя дубликаты по (type, id).
// Остается первое вхождение.
func MergeRequestFilters(filters []domain.FilterEntry, query, selectedCategory string, categories []domain.FacetItem) []domain.FilterEntry {
	merged := make([]domain.FilterEntry, 0, len(filters)+2)
	merged = append(merged, filters...)

	if query = strings.TrimSpace(query); query != "" {
		merged = append(merged, domain.FilterEntry{Type: domain.FilterQuery, ID: 0, Name: query})
	}
	if category, ok := LookupCategory(categories, selectedCategory); ok {
		merged = append(merged, domain.FilterEntry{Type: domain.FilterCategories, ID: category.ID, Name: category.Name})
	}

	seen := make(map[domain.FilterKey]struct{}, len(merged))
	result := make([]domain.FilterEntry, 0, len(merged))
	for _, entry := range merged {
		if _, dup := seen[entry.Key()]; dup {
			continue
		}
		seen[entry.Key()] = struct{}{}
		result = append(result, entry)
	}
	return result
}

// LookupCategory ищет категорию по slug, затем по имени без учета регистра.
func LookupCategory(categories []domain.FacetItem, slugOrName string) (domain.FacetItem, bool) {
	slugOrName = strings.TrimSpace(slugOrName)
	if slugOrName == "" {
		return domain.FacetItem{}, false
	}
	for _, c := range categories {
		if c.Slug != "" && c.Slug == slugOrName {
			return c, true
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, slugOrName) {
			return c, true
		}
	}
	return domain.FacetItem{}, false
}

// Fetch выполняет запрос немедленно (клик по номеру страницы, повтор после ошибки).
func (q *ProductQuery) Fetch(ctx context.Context, orderBy string, page int, filters []domain.FilterEntry) {
	q.mu.Lock()
	q.generation++
	gen := q.generation
	req := q.buildRequestLocked(orderBy, page, filters)
	q.orderBy = req.OrderBy
	q.page = req.Page
	q.lastFilters = domain.CloneFilters(filters)
	q.loading = true
	q.mu.Unlock()

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":     "ProductQuery",
		"order_by":     req.OrderBy,
		"page":         req.Page,
		"filter_count": len(req.Filters),
		"generation":   gen,
	})
	logger.Debug("Fetching products", nil)

	result, err := q.catalog.ListProducts(ctx, req)
	if err == nil && (result == nil || result.Results == nil) {
		err = domain.ErrMalformedResponse
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if gen != q.generation {
		logger.Debug("Discarding out-of-order product response", port.Fields{"latest_generation": q.generation})
		return
	}
	q.loading = false

	if err != nil {
		logger.Error("Failed to fetch products", err, nil)
		q.products = []domain.Product{}
		q.totalCount = 0
		q.errMsg = productErrorMessage(err)
		return
	}

	q.products = annotateProducts(result.Results, q.categories)
	q.totalCount = result.Count
	q.errMsg = ""
	logger.Info("Products fetched", port.Fields{"total_count": result.Count, "items_on_page": len(result.Results)})
}

// FetchDebounced откладывает запрос до окна тишины; частые вызовы схлопываются в один.
// Аргументы фиксируются в момент вызова, фильтры сразу становятся текущими.
func (q *ProductQuery) FetchDebounced(orderBy string, page int, filters []domain.FilterEntry) {
	snapshot := domain.CloneFilters(filters)
	q.mu.Lock()
	q.lastFilters = domain.CloneFilters(snapshot)
	q.mu.Unlock()

	q.debouncer.Trigger(func() {
		q.Fetch(q.baseCtx, orderBy, page, snapshot)
	})
}

// FetchImmediate отменяет отложенный запрос и выполняет свой сразу,
// чтобы поздний отложенный запрос не перезаписал выбранную страницу.
func (q *ProductQuery) FetchImmediate(ctx context.Context, orderBy string, page int, filters []domain.FilterEntry) {
	q.debouncer.Immediate(func() {
		q.Fetch(ctx, orderBy, page, filters)
	})
}

// SetQuery меняет текст поиска. Запрос перезапускает вызывающий код.
func (q *ProductQuery) SetQuery(query string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.query = query
}

// SetSelectedCategory меняет выбранную категорию (slug или имя). Запрос перезапускает вызывающий код.
func (q *ProductQuery) SetSelectedCategory(slug string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.selectedCategory = slug
}

// ReplaceCategories обновляет справочник без перезапуска запроса.
func (q *ProductQuery) ReplaceCategories(categories []domain.FacetItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.categories = cloneFacets(categories)
}

// OrderBy возвращает текущий порядок сортировки.
func (q *ProductQuery) OrderBy() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.orderBy
}

// Snapshot возвращает копию состояния для отображения.
func (q *ProductQuery) Snapshot() domain.ProductListState {
	q.mu.Lock()
	defer q.mu.Unlock()

	products := make([]domain.Product, len(q.products))
	copy(products, q.products)
	return domain.ProductListState{
		Products:   products,
		TotalCount: q.totalCount,
		Error:      q.errMsg,
		Loading:    q.loading,
		OrderBy:    q.orderBy,
		Page:       q.page,
		PageSize:   q.pageSize,
		Query:      q.query,
		Category:   q.selectedCategory,
		Filters:    domain.CloneFilters(q.lastFilters),
	}
}

// Close отменяет отложенный запрос. Повторные FetchDebounced после Close игнорируются.
func (q *ProductQuery) Close() {
	q.debouncer.Close()
}

func annotateProducts(products []domain.Product, categories []domain.FacetItem) []domain.Product {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	out := make([]domain.Product, len(products))
	for i, p := range products {
		p.CategoryNames = make([]string, 0, len(p.CategoryIDs))
		for _, id := range p.CategoryIDs {
			if name, ok := names[id]; ok {
				p.CategoryNames = append(p.CategoryNames, name)
			}
		}
		out[i] = p
	}
	return out
}

func productErrorMessage(err error) string {
	if errors.Is(err, domain.ErrMalformedResponse) {
		return "Unexpected response from the product service"
	}
	return "Failed to load products. Please try again."
}
