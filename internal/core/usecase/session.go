package usecase

import (
	"context"
	"fmt"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StorefrontSession - явный контейнер состояния одного клиента витрины:
// фильтры, оркестратор каталога и дашборд модерации.
type StorefrontSession struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt time.Time

	Filters  *FilterReducer
	Products *ProductQuery
	Reviews  *ReviewModeration
}

// ToggleFilter переключает фасет и перезапускает отложенный запрос с первой страницы.
func (s *StorefrontSession) ToggleFilter(ctx context.Context, filterType domain.FilterType, id int) ([]domain.FilterEntry, error) {
	filters, err := s.Filters.Toggle(ctx, filterType, id)
	if err != nil {
		return nil, err
	}
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, filters)
	return filters, nil
}

// RemoveFilter удаляет запись по id (чип "x") и перезапускает запрос.
func (s *StorefrontSession) RemoveFilter(id int) []domain.FilterEntry {
	filters := s.Filters.RemoveFilter(id)
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, filters)
	return filters
}

// ClearFilters сбрасывает все фасеты и перезапускает запрос.
func (s *StorefrontSession) ClearFilters() {
	s.Filters.ClearAll()
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, nil)
}

// SetPriceRange задает ценовой диапазон и перезапускает запрос.
func (s *StorefrontSession) SetPriceRange(min, max *float64) []domain.FilterEntry {
	filters := s.Filters.SetPriceRange(min, max)
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, filters)
	return filters
}

// SetSearch меняет текст поиска и перезапускает отложенный запрос с первой страницы
// с текущими фильтрами.
func (s *StorefrontSession) SetSearch(query string) {
	s.Products.SetQuery(query)
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, s.Filters.Filters())
}

// SetCategory меняет выбранную категорию (slug или имя) и перезапускает запрос.
func (s *StorefrontSession) SetCategory(slug string) {
	s.Products.SetSelectedCategory(slug)
	s.Products.FetchDebounced(s.Products.OrderBy(), 1, s.Filters.Filters())
}

// FetchPage выполняет запрос страницы сразу, отменяя отложенный.
func (s *StorefrontSession) FetchPage(ctx context.Context, orderBy string, page int) {
	s.Products.FetchImmediate(ctx, orderBy, page, s.Filters.Filters())
}

// Close отменяет отложенную работу сессии и дожидается фоновых загрузок справочников.
func (s *StorefrontSession) Close() {
	s.Products.Close()
	s.Filters.Wait()
}

// SessionConfig - параметры, общие для всех сессий.
type SessionConfig struct {
	Products        ProductQueryConfig
	ReviewsPageSize int
}

// SessionRegistry создает и хранит сессии.
type SessionRegistry struct {
	catalog port.ProductCatalogPort
	facets  port.FacetCatalogPort
	reviews port.ReviewStorePort
	cfg     SessionConfig

	mu         sync.RWMutex
	sessions   map[uuid.UUID]*StorefrontSession
	categories []domain.FacetItem
	locations  []domain.FacetItem

	// refLoading - идет фоновая перезагрузка справочников
	refLoading bool
	refLoads   sync.WaitGroup
}

// referenceReloadTimeout ограничивает фоновую перезагрузку справочников.
const referenceReloadTimeout = 15 * time.Second

// NewSessionRegistry - конструктор.
func NewSessionRegistry(catalog port.ProductCatalogPort, facets port.FacetCatalogPort, reviews port.ReviewStorePort, cfg SessionConfig) *SessionRegistry {
	return &SessionRegistry{
		catalog:  catalog,
		facets:   facets,
		reviews:  reviews,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*StorefrontSession),
	}
}

// Create создает сессию и заполняет её уже загруженными справочниками.
// Если справочников еще нет (стартовая загрузка не удалась), запускается фоновая перезагрузка.
func (reg *SessionRegistry) Create(ctx context.Context, userID string) *StorefrontSession {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	session := &StorefrontSession{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
		Filters:   NewFilterReducer(reg.facets),
		Products:  NewProductQuery(ctx, reg.catalog, reg.cfg.Products),
		Reviews:   NewReviewModeration(reg.reviews, reg.cfg.ReviewsPageSize),
	}
	session.Filters.SetReferences(reg.categories, reg.locations)
	session.Products.ReplaceCategories(reg.categories)
	session.Products.FetchDebounced("", 1, nil)
	reg.sessions[session.ID] = session

	if len(reg.categories) == 0 && !reg.refLoading {
		reg.refLoading = true
		reg.refLoads.Add(1)
		go reg.reloadReferences(contextkeys.Detach(ctx))
	}

	contextkeys.LoggerFromContext(ctx).Info("Session created", port.Fields{
		"session_id": session.ID,
		"user_id":    userID,
	})
	return session
}

// Get возвращает сессию по id.
func (reg *SessionRegistry) Get(id uuid.UUID) (*StorefrontSession, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	session, ok := reg.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return session, nil
}

// Close закрывает и удаляет сессию.
func (reg *SessionRegistry) Close(id uuid.UUID) error {
	reg.mu.Lock()
	session, ok := reg.sessions[id]
	delete(reg.sessions, id)
	reg.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	session.Close()
	return nil
}

// CloseAll закрывает все сессии (graceful shutdown).
func (reg *SessionRegistry) CloseAll() {
	reg.mu.Lock()
	sessions := reg.sessions
	reg.sessions = make(map[uuid.UUID]*StorefrontSession)
	reg.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	reg.refLoads.Wait()
}

// Count - число открытых сессий.
func (reg *SessionRegistry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}

// SetReferences сохраняет справочники для новых сессий и раздает их открытым.
func (reg *SessionRegistry) SetReferences(categories, locations []domain.FacetItem) {
	reg.mu.Lock()
	reg.categories = cloneFacets(categories)
	reg.locations = cloneFacets(locations)
	open := make([]*StorefrontSession, 0, len(reg.sessions))
	for _, s := range reg.sessions {
		open = append(open, s)
	}
	reg.mu.Unlock()

	for _, s := range open {
		s.Filters.SetReferences(categories, locations)
		s.Products.ReplaceCategories(categories)
		s.Products.FetchDebounced(s.Products.OrderBy(), 1, s.Filters.Filters())
	}
}

func (reg *SessionRegistry) reloadReferences(ctx context.Context) {
	defer reg.refLoads.Done()
	defer func() {
		reg.mu.Lock()
		reg.refLoading = false
		reg.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, referenceReloadTimeout)
	defer cancel()

	if err := NewCatalogBootstrapUseCase(reg.facets, reg).Execute(ctx); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Reference lists are still unavailable", port.Fields{"error": err.Error()})
	}
}
