package usecase

import (
	"context"
	"fmt"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilterReducer хранит набор активных фасетов и меняет его в ответ на действия пользователя.
// Справочники подкатегорий/подлокаций подгружаются асинхронно при выборе родителя.
type FilterReducer struct {
	facets port.FacetCatalogPort

	mu            sync.Mutex
	filters       []domain.FilterEntry
	categories    []domain.FacetItem
	locations     []domain.FacetItem
	subcategories []domain.FacetItem
	sublocations  []domain.FacetItem

	// поколение и владелец для каждого дочернего справочника:
	// ответ, пришедший для устаревшего поколения, отбрасывается
	childGen   map[domain.FilterType]uint64
	childOwner map[domain.FilterType]int

	loads sync.WaitGroup
}

// NewFilterReducer - конструктор.
func NewFilterReducer(facets port.FacetCatalogPort) *FilterReducer {
	return &FilterReducer{
		facets:     facets,
		childGen:   make(map[domain.FilterType]uint64),
		childOwner: make(map[domain.FilterType]int),
	}
}

// SetReferences задает справочники верхнего уровня, по которым резолвятся имена.
func (r *FilterReducer) SetReferences(categories, locations []domain.FacetItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = cloneFacets(categories)
	r.locations = cloneFacets(locations)
}

// Filters возвращает копию текущего набора фильтров.
func (r *FilterReducer) Filters() []domain.FilterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.CloneFilters(r.filters)
}

// Subcategories возвращает подкатегории выбранной категории.
func (r *FilterReducer) Subcategories() []domain.FacetItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneFacets(r.subcategories)
}

// Sublocations возвращает подлокации выбранной локации.
func (r *FilterReducer) Sublocations() []domain.FacetItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneFacets(r.sublocations)
}

// Toggle добавляет запись (type, id), если её нет, и удаляет, если есть.
func (r *FilterReducer) Toggle(ctx context.Context, filterType domain.FilterType, id int) ([]domain.FilterEntry, error) {
	if !filterType.Valid() {
		return nil, fmt.Errorf("unknown filter type %q: %w", filterType, domain.ErrInvalidFilter)
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "FilterReducer",
		"filter_type": filterType,
		"filter_id":   id,
	})

	r.mu.Lock()
	var loadChildren bool
	var loadGen uint64
	childType, isParent := filterType.ChildType()

	if idx := r.indexOfLocked(filterType, id); idx >= 0 {
		r.filters = append(r.filters[:idx], r.filters[idx+1:]...)
		if isParent {
			r.removeChildrenOfLocked(childType, id)
			if owner, ok := r.childOwner[childType]; ok && owner == id {
				r.clearChildListLocked(childType)
			}
		}
		logger.Debug("Filter toggled off", nil)
	} else {
		entry := r.resolveLocked(filterType, id)
		if isParent {
			r.removeChildrenOfLocked(childType, id)
		}
		if _, isChild := filterType.ParentType(); isChild {
			// выбрать можно только одну подкатегорию (подлокацию)
			r.removeTypeLocked(filterType)
		}
		r.filters = append(r.filters, entry)

		if isParent {
			r.childGen[childType]++
			r.childOwner[childType] = id
			loadGen = r.childGen[childType]
			loadChildren = true
		}
		logger.Debug("Filter toggled on", port.Fields{"filter_name": entry.Name})
	}

	r.dropOrphansLocked()
	snapshot := domain.CloneFilters(r.filters)
	r.mu.Unlock()

	if loadChildren {
		r.loads.Add(1)
		go r.loadChildren(contextkeys.Detach(ctx), childType, id, loadGen)
	}

	return snapshot, nil
}

// RemoveFilter удаляет одну запись по id (первое совпадение).
// Удаление категории/локации очищает и соответствующий дочерний справочник.
func (r *FilterReducer) RemoveFilter(id int) []domain.FilterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.filters {
		if entry.ID != id {
			continue
		}
		r.filters = append(r.filters[:i], r.filters[i+1:]...)
		if childType, isParent := entry.Type.ChildType(); isParent {
			r.removeChildrenOfLocked(childType, id)
			r.clearChildListLocked(childType)
		}
		break
	}

	r.dropOrphansLocked()
	return domain.CloneFilters(r.filters)
}

// ClearAll очищает модель фильтров и оба дочерних справочника.
func (r *FilterReducer) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters = nil
	r.clearChildListLocked(domain.FilterSubcategories)
	r.clearChildListLocked(domain.FilterSublocations)
}

// SetPriceRange заменяет единственную запись price. nil, nil удаляет её.
func (r *FilterReducer) SetPriceRange(min, max *float64) []domain.FilterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeTypeLocked(domain.FilterPrice)
	if min != nil || max != nil {
		r.filters = append(r.filters, domain.FilterEntry{
			Type: domain.FilterPrice,
			Name: priceLabel(min, max),
			Min:  min,
			Max:  max,
		})
	}
	return domain.CloneFilters(r.filters)
}

// Wait блокируется, пока не завершатся все запущенные загрузки дочерних справочников.
func (r *FilterReducer) Wait() {
	r.loads.Wait()
}

func (r *FilterReducer) loadChildren(ctx context.Context, childType domain.FilterType, parentID int, gen uint64) {
	defer r.loads.Done()

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "FilterReducer",
		"method":     "loadChildren",
		"child_type": childType,
		"parent_id":  parentID,
	})

	var (
		items []domain.FacetItem
		err   error
	)
	if childType == domain.FilterSubcategories {
		items, err = r.facets.ListSubCategories(ctx, parentID)
	} else {
		items, err = r.facets.ListSubLocations(ctx, parentID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.childGen[childType] != gen {
		logger.Debug("Discarding stale child list", nil)
		return
	}
	if err != nil {
		logger.Error("Failed to load child facets", err, nil)
		r.setChildListLocked(childType, nil)
		return
	}

	for i := range items {
		if items[i].ParentID == 0 {
			items[i].ParentID = parentID
		}
	}
	r.setChildListLocked(childType, items)
	logger.Debug("Child facets loaded", port.Fields{"count": len(items)})
}

func (r *FilterReducer) indexOfLocked(filterType domain.FilterType, id int) int {
	for i, entry := range r.filters {
		if entry.Type == filterType && entry.ID == id {
			return i
		}
	}
	return -1
}

func (r *FilterReducer) removeTypeLocked(filterType domain.FilterType) {
	kept := r.filters[:0]
	for _, entry := range r.filters {
		if entry.Type != filterType {
			kept = append(kept, entry)
		}
	}
	r.filters = kept
}

func (r *FilterReducer) removeChildrenOfLocked(childType domain.FilterType, parentID int) {
	kept := r.filters[:0]
	for _, entry := range r.filters {
		if entry.Type == childType && entry.ParentID == parentID {
			continue
		}
		kept = append(kept, entry)
	}
	r.filters = kept
}

// dropOrphansLocked: без родителя не может остаться ни одной дочерней записи.
func (r *FilterReducer) dropOrphansLocked() {
	hasCategory, hasLocation := false, false
	for _, entry := range r.filters {
		switch entry.Type {
		case domain.FilterCategories:
			hasCategory = true
		case domain.FilterLocations:
			hasLocation = true
		}
	}
	if !hasCategory {
		r.removeTypeLocked(domain.FilterSubcategories)
	}
	if !hasLocation {
		r.removeTypeLocked(domain.FilterSublocations)
	}
}

func (r *FilterReducer) clearChildListLocked(childType domain.FilterType) {
	r.childGen[childType]++
	delete(r.childOwner, childType)
	r.setChildListLocked(childType, nil)
}

func (r *FilterReducer) setChildListLocked(childType domain.FilterType, items []domain.FacetItem) {
	if childType == domain.FilterSubcategories {
		r.subcategories = items
	} else {
		r.sublocations = items
	}
}

func (r *FilterReducer) referenceLocked(filterType domain.FilterType) []domain.FacetItem {
	switch filterType {
	case domain.FilterCategories:
		return r.categories
	case domain.FilterSubcategories:
		return r.subcategories
	case domain.FilterLocations:
		return r.locations
	case domain.FilterSublocations:
		return r.sublocations
	}
	return nil
}

func (r *FilterReducer) resolveLocked(filterType domain.FilterType, id int) domain.FilterEntry {
	entry := domain.FilterEntry{Type: filterType, ID: id}

	for _, item := range r.referenceLocked(filterType) {
		if item.ID == id {
			entry.Name = item.Name
			entry.ParentID = item.ParentID
			break
		}
	}
	if entry.Name == "" {
		entry.Name = FallbackFilterName(filterType, id)
	}
	if _, isChild := filterType.ParentType(); isChild && entry.ParentID == 0 {
		if owner, ok := r.childOwner[filterType]; ok {
			entry.ParentID = owner
		}
	}
	return entry
}

// FallbackFilterName - имя для записи, которую не удалось найти в справочнике: "Categories 7".
func FallbackFilterName(filterType domain.FilterType, id int) string {
	return fmt.Sprintf("%s %d", cases.Title(language.English).String(string(filterType)), id)
}

func priceLabel(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("Price %.2f-%.2f", *min, *max)
	case min != nil:
		return fmt.Sprintf("Price from %.2f", *min)
	default:
		return fmt.Sprintf("Price up to %.2f", *max)
	}
}

func cloneFacets(items []domain.FacetItem) []domain.FacetItem {
	if items == nil {
		return nil
	}
	out := make([]domain.FacetItem, len(items))
	copy(out, items)
	return out
}
