package domain

// FilterType - измерение фасетного поиска.
type FilterType string

const (
	FilterLocations     FilterType = "locations"
	FilterSublocations  FilterType = "sublocations"
	FilterCategories    FilterType = "categories"
	FilterSubcategories FilterType = "subcategories"
	FilterPrice         FilterType = "price"
	FilterQuery         FilterType = "query"
)

// Valid сообщает, известен ли тип фильтра.
func (t FilterType) Valid() bool {
	switch t {
	case FilterLocations, FilterSublocations, FilterCategories, FilterSubcategories, FilterPrice, FilterQuery:
		return true
	}
	return false
}

// ChildType возвращает дочерний тип для родительского фасета
// (categories -> subcategories, locations -> sublocations).
func (t FilterType) ChildType() (FilterType, bool) {
	switch t {
	case FilterCategories:
		return FilterSubcategories, true
	case FilterLocations:
		return FilterSublocations, true
	}
	return "", false
}

// ParentType - обратное отображение для ChildType.
func (t FilterType) ParentType() (FilterType, bool) {
	switch t {
	case FilterSubcategories:
		return FilterCategories, true
	case FilterSublocations:
		return FilterLocations, true
	}
	return "", false
}

// FilterEntry - одно активное значение фасета.
type FilterEntry struct {
	Type FilterType
	ID   int
	Name string
	Min  *float64
	Max  *float64

	// ParentID - id родительской категории/локации для дочерних записей, 0 если неизвестен.
	ParentID int
}

// Key возвращает пару (type, id), по которой записи уникальны.
func (e FilterEntry) Key() FilterKey {
	return FilterKey{Type: e.Type, ID: e.ID}
}

// FilterKey - ключ уникальности записи фильтра.
type FilterKey struct {
	Type FilterType
	ID   int
}

// FacetItem - элемент справочника (категория, подкатегория, локация, подлокация).
type FacetItem struct {
	ID       int
	Name     string
	Slug     string
	ParentID int
}

// CloneFilters возвращает независимую копию среза фильтров.
func CloneFilters(filters []FilterEntry) []FilterEntry {
	out := make([]FilterEntry, len(filters))
	copy(out, filters)
	return out
}
