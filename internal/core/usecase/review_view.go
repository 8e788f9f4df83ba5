package usecase

import (
	"sort"
	"storefront-service/internal/core/domain"
	"strings"
)

const DefaultReviewsPageSize = 20

// DeriveReviewView - чистая функция: поиск, фильтр по статусу и рейтингу,
// стабильная сортировка и пагинация локальной копии отзывов.
func DeriveReviewView(reviews []domain.Review, q domain.ReviewQuery) domain.ReviewView {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	filtered := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if search != "" && !reviewMatches(r, search) {
			continue
		}
		if !statusMatches(r, q.FilterBy) {
			continue
		}
		if q.RatingFilter != 0 && r.Rating != q.RatingFilter {
			continue
		}
		filtered = append(filtered, r)
	}

	if less := reviewLess(q.SortBy, filtered); less != nil {
		sort.SliceStable(filtered, less)
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultReviewsPageSize
	}
	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	page := ClipPage(q.Page, totalPages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	paginated := make([]domain.Review, end-start)
	copy(paginated, filtered[start:end])

	return domain.ReviewView{
		Filtered:   filtered,
		Paginated:  paginated,
		TotalPages: totalPages,
		TotalCount: total,
		Page:       page,
	}
}

// ClipPage приводит номер страницы к диапазону [1, totalPages].
func ClipPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

func reviewMatches(r domain.Review, search string) bool {
	fields := []string{r.Name, r.Email, r.Comment}
	if r.Product != nil {
		fields = append(fields, r.Product.Title)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func statusMatches(r domain.Review, filterBy string) bool {
	switch filterBy {
	case domain.ReviewFilterApproved:
		return r.Status == domain.ReviewApproved
	case domain.ReviewFilterPending:
		return r.Status == domain.ReviewPending
	case domain.ReviewFilterFlagged:
		return r.Flagged
	default:
		return true
	}
}

func reviewLess(sortBy string, rs []domain.Review) func(i, j int) bool {
	switch sortBy {
	case domain.ReviewSortNewest:
		return func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) }
	case domain.ReviewSortOldest:
		return func(i, j int) bool { return rs[i].CreatedAt.Before(rs[j].CreatedAt) }
	case domain.ReviewSortRatingHigh:
		return func(i, j int) bool { return rs[i].Rating > rs[j].Rating }
	case domain.ReviewSortRatingLow:
		return func(i, j int) bool { return rs[i].Rating < rs[j].Rating }
	case domain.ReviewSortName:
		return func(i, j int) bool { return rs[i].Name < rs[j].Name }
	case domain.ReviewSortProduct:
		return func(i, j int) bool { return productTitle(rs[i]) < productTitle(rs[j]) }
	}
	return nil
}

func productTitle(r domain.Review) string {
	if r.Product == nil {
		return ""
	}
	return r.Product.Title
}
