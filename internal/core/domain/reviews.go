package domain

import "time"

// ReviewStatus - статус модерации отзыва.
type ReviewStatus int

const (
	ReviewTrashed  ReviewStatus = -1
	ReviewPending  ReviewStatus = 0
	ReviewApproved ReviewStatus = 1
)

// Valid сообщает, допустим ли статус.
func (s ReviewStatus) Valid() bool {
	return s == ReviewTrashed || s == ReviewPending || s == ReviewApproved
}

// ReviewProduct - краткая ссылка на товар, к которому оставлен отзыв.
type ReviewProduct struct {
	ID    int
	Title string
}

// Review - отзыв покупателя. Источник истины - удаленное хранилище,
// дашборд держит локальную копию и меняет её только после подтвержденной записи.
type Review struct {
	ID           int
	Rating       int
	Comment      string
	Status       ReviewStatus
	Flagged      bool
	Response     *string
	ResponseDate *time.Time
	CreatedAt    time.Time
	Product      *ReviewProduct
	Name         string
	Email        string
}

// ReviewCollection - нормализованный ответ списка отзывов.
type ReviewCollection struct {
	Reviews []Review
	Count   int
}

// ReviewLoadStatus - состояние загрузки дашборда.
type ReviewLoadStatus string

const (
	ReviewsIdle    ReviewLoadStatus = "idle"
	ReviewsLoading ReviewLoadStatus = "loading"
	ReviewsReady   ReviewLoadStatus = "ready"
	ReviewsError   ReviewLoadStatus = "error"
)

// Ключи фильтра по статусу.
const (
	ReviewFilterAll      = "all"
	ReviewFilterApproved = "approved"
	ReviewFilterPending  = "pending"
	ReviewFilterFlagged  = "flagged"
)

// Ключи сортировки.
const (
	ReviewSortNewest     = "newest"
	ReviewSortOldest     = "oldest"
	ReviewSortRatingHigh = "rating-high"
	ReviewSortRatingLow  = "rating-low"
	ReviewSortName       = "name"
	ReviewSortProduct    = "product"
)

// ReviewQuery - эфемерное UI-состояние, от которого зависит производное представление.
// RatingFilter == 0 означает "all".
type ReviewQuery struct {
	Search       string
	FilterBy     string
	RatingFilter int
	SortBy       string
	Page         int
	PageSize     int
}

// ReviewView - результат DeriveReviewView.
type ReviewView struct {
	Filtered   []Review
	Paginated  []Review
	TotalPages int
	TotalCount int
	Page       int
}

// ReviewDashboardState - снимок состояния дашборда модерации.
type ReviewDashboardState struct {
	Status         ReviewLoadStatus
	Reviews        []Review
	TotalPages     int
	Error          string
	ShowErrorModal bool
	Query          ReviewQuery
	UpdatingIDs    []int
	DeletingIDs    []int

	ReviewToRespond *Review
	ResponseText    string
	ShowResponse    bool
}
