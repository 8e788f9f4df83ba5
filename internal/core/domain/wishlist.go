package domain

import "time"

// WishlistItem - товар в списке желаний пользователя.
type WishlistItem struct {
	UserID    string
	ProductID int
	CreatedAt time.Time
}
