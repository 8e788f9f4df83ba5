package domain

import "time"

// Visit - событие просмотра страницы товара/поста.
type Visit struct {
	ItemID    int
	ItemType  string
	Timestamp time.Time
}
