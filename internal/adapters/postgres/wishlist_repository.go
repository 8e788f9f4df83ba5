package postgres_adapter

import (
	"context"
	"errors"
	"fmt"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const createWishlistTable = `
CREATE TABLE IF NOT EXISTS wishlist_items (
	user_id    TEXT        NOT NULL,
	product_id INTEGER     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, product_id)
)`

// Querier - подмножество pgxpool.Pool, которым пользуется репозиторий.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// WishlistRepository хранит список желаний в таблице wishlist_items.
type WishlistRepository struct {
	db Querier
}

var _ port.WishlistRepositoryPort = (*WishlistRepository)(nil)

func NewWishlistRepository(db Querier) (*WishlistRepository, error) {
	if db == nil {
		return nil, errors.New("postgres querier cannot be nil")
	}
	return &WishlistRepository{db: db}, nil
}

// EnsureSchema создает таблицу, если её нет.
func (r *WishlistRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createWishlistTable); err != nil {
		return fmt.Errorf("failed to create wishlist_items table: %w", err)
	}
	return nil
}

// Add добавляет товар; повторное добавление не считается ошибкой.
func (r *WishlistRepository) Add(ctx context.Context, userID string, productID int) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "WishlistRepository",
		"method":     "Add",
		"user_id":    userID,
		"product_id": productID,
	})

	query := `INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, userID, productID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			repoLogger.Debug("Wishlist item already exists", nil)
			return nil
		}
		repoLogger.Error("Failed to add wishlist item", err, nil)
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}

	repoLogger.Debug("Wishlist item added", nil)
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID string, productID int) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "WishlistRepository",
		"method":     "Remove",
		"user_id":    userID,
		"product_id": productID,
	})

	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`
	tag, err := r.db.Exec(ctx, query, userID, productID)
	if err != nil {
		repoLogger.Error("Failed to remove wishlist item", err, nil)
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		repoLogger.Warn("Attempted to remove a wishlist item that did not exist", nil)
	}
	return nil
}

// FindByUser возвращает элементы в порядке добавления.
func (r *WishlistRepository) FindByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "WishlistRepository",
		"method":    "FindByUser",
		"user_id":   userID,
	})

	query := `SELECT user_id, product_id, created_at FROM wishlist_items WHERE user_id = $1 ORDER BY created_at, product_id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		repoLogger.Error("Failed to query wishlist", err, nil)
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.WishlistItem, error) {
		var item domain.WishlistItem
		err := row.Scan(&item.UserID, &item.ProductID, &item.CreatedAt)
		return item, err
	})
	if err != nil {
		repoLogger.Error("Failed to scan wishlist rows", err, nil)
		return nil, fmt.Errorf("failed to scan wishlist rows: %w", err)
	}
	return items, nil
}
