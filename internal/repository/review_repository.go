package repository

import (
	"context"

	"bookbazar/internal/domain/model"
)

// レビュー（ドキュメントDB）
type ReviewRepository interface {
	// (user_id, book_id) が重複したら ErrDuplicate
	Create(ctx context.Context, r model.Review) (model.Review, error)
	ListByBookID(ctx context.Context, bookID int64, page int, limit int) ([]model.Review, int64, error)
	FindByID(ctx context.Context, id string) (model.Review, error)
	Delete(ctx context.Context, id string) error
}
