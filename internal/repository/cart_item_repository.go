package repository

import (
	"context"

	"bookbazar/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByUserAndBook(ctx context.Context, userID int64, bookID int64) (model.CartItem, error)
	// 同一書籍は数量をプラス、なければ作成
	Upsert(ctx context.Context, userID int64, bookID int64, addQty int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID int64, bookID int64, qty int64) error
	Delete(ctx context.Context, userID int64, bookID int64) error
	// チェックアウト後に空にする
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
