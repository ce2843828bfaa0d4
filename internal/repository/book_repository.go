package repository

import (
	"context"

	"bookbazar/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type BookListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// 書籍の永続化（保存・取得）だけを約束。
type BookRepository interface {
	List(ctx context.Context, q BookListQuery) ([]model.Book, int64, error)
	FindByID(ctx context.Context, id int64) (model.Book, error)
	// まとめて取得（削除済みは含まない）
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Book, error)

	Create(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, b model.Book) error
	SoftDelete(ctx context.Context, id int64) error
}
