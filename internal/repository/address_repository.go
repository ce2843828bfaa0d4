package repository

import (
	"context"

	"bookbazar/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)

	//同じ内容の住所がすでにあるか
	ExistsSame(ctx context.Context, address model.Address) (bool, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//住所がそのユーザーのものか
	IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error)

	//デフォルトを外してから指定住所をデフォルトにする（Tx内で呼ぶ）
	SetDefault(ctx context.Context, userID, addressID int64) error
}
