package model

import "time"

// カートの明細
// 価格は持たない（注文確定時に最新価格で計算する）
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_book" json:"user_id"`
	BookID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_book;index" json:"book_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
