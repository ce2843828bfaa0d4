package model

import "time"

// 配送先住所
type Address struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//is_default=trueはユーザーごとに1件まで（部分ユニークインデックス）
	UserID int64 `gorm:"not null;index;uniqueIndex:idx_addresses_user_default,where:is_default = true" json:"user_id"`

	//宛名
	FullName string `gorm:"type:varchar(255);not null" json:"full_name"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	//番地など
	Street string `gorm:"type:varchar(255);not null" json:"street"`

	City  string `gorm:"type:varchar(100);not null" json:"city"`
	State string `gorm:"type:varchar(100);not null" json:"state"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	Country string `gorm:"type:varchar(100);not null" json:"country"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
