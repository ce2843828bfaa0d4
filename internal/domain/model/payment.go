package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "created"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

const DefaultCurrency = "INR"

// 決済プロバイダ（Razorpay）の取引と注文の紐付け
type Payment struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64           `gorm:"not null;index" json:"order_id"`
	UserID            int64           `gorm:"not null;index" json:"user_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Method            PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	ProviderOrderID   string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID *string         `gorm:"type:varchar(64)" json:"provider_payment_id"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidAt            *time.Time      `json:"paid_at"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
