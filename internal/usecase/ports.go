package usecase

import (
	"context"
	"time"

	"bookbazar/internal/domain/model"
)

// メール送信（失敗してもリクエストは失敗させない）
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, token string) error
	SendPasswordResetEmail(ctx context.Context, to, name, token string) error
	SendOrderConfirmation(ctx context.Context, to string, order model.Order, items []model.OrderItem) error
}

// 決済プロバイダ
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// ユーザー単位の排他（チェックアウト）
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key string, token string) error
}
