package repository

import (
	"context"
	"time"

	"bookbazar/internal/domain/model"
)

type AdminPaymentListFilter struct {
	Page   int
	Limit  int
	Status string
}

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (model.Payment, error)
	// created のときだけ paid にする
	MarkPaid(ctx context.Context, paymentID int64, providerPaymentID string, paidAt time.Time) (bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Payment, error)
	ListAdmin(ctx context.Context, f AdminPaymentListFilter) ([]model.Payment, int64, error)
}
