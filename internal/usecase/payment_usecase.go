package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// 決済の開始と署名検証。注文ステータスは進めない
type PaymentUsecase struct {
	orders   repo.OrderRepository
	payments repo.PaymentRepository
	gateway  PaymentGateway
	clock    auth.Clock
}

func NewPaymentUsecase(orders repo.OrderRepository, payments repo.PaymentRepository, gateway PaymentGateway, clock auth.Clock) *PaymentUsecase {
	return &PaymentUsecase{orders: orders, payments: payments, gateway: gateway, clock: clock}
}

// クライアントがCheckoutを開くのに必要な値
type InitiatePaymentOutput struct {
	PaymentID       int64           `json:"payment_id"`
	OrderID         int64           `json:"order_id"`
	ProviderOrderID string          `json:"razorpay_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	AmountSubunits  int64           `json:"amount_subunits"`
	Currency        string          `json:"currency"`
	KeyID           string          `json:"key_id"`
}

type VerifyPaymentInput struct {
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
}

type PaymentListOutput struct {
	Items []model.Payment `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *PaymentUsecase) Initiate(ctx context.Context, userID int64, orderID int64) (InitiatePaymentOutput, error) {
	if userID <= 0 {
		return InitiatePaymentOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return InitiatePaymentOutput{}, errDB
	}
	if o.UserID != userID {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if o.Status != model.OrderStatusPending {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "order is not awaiting payment")
	}
	if o.PaymentMethod == model.PaymentMethodCOD {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "cash on delivery orders are not paid online")
	}

	//INRの最小単位（paise）
	subunits := o.TotalPrice.Mul(hundred).Round(0).IntPart()
	if subunits <= 0 {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "order total must be positive")
	}

	providerOrderID, err := u.gateway.CreateOrder(ctx, subunits, model.DefaultCurrency, "order_"+strconv.FormatInt(o.ID, 10))
	if err != nil {
		log.Errorf("create provider order order_id=%d: %v", o.ID, err)
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider unavailable")
	}

	now := u.clock.Now()
	p, err := u.payments.Create(ctx, model.Payment{
		OrderID:         o.ID,
		UserID:          userID,
		Amount:          o.TotalPrice,
		Currency:        model.DefaultCurrency,
		Method:          o.PaymentMethod,
		ProviderOrderID: providerOrderID,
		Status:          model.PaymentStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return InitiatePaymentOutput{}, errDB
	}

	return InitiatePaymentOutput{
		PaymentID:       p.ID,
		OrderID:         o.ID,
		ProviderOrderID: providerOrderID,
		Amount:          o.TotalPrice,
		AmountSubunits:  subunits,
		Currency:        model.DefaultCurrency,
		KeyID:           u.gateway.KeyID(),
	}, nil
}

// 署名が一致したときだけpaidにする。不一致なら何も変えない
func (u *PaymentUsecase) Verify(ctx context.Context, userID int64, in VerifyPaymentInput) (model.Payment, error) {
	if userID <= 0 {
		return model.Payment{}, errUnauthorized
	}
	//署名もidも受け取ったまま比較する（トリムしない）
	var details []ErrorDetail
	if strings.TrimSpace(in.ProviderOrderID) == "" {
		details = append(details, ErrorDetail{Field: "razorpay_order_id", Message: "razorpay_order_id is required"})
	}
	if strings.TrimSpace(in.ProviderPaymentID) == "" {
		details = append(details, ErrorDetail{Field: "razorpay_payment_id", Message: "razorpay_payment_id is required"})
	}
	if strings.TrimSpace(in.Signature) == "" {
		details = append(details, ErrorDetail{Field: "razorpay_signature", Message: "razorpay_signature is required"})
	}
	if len(details) > 0 {
		return model.Payment{}, NewValidationError(details)
	}

	p, err := u.payments.FindByProviderOrderID(ctx, in.ProviderOrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return model.Payment{}, errDB
	}
	if p.UserID != userID {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, "payment not found")
	}

	if !u.gateway.VerifySignature(in.ProviderOrderID, in.ProviderPaymentID, in.Signature) {
		log.Warnf("payment signature mismatch payment_id=%d", p.ID)
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid payment signature")
	}

	//すでにpaidなら同じ結果を返す
	if p.Status == model.PaymentStatusPaid {
		return p, nil
	}

	now := u.clock.Now()
	ok, err := u.payments.MarkPaid(ctx, p.ID, in.ProviderPaymentID, now)
	if err != nil {
		return model.Payment{}, errDB
	}
	if !ok {
		return model.Payment{}, NewHTTPError(http.StatusConflict, "payment is not awaiting capture")
	}

	p.Status = model.PaymentStatusPaid
	p.ProviderPaymentID = &in.ProviderPaymentID
	p.PaidAt = &now
	p.UpdatedAt = now
	return p, nil
}

func (u *PaymentUsecase) ListMine(ctx context.Context, userID int64) ([]model.Payment, error) {
	if userID <= 0 {
		return nil, errUnauthorized
	}
	items, err := u.payments.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB
	}
	return items, nil
}

func (u *PaymentUsecase) AdminList(ctx context.Context, f repo.AdminPaymentListFilter) (PaymentListOutput, error) {
	if f.Page < 1 {
		return PaymentListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return PaymentListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	switch model.PaymentStatus(f.Status) {
	case "", model.PaymentStatusCreated, model.PaymentStatusPaid, model.PaymentStatusFailed:
	default:
		return PaymentListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	items, total, err := u.payments.ListAdmin(ctx, f)
	if err != nil {
		return PaymentListOutput{}, errDB
	}
	return PaymentListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
