package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

const checkoutLockTTL = 30 * time.Second

// Tx内で一意制約に当たったときにTxの外で再検索する
var errIdempotencyRace = errors.New("idempotency key race")

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	addresses  repo.AddressRepository
	users      repo.UserRepository
	locker     Locker
	mailer     Mailer
	idGen      auth.IDGenerator
	clock      auth.Clock
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	locker Locker,
	mailer Mailer,
	idGen auth.IDGenerator,
	clock auth.Clock,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		addresses:  addresses,
		users:      users,
		locker:     locker,
		mailer:     mailer,
		idGen:      idGen,
		clock:      clock,
	}
}

type PlaceOrderInput struct {
	AddressID      int64
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
}

type OrderItemOutput struct {
	BookID   int64           `json:"book_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID                int64               `json:"id"`
	UserID            int64               `json:"user_id"`
	ShippingAddressID int64               `json:"shipping_address_id"`
	PaymentMethod     model.PaymentMethod `json:"payment_method"`
	Status            model.OrderStatus   `json:"status"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Items             []OrderItemOutput   `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type OrderStatusOutput struct {
	ID     int64             `json:"id"`
	Status model.OrderStatus `json:"status"`
}

func validPaymentMethod(m model.PaymentMethod) bool {
	switch m {
	case model.PaymentMethodCOD, model.PaymentMethodCard, model.PaymentMethodUPI:
		return true
	default:
		return false
	}
}

// カート→注文。在庫減算・注文作成・カート削除は1つのTx
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	var details []ErrorDetail
	if in.AddressID <= 0 {
		details = append(details, ErrorDetail{Field: "shipping_address_id", Message: "shipping_address_id is required"})
	}
	if !validPaymentMethod(in.PaymentMethod) {
		details = append(details, ErrorDetail{Field: "payment_method", Message: "payment_method must be one of cod card upi"})
	}
	if len(details) > 0 {
		return OrderOutput{}, NewValidationError(details)
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = u.idGen.NewID()
	}
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}

	//同じユーザーのチェックアウトを直列化
	lockKey := "checkout:" + strconv.FormatInt(userID, 10)
	token, locked, err := u.locker.Acquire(ctx, lockKey, checkoutLockTTL)
	if err != nil {
		//Redisが落ちていてもTxと条件付き在庫更新で整合性は保てる
		log.Warnf("checkout lock unavailable user_id=%d: %v", userID, err)
	} else if !locked {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "checkout already in progress")
	} else {
		defer func() {
			if err := u.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
				log.Warnf("release checkout lock user_id=%d: %v", userID, err)
			}
		}()
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return OrderOutput{}, errDB
	}
	if addr.UserID != userID {
		return OrderOutput{}, errForbidden
	}

	var out OrderOutput
	created := false

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return errDB
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return errDB
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return errDB
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		orderItems := make([]model.OrderItem, 0, len(cartItems))
		total := decimal.Zero
		now := u.clock.Now()

		for _, ci := range cartItems {
			b, err := r.Books().FindByID(ctx, ci.BookID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("book %d is no longer available", ci.BookID))
			}
			if err != nil {
				return errDB
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.BookID, ci.Quantity)
			if err != nil {
				return errDB
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("out of stock: %s", b.Title))
			}

			//スナップショット
			item := model.OrderItem{
				BookID:    b.ID,
				Title:     b.Title,
				Price:     b.Price,
				Quantity:  ci.Quantity,
				CreatedAt: now,
			}
			orderItems = append(orderItems, item)
			total = total.Add(item.Subtotal())
		}

		order := model.Order{
			UserID:            userID,
			ShippingAddressID: in.AddressID,
			PaymentMethod:     in.PaymentMethod,
			Status:            model.OrderStatusPending,
			TotalPrice:        total,
			IdempotencyKey:    key,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			return errIdempotencyRace
		}
		if err != nil {
			return errDB
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return errDB
		}

		//注文が書けてからカートを空にする
		if err := r.CartItems().DeleteAllByUserID(ctx, userID); err != nil {
			return errDB
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		created = true
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		return u.findByIdempotencyKey(ctx, userID, key)
	}
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		u.sendConfirmation(ctx, userID, out)
	}
	return out, nil
}

func (u *OrderUsecase) findByIdempotencyKey(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	o, found, err := u.orders.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return OrderOutput{}, errDB
	}
	if !found {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency key conflict")
	}
	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return toOrderOutput(o, items), nil
}

// 失敗してもログだけ
func (u *OrderUsecase) sendConfirmation(ctx context.Context, userID int64, out OrderOutput) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		log.Warnf("order confirmation: load user_id=%d: %v", userID, err)
		return
	}
	order := model.Order{
		ID:            out.ID,
		UserID:        out.UserID,
		PaymentMethod: out.PaymentMethod,
		Status:        out.Status,
		TotalPrice:    out.TotalPrice,
	}
	items := make([]model.OrderItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, model.OrderItem{BookID: it.BookID, Title: it.Title, Price: it.Price, Quantity: it.Quantity})
	}
	if err := u.mailer.SendOrderConfirmation(ctx, user.Email, order, items); err != nil {
		log.Warnf("order confirmation: send order_id=%d: %v", out.ID, err)
	}
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, errDB
	}

	outs, err := u.withItems(ctx, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	o, err := u.findOwnOrder(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return toOrderOutput(o, items), nil
}

func (u *OrderUsecase) GetOrderStatus(ctx context.Context, userID int64, orderID int64) (OrderStatusOutput, error) {
	o, err := u.findOwnOrder(ctx, userID, orderID)
	if err != nil {
		return OrderStatusOutput{}, err
	}
	return OrderStatusOutput{ID: o.ID, Status: o.Status}, nil
}

// 発送前のみ。キャンセルと在庫戻しは同じTx
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return errNotFound
		}
		if !o.Status.Cancellable() {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("order cannot be cancelled in status %s", o.Status))
		}

		items, err := transitionOrder(ctx, r, o, model.OrderStatusCancelled)
		if err != nil {
			return err
		}

		o.Status = model.OrderStatusCancelled
		o.UpdatedAt = u.clock.Now()
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) findOwnOrder(ctx context.Context, userID int64, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, errUnauthorized
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, errNotFound
	}
	if err != nil {
		return model.Order{}, errDB
	}
	if o.UserID != userID {
		return model.Order{}, errNotFound
	}
	return o, nil
}

func (u *OrderUsecase) withItems(ctx context.Context, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, errDB
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

// 条件付き更新でステータスを変え、cancelledなら在庫を戻す。
// 更新が0件なら他のリクエストが先に変えている。
func transitionOrder(ctx context.Context, r repo.TxRepos, o model.Order, to model.OrderStatus) ([]model.OrderItem, error) {
	ok, err := r.Orders().UpdateStatusIf(ctx, o.ID, o.Status, to)
	if err != nil {
		return nil, errDB
	}
	if !ok {
		return nil, NewHTTPError(http.StatusConflict, "order status was changed concurrently")
	}

	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return nil, errDB
	}
	if to == model.OrderStatusCancelled {
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.BookID, it.Quantity); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, errDB
			}
		}
	}
	return items, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			BookID:   it.BookID,
			Title:    it.Title,
			Price:    it.Price,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:                o.ID,
		UserID:            o.UserID,
		ShippingAddressID: o.ShippingAddressID,
		PaymentMethod:     o.PaymentMethod,
		Status:            o.Status,
		TotalPrice:        o.TotalPrice,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Items:             outItems,
	}
}
