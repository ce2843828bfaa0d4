package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	auditLogs  repo.AuditLogRepository
	clock      auth.Clock
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	auditLogs repo.AuditLogRepository,
	clock auth.Clock,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, orderItems: orderItems, auditLogs: auditLogs, clock: clock}
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, errDB
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, errDB
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return OrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// 遷移表にない変更は400。cancelledなら在庫戻し
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, status string) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
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

		// すでに同じなら何もしない
		if o.Status == next {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return errDB
			}
			out = toOrderOutput(o, items)
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
		}

		items, err := transitionOrder(ctx, r, o, next)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(next) + `"}`,
			CreatedAt:    now,
		}); err != nil {
			return errDB
		}

		o.Status = next
		o.UpdatedAt = now
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AdminAuditLogListFilter) (AuditLogListOutput, error) {
	if f.Page < 1 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Action != "" && !f.Action.Valid() {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if f.ResourceType != "" && !f.ResourceType.Valid() {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid range")
	}

	logs, total, err := u.auditLogs.ListAdmin(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, errDB
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// 期間パラメータ（RFC3339）
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
