package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	"bookbazar/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdminOrderUsecase(f *orderFixture) *usecase.AdminOrderUsecase {
	return usecase.NewAdminOrderUsecase(f.tx, f.orders, f.orderItems, f.audit, fixedClock{now: testNow})
}

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "lost"})
	assertErrContains(t, err, "invalid status")
	f.orders.AssertNotCalled(t, "ListAdmin", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_List_OK(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)

	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "paid"}
	f.orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{{ID: 1, Status: model.OrderStatusPaid}}, int64(1), nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	out, err := uc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, model.OrderStatusPaid, out.Items[0].Status)
}

func TestAdminOrderUsecase_UpdateStatus_InvalidTransition(t *testing.T) {
	cases := []struct {
		from model.OrderStatus
		to   string
	}{
		{model.OrderStatusPending, "shipped"},
		{model.OrderStatusDelivered, "pending"},
		{model.OrderStatusCancelled, "paid"},
		{model.OrderStatusShipped, "cancelled"},
	}
	for _, c := range cases {
		t.Run(string(c.from)+"->"+c.to, func(t *testing.T) {
			f := newOrderFixture()
			uc := newAdminOrderUsecase(f)
			f.tx.On("WithinTx", mock.Anything).Return(nil)
			f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, Status: c.from}, nil)

			_, err := uc.UpdateStatus(context.Background(), 100, 9, c.to)
			assertHTTPStatus(t, err, http.StatusBadRequest)
			f.orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminOrderUsecase_UpdateStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)

	_, err := uc.UpdateStatus(context.Background(), 100, 9, "refunded")
	assertErrContains(t, err, "invalid status")
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, Status: model.OrderStatusPaid}, nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{}, nil)

	out, err := uc.UpdateStatus(context.Background(), 100, 9, "PAID")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, out.Status)
	f.orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_PaidWritesAudit(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, Status: model.OrderStatusPending}, nil)
	f.orders.On("UpdateStatusIf", mock.Anything, int64(9), model.OrderStatusPending, model.OrderStatusPaid).Return(true, nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{{BookID: 10, Quantity: 1}}, nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 100 &&
			l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceID == 9 &&
			l.BeforeJSON == `{"status":"pending"}` &&
			l.AfterJSON == `{"status":"paid"}`
	})).Return(nil).Once()

	out, err := uc.UpdateStatus(context.Background(), 100, 9, "paid")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, out.Status)

	f.audit.AssertExpectations(t)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_CancelPaidRestoresStock(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, Status: model.OrderStatusPaid}, nil)
	f.orders.On("UpdateStatusIf", mock.Anything, int64(9), model.OrderStatusPaid, model.OrderStatusCancelled).Return(true, nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{{BookID: 10, Quantity: 3}}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(10), int64(3)).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.UpdateStatus(context.Background(), 100, 9, "cancelled")
	require.NoError(t, err)
	f.inventory.AssertExpectations(t)
}

func TestAdminOrderUsecase_ListAuditLogs(t *testing.T) {
	f := newOrderFixture()
	uc := newAdminOrderUsecase(f)

	want := repo.AdminAuditLogListFilter{Page: 3, Limit: 10, Action: model.AuditActionUpdateStock}
	f.audit.On("ListAdmin", mock.Anything, want).Return([]model.AuditLog{{ID: 1}}, int64(21), nil)

	out, err := uc.ListAuditLogs(context.Background(), want)
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(21), out.Total)
	assert.Equal(t, 3, out.Page)
	assert.Equal(t, 10, out.Limit)
}

func TestAdminOrderUsecase_ListAuditLogs_InvalidFilter(t *testing.T) {
	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	cases := []struct {
		name string
		in   repo.AdminAuditLogListFilter
		msg  string
	}{
		{"page", repo.AdminAuditLogListFilter{Page: 0, Limit: 10}, "invalid page"},
		{"limit", repo.AdminAuditLogListFilter{Page: 1, Limit: 101}, "invalid limit"},
		{"action", repo.AdminAuditLogListFilter{Page: 1, Limit: 10, Action: "DROP_TABLE"}, "invalid action"},
		{"resource_type", repo.AdminAuditLogListFilter{Page: 1, Limit: 10, ResourceType: "cart"}, "invalid resource_type"},
		{"range", repo.AdminAuditLogListFilter{Page: 1, Limit: 10, From: &from, To: &to}, "invalid range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture()
			uc := newAdminOrderUsecase(f)

			_, err := uc.ListAuditLogs(context.Background(), tc.in)
			assertHTTPStatus(t, err, http.StatusBadRequest)
			assertErrContains(t, err, tc.msg)
			f.audit.AssertNotCalled(t, "ListAdmin", mock.Anything, mock.Anything)
		})
	}
}

func TestParseDateTimeRFC3339(t *testing.T) {
	tm, ok := usecase.ParseDateTimeRFC3339("")
	assert.True(t, ok)
	assert.Nil(t, tm)

	tm, ok = usecase.ParseDateTimeRFC3339("2024-05-01T10:00:00Z")
	assert.True(t, ok)
	require.NotNil(t, tm)
	assert.Equal(t, 2024, tm.Year())

	_, ok = usecase.ParseDateTimeRFC3339("yesterday")
	assert.False(t, ok)
}
