package handler

import (
	"net/http"

	"bookbazar/internal/domain/model"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

const idempotencyKeyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type orderCreateRequest struct {
	ShippingAddressID int64  `json:"shipping_address_id" validate:"required,gt=0"`
	PaymentMethod     string `json:"payment_method" validate:"required,oneof=cod card upi"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/orders", gd.Auth...)

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.GET("/:id/status", h.status)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req orderCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		AddressID:      req.ShippingAddressID,
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: c.Request().Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out, "order placed")
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *OrderHandler) status(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.GetOrderStatus(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "order cancelled")
}
