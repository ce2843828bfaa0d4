package handler

import (
	"net/http"

	"bookbazar/internal/repository"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type initiatePaymentRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

// Razorpay Checkoutがそのまま返す名前
type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"notblank"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"notblank"`
	RazorpaySignature string `json:"razorpay_signature" validate:"notblank"`
}

func (h *PaymentHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/payments", gd.Auth...)

	g.POST("/initiate", h.initiate)
	g.POST("/verify", h.verify)
	g.GET("", h.listMine)
}

func (h *PaymentHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/payments", h.adminList)
}

func (h *PaymentHandler) initiate(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req initiatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Initiate(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out, "payment initiated")
}

func (h *PaymentHandler) verify(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req verifyPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.uc.Verify(c.Request().Context(), userID, usecase.VerifyPaymentInput{
		ProviderOrderID:   req.RazorpayOrderID,
		ProviderPaymentID: req.RazorpayPaymentID,
		Signature:         req.RazorpaySignature,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p, "payment verified")
}

func (h *PaymentHandler) listMine(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	items, err := h.uc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, items, "")
}

func (h *PaymentHandler) adminList(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}

	out, err := h.uc.AdminList(c.Request().Context(), repository.AdminPaymentListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}
