package handler

import (
	"net/http"
	"strings"
	"time"

	"bookbazar/internal/domain/model"
	"bookbazar/internal/repository"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type orderStatusUpdateRequest struct {
	Status string `json:"status" validate:"notblank"`
}

// adminグループはAdminガード済み
func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	userID, err := queryInt64Ptr(c, "user_id")
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	// 監査ログ用
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req orderStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, req.Status)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "order status updated")
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	actorID, err := queryInt64Ptr(c, "actor_user_id")
	if err != nil {
		return err
	}
	resourceID, err := queryInt64Ptr(c, "resource_id")
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), repository.AdminAuditLogListFilter{
		Page:         page,
		Limit:        limit,
		ActorUserID:  actorID,
		Action:       model.AuditAction(strings.ToUpper(strings.TrimSpace(c.QueryParam("action")))),
		ResourceType: model.AuditResourceType(strings.ToLower(strings.TrimSpace(c.QueryParam("resource_type")))),
		ResourceID:   resourceID,
		From:         from,
		To:           to,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

// RFC3339
func queryTime(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	tm, parsed := usecase.ParseDateTimeRFC3339(v)
	if !parsed {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return tm, nil
}
