package handler

import (
	"context"
	"net/http"
	"time"

	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/healthcheck", h.check)
}

// Postgresにpingできれば200
func (h *HealthHandler) check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Errorf("healthcheck: %v", err)
		return usecase.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return ok(c, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}
