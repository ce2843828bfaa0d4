package server

import (
	"bookbazar/internal/config"
	"bookbazar/internal/handler"
	"bookbazar/internal/middleware"
	"bookbazar/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Book       *handler.BookHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Address    *handler.AddressHandler
	Review     *handler.ReviewHandler
	Payment    *handler.PaymentHandler
}

// /api/v1 配下に全部ぶら下げる
func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	auth := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	}
	gd := handler.Guards{
		Auth:  auth,
		Admin: append(append([]echo.MiddlewareFunc{}, auth...), middleware.AdminOnly()),
	}

	api := e.Group("/api/v1")

	h.Health.RegisterRoutes(api)
	h.Auth.RegisterRoutes(api, gd)
	h.Book.RegisterRoutes(api, gd)
	h.Cart.RegisterRoutes(api, gd)
	h.Order.RegisterRoutes(api, gd)
	h.Address.RegisterRoutes(api, gd)
	h.Review.RegisterRoutes(api, gd)
	h.Payment.RegisterRoutes(api, gd)

	// 管理者のみ
	admin := api.Group("/admin", gd.Admin...)
	h.AdminOrder.RegisterRoutes(admin)
	h.Payment.RegisterAdminRoutes(admin)
	h.Auth.RegisterAdminRoutes(admin)
}
