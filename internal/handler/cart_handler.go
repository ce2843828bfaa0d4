package handler

import (
	"net/http"

	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type addCartRequest struct {
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gte=1,lte=100"`
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1,lte=100"`
}

// /cart, /cart/items/:bookId を登録
func (h *CartHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/cart", gd.Auth...)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:bookId", h.updateItem)
	g.DELETE("/items/:bookId", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req addCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		BookID:   req.BookID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "added to cart")
}

func (h *CartHandler) updateItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), userID, bookID, req.Quantity)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "cart updated")
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}

	out, err := h.uc.RemoveCartItem(c.Request().Context(), userID, bookID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "item removed")
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.uc.ClearCart(c.Request().Context(), userID); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "cart cleared")
}
