package handler

import (
	"net/http"
	"strings"

	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /books の公開APIと管理API
type BookHandler struct {
	uc *usecase.BookUsecase
}

// DI
func NewBookHandler(uc *usecase.BookUsecase) *BookHandler {
	return &BookHandler{uc: uc}
}

type createBookRequest struct {
	Title       string           `json:"title" validate:"notblank,max=255"`
	Author      string           `json:"author" validate:"notblank,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"required,decimal_gte=0"`
	Stock       int64            `json:"stock" validate:"gte=0"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url,max=1024"`
}

type updateBookRequest struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=255"`
	Author      *string          `json:"author" validate:"omitempty,notblank,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,decimal_gte=0"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url,max=1024"`
}

type updateStockRequest struct {
	Stock  *int64 `json:"stock" validate:"required,gte=0"`
	Reason string `json:"reason" validate:"notblank,max=255"`
}

func (h *BookHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/books")
	g.GET("", h.list)
	g.GET("/:id", h.detail)

	g.POST("", h.create, gd.Admin...)
	g.PATCH("/:id", h.update, gd.Admin...)
	g.DELETE("/:id", h.delete, gd.Admin...)
	g.PUT("/:id/stock", h.updateStock, gd.Admin...)
}

func (h *BookHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}
	minPrice, err := queryDecimal(c, "min_price")
	if err != nil {
		return err
	}
	maxPrice, err := queryDecimal(c, "max_price")
	if err != nil {
		return err
	}

	out, err := h.uc.ListBooks(c.Request().Context(), usecase.ListBooksInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *BookHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.uc.GetBook(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, b, "")
}

func (h *BookHandler) create(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.uc.AdminCreateBook(c.Request().Context(), adminID, usecase.AdminCreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, b, "book created")
}

func (h *BookHandler) update(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.uc.AdminUpdateBook(c.Request().Context(), adminID, id, usecase.AdminUpdateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, b, "book updated")
}

func (h *BookHandler) delete(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.AdminDeleteBook(c.Request().Context(), adminID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "book deleted")
}

func (h *BookHandler) updateStock(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateStockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.uc.AdminUpdateStock(c.Request().Context(), adminID, id, *req.Stock, req.Reason)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, b, "stock updated")
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &d, nil
}
