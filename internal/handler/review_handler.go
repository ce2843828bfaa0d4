package handler

import (
	"net/http"

	"bookbazar/internal/middleware"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

type addReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// 一覧は公開、投稿と削除はログイン必須
func (h *ReviewHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	api.GET("/books/:id/reviews", h.list)
	api.POST("/books/:id/reviews", h.add, gd.Auth...)
	api.DELETE("/reviews/:reviewId", h.delete, gd.Auth...)
}

func (h *ReviewHandler) list(c echo.Context) error {
	bookID, err := pathID(c, "id")
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

	out, err := h.uc.ListByBook(c.Request().Context(), bookID, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func (h *ReviewHandler) add(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rv, err := h.uc.Add(c.Request().Context(), userID, bookID, usecase.AddReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, rv, "review added")
}

func (h *ReviewHandler) delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	//所有チェックはusecase（管理者は誰のでも消せる）
	if err := h.uc.Delete(c.Request().Context(), userID, middleware.UserRole(c), c.Param("reviewId")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "review deleted")
}
