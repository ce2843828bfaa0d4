package handler

import (
	"net/http"

	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

type addressCreateRequest struct {
	FullName   string `json:"full_name" validate:"notblank,max=255"`
	Phone      string `json:"phone" validate:"notblank,max=30"`
	Street     string `json:"street" validate:"notblank,max=255"`
	City       string `json:"city" validate:"notblank,max=100"`
	State      string `json:"state" validate:"notblank,max=100"`
	PostalCode string `json:"postal_code" validate:"notblank,max=20"`
	Country    string `json:"country" validate:"notblank,max=100"`
	IsDefault  bool   `json:"is_default"`
}

// 指定したフィールドだけ変更
type addressUpdateRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,notblank,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,notblank,max=30"`
	Street     *string `json:"street" validate:"omitempty,notblank,max=255"`
	City       *string `json:"city" validate:"omitempty,notblank,max=100"`
	State      *string `json:"state" validate:"omitempty,notblank,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,notblank,max=20"`
	Country    *string `json:"country" validate:"omitempty,notblank,max=100"`
}

func (h *AddressHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/addresses", gd.Auth...)

	g.GET("", h.list)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/default", h.setDefault)
}

func (h *AddressHandler) list(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	list, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, list, "")
}

func (h *AddressHandler) create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req addressCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.uc.Add(c.Request().Context(), userID, usecase.AddressInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, created, "address added")
}

func (h *AddressHandler) update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addressUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.uc.Update(c.Request().Context(), userID, id, usecase.AddressUpdateInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, updated, "address updated")
}

func (h *AddressHandler) delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "address deleted")
}

func (h *AddressHandler) setDefault(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	a, err := h.uc.SetDefault(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, a, "default address set")
}
