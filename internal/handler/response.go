package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bookbazar/internal/middleware"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type SuccessResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type ErrorResponse struct {
	StatusCode int                   `json:"statusCode"`
	Message    string                `json:"message"`
	Details    []usecase.ErrorDetail `json:"details"`
	Success    bool                  `json:"success"`
}

// 認証まわりのミドルウェアをまとめて各handlerに渡す
type Guards struct {
	Auth  []echo.MiddlewareFunc
	Admin []echo.MiddlewareFunc
}

var (
	errUnauthorized = usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errInvalidBody  = usecase.NewHTTPError(http.StatusBadRequest, "invalid request body")
)

func ok(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, SuccessResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// EchoのHTTPErrorHandlerに登録する
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := ErrorResponse{Details: []usecase.ErrorDetail{}}

	var ee *echo.HTTPError
	if he, found := usecase.AsHTTPError(err); found {
		body.StatusCode = he.Status
		body.Message = he.Message
		if he.Details != nil {
			body.Details = he.Details
		}
	} else if errors.As(err, &ee) {
		body.StatusCode = ee.Code
		body.Message = fmt.Sprint(ee.Message)
	} else {
		body.StatusCode = http.StatusInternalServerError
		body.Message = "internal server error"
	}

	if body.StatusCode >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(body.StatusCode)
	} else {
		werr = c.JSON(body.StatusCode, body)
	}
	if werr != nil {
		log.Errorf("write error response: %v", werr)
	}
}

// Bind→Validate（422はvalidatorが作る）
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	return c.Validate(req)
}

func currentUserID(c echo.Context) (int64, error) {
	id, found := middleware.UserID(c)
	if !found {
		return 0, errUnauthorized
	}
	return id, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// 空ならdef
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}
