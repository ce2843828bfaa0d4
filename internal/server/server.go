package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookbazar/internal/config"
	"bookbazar/internal/handler"
	"bookbazar/internal/repository"
	"bookbazar/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// ルーティング済みのEchoを返す（テストでもこれを使う）
func New(cfg config.Config, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	if cfg.IsProd() {
		e.Logger.SetLevel(log.INFO)
	} else {
		e.Logger.SetLevel(log.DEBUG)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				e.Logger.Warnf("%s %s status=%d latency=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			e.Logger.Infof("%s %s status=%d latency=%s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e, cfg, userRepo, h)
	return e
}

// ctxがキャンセルされたらgraceful shutdown
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
