package http

import (
	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recorss/internal/handler"
)

func NewRouter(
	itemHandler *handler.ItemHandler,
	feedHandler *handler.FeedHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(nethttp.StatusOK, "ok")
	})

	root := e.Group("")
	itemHandler.RegisterRoutes(root)
	feedHandler.RegisterRoutes(root)

	return e
}
