package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"recorss/internal/logger"
	"recorss/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type refreshStartedResponse struct {
	Status string `json:"status"`
}

func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "resource not found"})
	case errors.Is(err, service.ErrAlreadyRefreshing):
		return c.JSON(http.StatusConflict, errorResponse{Error: "refresh already in progress"})
	default:
		logger.Error("request failed", "module", "handler", "action", "request", "resource", "http", "result", "failed", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
