package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Name: "SellIt API"})
}
