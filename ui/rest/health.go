package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TPSMaidscc/bot-repetitions/pkg/utils"
	"github.com/TPSMaidscc/bot-repetitions/usecase"
)

type HealthHandler struct {
	Service *usecase.HealthService
}

func InitRestHealth(app fiber.Router, service *usecase.HealthService) HealthHandler {
	handler := HealthHandler{Service: service}

	app.Get("/health", handler.GetSystemHealth)

	return handler
}

// GetSystemHealth returns overall system health status.
func (h *HealthHandler) GetSystemHealth(c *fiber.Ctx) error {
	health := h.Service.GetSystemHealth(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "System health retrieved",
		Results: health,
	})
}
