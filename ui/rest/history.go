package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
	"github.com/TPSMaidscc/bot-repetitions/pkg/utils"
)

type HistoryHandler struct {
	Repository analysis.IRunHistoryRepository
}

func InitRestHistory(app fiber.Router, repository analysis.IRunHistoryRepository) HistoryHandler {
	handler := HistoryHandler{Repository: repository}

	app.Get("/history/:department", handler.GetRecentRuns)

	return handler
}

// GetRecentRuns returns the latest stored analysis runs for a
// department, newest first.
func (h *HistoryHandler) GetRecentRuns(c *fiber.Ctx) error {
	dept, ok := config.DepartmentByName(c.Params("department"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown department: "+c.Params("department"))
	}

	if h.Repository == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Run history storage is not configured")
	}

	limit := c.QueryInt("limit", 10)
	runs, err := h.Repository.RecentRuns(c.UserContext(), dept.Name, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Run history retrieved",
		Results: runs,
	})
}
