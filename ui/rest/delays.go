package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/pkg/utils"
	"github.com/TPSMaidscc/bot-repetitions/usecase"
)

type DelaysHandler struct {
	Service *usecase.AnalysisService
}

func InitRestDelays(app fiber.Router, service *usecase.AnalysisService) DelaysHandler {
	handler := DelaysHandler{Service: service}

	app.Post("/delays/analyze/:department", handler.AnalyzeDelays)

	return handler
}

// AnalyzeDelays computes response-delay metrics for one department and,
// unless ?publish=false, uploads the first and non-initial response
// sheets.
func (h *DelaysHandler) AnalyzeDelays(c *fiber.Ctx) error {
	dept, ok := config.DepartmentByName(c.Params("department"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown department: "+c.Params("department"))
	}

	date := c.Query("date", usecase.DefaultAnalysisDate())
	publish := c.QueryBool("publish", true)

	report := h.Service.RunDelays(c.UserContext(), dept, date, publish)
	if report.Report == nil {
		return fiber.NewError(fiber.StatusBadGateway, report.Error)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Delay analysis completed for " + dept.Name,
		Results: report,
	})
}
