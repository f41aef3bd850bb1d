package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/pkg/utils"
	"github.com/TPSMaidscc/bot-repetitions/usecase"
)

type AnalysisHandler struct {
	Service *usecase.AnalysisService
}

func InitRestAnalysis(app fiber.Router, service *usecase.AnalysisService) AnalysisHandler {
	handler := AnalysisHandler{Service: service}

	app.Get("/", handler.GetServiceInfo)
	app.Get("/departments", handler.GetDepartments)
	app.Post("/analyze/all", handler.AnalyzeAll)
	app.Post("/analyze/:department", handler.AnalyzeDepartment)
	app.Post("/combined/analyze/:department", handler.AnalyzeCombined)

	return handler
}

// GetServiceInfo returns the service name, version and endpoint map.
func (h *AnalysisHandler) GetServiceInfo(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Bot repetition analysis service",
		Results: fiber.Map{
			"service": "bot-repetitions",
			"version": config.AppVersion,
			"endpoints": []string{
				"GET /health",
				"GET /departments",
				"POST /analyze/:department",
				"POST /analyze/all",
				"POST /combined/analyze/:department",
				"POST /delays/analyze/:department",
				"GET /history/:department",
				"GET /metrics",
			},
		},
	})
}

// GetDepartments returns the configured departments.
func (h *AnalysisHandler) GetDepartments(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Departments retrieved",
		Results: config.Departments(),
	})
}

// AnalyzeDepartment runs the repetition analysis for one department.
// Defaults to yesterday's conversations; publishing can be turned off
// with ?publish=false.
func (h *AnalysisHandler) AnalyzeDepartment(c *fiber.Ctx) error {
	dept, ok := config.DepartmentByName(c.Params("department"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown department: "+c.Params("department"))
	}

	date := c.Query("date", usecase.DefaultAnalysisDate())
	publish := c.QueryBool("publish", true)

	report := h.Service.Run(c.UserContext(), dept, date, publish)
	if report.Result == nil {
		return fiber.NewError(fiber.StatusBadGateway, report.Error)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Analysis completed for " + dept.Name,
		Results: report,
	})
}

// AnalyzeAll runs the repetition analysis for every department. A
// department failure is reported inside the batch, not as an HTTP error.
func (h *AnalysisHandler) AnalyzeAll(c *fiber.Ctx) error {
	date := c.Query("date", usecase.DefaultAnalysisDate())
	publish := c.QueryBool("publish", true)

	batch := h.Service.RunAll(c.UserContext(), date, publish)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Batch analysis completed",
		Results: batch,
	})
}

// AnalyzeCombined runs the full analysis and produces the blended
// repetition-plus-delay summary record for the department.
func (h *AnalysisHandler) AnalyzeCombined(c *fiber.Ctx) error {
	dept, ok := config.DepartmentByName(c.Params("department"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown department: "+c.Params("department"))
	}

	date := c.Query("date", usecase.DefaultAnalysisDate())
	publish := c.QueryBool("publish", true)

	report := h.Service.RunCombined(c.UserContext(), dept, date, publish)
	if report.Result == nil {
		return fiber.NewError(fiber.StatusBadGateway, report.Error)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Combined analysis completed for " + dept.Name,
		Results: report,
	})
}
