package usecase

import (
	"context"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

type DependencyStatus struct {
	Tableau string `json:"tableau"`
	Sheets  string `json:"sheets"`
	History string `json:"history"`
}

type SystemHealth struct {
	Status       string           `json:"status"`
	Version      string           `json:"version"`
	Departments  []string         `json:"departments"`
	Dependencies DependencyStatus `json:"dependencies"`
}

type HealthService struct {
	publisher analysis.ISheetPublisher
	history   analysis.IRunHistoryRepository
}

func NewHealthService(publisher analysis.ISheetPublisher, history analysis.IRunHistoryRepository) *HealthService {
	return &HealthService{publisher: publisher, history: history}
}

// GetSystemHealth reports configuration and dependency status. The
// service is degraded, not down, when publishing is unavailable:
// analysis still works without it.
func (s *HealthService) GetSystemHealth(ctx context.Context) *SystemHealth {
	health := &SystemHealth{
		Status:      "healthy",
		Version:     config.AppVersion,
		Departments: config.DepartmentNames(),
		Dependencies: DependencyStatus{
			Tableau: "configured",
			Sheets:  "configured",
			History: "configured",
		},
	}

	if config.TableauTokenName == "" || config.TableauTokenValue == "" {
		health.Dependencies.Tableau = "not_configured"
		health.Status = "unhealthy"
	}
	if s.publisher == nil {
		health.Dependencies.Sheets = "not_configured"
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	}
	if s.history == nil {
		health.Dependencies.History = "not_configured"
	} else if _, err := s.history.RecentRuns(ctx, "", 1); err != nil {
		health.Dependencies.History = "error"
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	return health
}
