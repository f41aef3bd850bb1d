package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
	"github.com/TPSMaidscc/bot-repetitions/infrastructure/history"
	"github.com/TPSMaidscc/bot-repetitions/infrastructure/sheets"
	"github.com/TPSMaidscc/bot-repetitions/infrastructure/tableau"
	"github.com/TPSMaidscc/bot-repetitions/pkg/metrics"
	"github.com/TPSMaidscc/bot-repetitions/pkg/utils"
	"github.com/TPSMaidscc/bot-repetitions/ui/rest"
	"github.com/TPSMaidscc/bot-repetitions/usecase"
)

func main() {
	config.Load()

	if level, err := logrus.ParseLevel(config.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := config.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	fetcher := tableau.NewClient(tableau.Options{
		ServerURL:      config.TableauServerURL,
		APIVersion:     config.TableauAPIVersion,
		TokenName:      config.TableauTokenName,
		TokenValue:     config.TableauTokenValue,
		SiteContentURL: config.TableauSiteContentURL,
		WorkbookName:   config.TableauWorkbookName,
	})

	publisher := newPublisher(ctx)
	runHistory := newRunHistory()

	m := metrics.NewMetrics()
	analysisService := usecase.NewAnalysisService(fetcher, publisher, runHistory, m)
	healthService := usecase.NewHealthService(publisher, runHistory)

	app := fiber.New(fiber.Config{
		AppName: "bot-repetitions " + config.AppVersion,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fiberErr, ok := err.(*fiber.Error); ok {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(utils.ResponseData{
				Status:  code,
				Code:    "ERROR",
				Message: err.Error(),
			})
		},
	})
	app.Use(recover.New())
	app.Use(logger.New())

	rest.InitRestAnalysis(app, analysisService)
	rest.InitRestDelays(app, analysisService)
	rest.InitRestHistory(app, runHistory)
	rest.InitRestHealth(app, healthService)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	logrus.Infof("Starting bot-repetitions %s on port %s", config.AppVersion, config.Port)
	if err := app.Listen(":" + config.Port); err != nil {
		logrus.Fatalf("Server stopped: %v", err)
	}
}

// newPublisher builds the Sheets publisher from whichever credential
// source is configured. Returns nil when none is: analysis still works,
// the publish step is skipped and health reports degraded.
func newPublisher(ctx context.Context) analysis.ISheetPublisher {
	if config.GoogleCredentialsJSON != "" {
		publisher, err := sheets.NewPublisher(ctx, []byte(config.GoogleCredentialsJSON))
		if err != nil {
			logrus.Warnf("Sheets publisher unavailable: %v", err)
			return nil
		}
		return publisher
	}
	if _, err := os.Stat(config.GoogleCredentialsFile); err == nil {
		publisher, err := sheets.NewPublisherFromFile(ctx, config.GoogleCredentialsFile)
		if err != nil {
			logrus.Warnf("Sheets publisher unavailable: %v", err)
			return nil
		}
		return publisher
	}
	logrus.Warn("No Google credentials configured, spreadsheet publishing disabled")
	return nil
}

// newRunHistory opens the run-history database. Returns nil on failure:
// history is a convenience, not a dependency of the analysis itself.
func newRunHistory() analysis.IRunHistoryRepository {
	if err := os.MkdirAll(filepath.Dir(config.HistoryDBPath), 0o755); err != nil {
		logrus.Warnf("Run history unavailable: %v", err)
		return nil
	}
	db, err := sql.Open("sqlite3", config.HistoryDBPath+"?_foreign_keys=on")
	if err != nil {
		logrus.Warnf("Run history unavailable: %v", err)
		return nil
	}
	repo, err := history.NewSQLiteRepository(db)
	if err != nil {
		logrus.Warnf("Run history unavailable: %v", err)
		return nil
	}
	return repo
}
