package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TPSMaidscc/bot-repetitions/config"
	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
	"github.com/TPSMaidscc/bot-repetitions/pkg/metrics"
)

// AnalysisService sequences fetch, detection, aggregation and publish
// for one department or for all of them. Analysis is always computed;
// publishing is a separate, optional step whose failure never discards
// the computed result.
type AnalysisService struct {
	fetcher   analysis.IConversationFetcher
	publisher analysis.ISheetPublisher
	history   analysis.IRunHistoryRepository
	metrics   *metrics.Metrics
}

func NewAnalysisService(fetcher analysis.IConversationFetcher, publisher analysis.ISheetPublisher, history analysis.IRunHistoryRepository, m *metrics.Metrics) *AnalysisService {
	return &AnalysisService{fetcher: fetcher, publisher: publisher, history: history, metrics: m}
}

// DefaultAnalysisDate is yesterday: the daily run always looks at the
// previous full day of conversations.
func DefaultAnalysisDate() string {
	return time.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

// fetch wraps the fetcher call with failure metrics and guarantees the
// returned error is a DataSourceError.
func (s *AnalysisService) fetch(ctx context.Context, dept config.Department, date string) ([]analysis.Conversation, int, error) {
	convs, skipped, err := s.fetcher.FetchConversations(ctx, dept.ViewName, date)
	if err != nil {
		if s.metrics != nil {
			s.metrics.FetchFailuresTotal.WithLabelValues(dept.Name).Inc()
		}
		var dsErr *analysis.DataSourceError
		if errors.As(err, &dsErr) {
			return nil, 0, err
		}
		return nil, 0, &analysis.DataSourceError{View: dept.ViewName, Err: err}
	}
	return convs, skipped, nil
}

// buildResult runs detection, delay calculation and aggregation over
// fetched conversations and records the run.
func (s *AnalysisService) buildResult(ctx context.Context, dept config.Department, date string, convs []analysis.Conversation, skipped int, started time.Time) *analysis.DepartmentResult {
	inputs := make([]analysis.ConversationAnalysis, 0, len(convs))
	for _, conv := range convs {
		inputs = append(inputs, analysis.ConversationAnalysis{
			Conversation: conv,
			Groups:       Detect(conv, dept.SkillFilter),
			Qualifying:   len(QualifyingMessages(conv, dept.SkillFilter)),
			Delays:       ComputeDelays(conv),
		})
	}

	result := Aggregate(dept.Name, date, inputs)
	result.SkippedConversations = skipped

	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(dept.Name, "success").Inc()
		s.metrics.AnalysisDuration.WithLabelValues(dept.Name).Observe(time.Since(started).Seconds())
	}

	s.recordRun(ctx, result)

	logrus.Infof("Analyzed %s for %s: %d/%d conversations with repetitions (%.2f%%), %d skipped",
		dept.Name, date, result.ConversationsWithRepetitions, result.TotalConversations,
		result.RepetitionPercentage, skipped)
	return &result
}

// Analyze fetches a department's conversations for the given date and
// computes its repetition and delay metrics. No side effects beyond the
// fetch and the best-effort run-history record.
func (s *AnalysisService) Analyze(ctx context.Context, dept config.Department, date string) (*analysis.DepartmentResult, error) {
	started := time.Now()

	convs, skipped, err := s.fetch(ctx, dept, date)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AnalysesTotal.WithLabelValues(dept.Name, "failed").Inc()
		}
		return nil, err
	}
	return s.buildResult(ctx, dept, date, convs, skipped, started), nil
}

// AnalyzeDelays computes the delays-only report for a department.
func (s *AnalysisService) AnalyzeDelays(ctx context.Context, dept config.Department, date string) (*analysis.DelayReport, error) {
	convs, _, err := s.fetch(ctx, dept, date)
	if err != nil {
		return nil, err
	}

	report := AggregateDelays(dept.Name, date, convs, dept.SkillFilter)
	return &report, nil
}

// Publish uploads a department result's detail rows plus the SUMMARY
// sentinel row into a dated tab of the department spreadsheet.
func (s *AnalysisService) Publish(ctx context.Context, dept config.Department, result *analysis.DepartmentResult) error {
	if s.publisher == nil {
		return &analysis.PublishError{SpreadsheetID: dept.SpreadsheetID, Err: errors.New("no sheet publisher configured")}
	}

	sheetName := "Repetitions " + result.AnalysisDate
	rows := detailRows(result)
	if err := s.publisher.UploadRows(ctx, dept.SpreadsheetID, sheetName, rows); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailuresTotal.WithLabelValues(dept.Name).Inc()
		}
		return &analysis.PublishError{SpreadsheetID: dept.SpreadsheetID, Sheet: sheetName, Err: err}
	}
	logrus.Infof("Uploaded %d repetition rows for %s to sheet %q", len(result.Repetitions), dept.Name, sheetName)
	return nil
}

// PublishDelays uploads a delay report into two dated tabs of the
// department's delays spreadsheet, one for first responses and one for
// non-initial responses, each ending in an average row.
func (s *AnalysisService) PublishDelays(ctx context.Context, dept config.Department, report *analysis.DelayReport) error {
	if s.publisher == nil {
		return &analysis.PublishError{SpreadsheetID: dept.DelaysSpreadsheetID, Err: errors.New("no sheet publisher configured")}
	}

	tabs := []struct {
		name string
		rows [][]interface{}
	}{
		{"First Response " + report.AnalysisDate, delayRows(report, true)},
		{"Non Initial Response " + report.AnalysisDate, delayRows(report, false)},
	}
	for _, tab := range tabs {
		if err := s.publisher.UploadRows(ctx, dept.DelaysSpreadsheetID, tab.name, tab.rows); err != nil {
			if s.metrics != nil {
				s.metrics.PublishFailuresTotal.WithLabelValues(dept.Name).Inc()
			}
			return &analysis.PublishError{SpreadsheetID: dept.DelaysSpreadsheetID, Sheet: tab.name, Err: err}
		}
	}
	logrus.Infof("Uploaded delay sheets for %s on %s", dept.Name, report.AnalysisDate)
	return nil
}

// PublishCombined upserts the blended summary row into the dated tab of
// the department's summary spreadsheet: one row per day, updated in
// place when the day is re-analyzed.
func (s *AnalysisService) PublishCombined(ctx context.Context, dept config.Department, record analysis.CombinedSummaryRecord) error {
	if s.publisher == nil {
		return &analysis.PublishError{SpreadsheetID: dept.SummarySpreadsheetID, Err: errors.New("no sheet publisher configured")}
	}

	row := combinedRow(record)
	if err := s.publisher.UpsertDateRow(ctx, dept.SummarySpreadsheetID, record.Date, record.Date, row); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailuresTotal.WithLabelValues(dept.Name).Inc()
		}
		return &analysis.PublishError{SpreadsheetID: dept.SummarySpreadsheetID, Sheet: record.Date, Err: err}
	}
	logrus.Infof("Upserted combined summary row for %s on %s", dept.Name, record.Date)
	return nil
}

// Run executes the full pipeline for one department and reports the
// outcome of each step, so a publish failure still delivers the
// computed analysis.
func (s *AnalysisService) Run(ctx context.Context, dept config.Department, date string, publish bool) analysis.DepartmentReport {
	report := analysis.DepartmentReport{
		Department: dept.Name,
		Steps:      analysis.StepStatus{Fetch: analysis.StepOK, Analyze: analysis.StepOK, Publish: analysis.StepSkipped},
	}

	result, err := s.Analyze(ctx, dept, date)
	if err != nil {
		report.Steps.Fetch = analysis.StepFailed
		report.Steps.Analyze = analysis.StepSkipped
		report.Error = err.Error()
		logrus.Errorf("Analysis failed for %s: %v", dept.Name, err)
		return report
	}
	report.Result = result

	if publish {
		if err := s.Publish(ctx, dept, result); err != nil {
			report.Steps.Publish = analysis.StepFailed
			report.Error = err.Error()
			logrus.Warnf("Publish failed for %s, analysis result is still returned: %v", dept.Name, err)
		} else {
			report.Steps.Publish = analysis.StepOK
		}
	}
	return report
}

// RunDelays executes the delays pipeline for one department: fetch,
// delay aggregation, and optionally the upload of the first and
// non-initial response sheets.
func (s *AnalysisService) RunDelays(ctx context.Context, dept config.Department, date string, publish bool) analysis.DelayRunReport {
	report := analysis.DelayRunReport{
		Department: dept.Name,
		Steps:      analysis.StepStatus{Fetch: analysis.StepOK, Analyze: analysis.StepOK, Publish: analysis.StepSkipped},
	}

	delays, err := s.AnalyzeDelays(ctx, dept, date)
	if err != nil {
		report.Steps.Fetch = analysis.StepFailed
		report.Steps.Analyze = analysis.StepSkipped
		report.Error = err.Error()
		logrus.Errorf("Delay analysis failed for %s: %v", dept.Name, err)
		return report
	}
	report.Report = delays

	if publish {
		if err := s.PublishDelays(ctx, dept, delays); err != nil {
			report.Steps.Publish = analysis.StepFailed
			report.Error = err.Error()
			logrus.Warnf("Delays publish failed for %s, report is still returned: %v", dept.Name, err)
		} else {
			report.Steps.Publish = analysis.StepOK
		}
	}
	return report
}

// RunCombined executes the full pipeline over a single fetch and
// additionally produces the blended repetition-plus-delays summary
// record for the date.
func (s *AnalysisService) RunCombined(ctx context.Context, dept config.Department, date string, publish bool) analysis.DepartmentReport {
	started := time.Now()
	report := analysis.DepartmentReport{
		Department: dept.Name,
		Steps:      analysis.StepStatus{Fetch: analysis.StepOK, Analyze: analysis.StepOK, Publish: analysis.StepSkipped},
	}

	convs, skipped, err := s.fetch(ctx, dept, date)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AnalysesTotal.WithLabelValues(dept.Name, "failed").Inc()
		}
		report.Steps.Fetch = analysis.StepFailed
		report.Steps.Analyze = analysis.StepSkipped
		report.Error = err.Error()
		logrus.Errorf("Combined analysis failed for %s: %v", dept.Name, err)
		return report
	}

	result := s.buildResult(ctx, dept, date, convs, skipped, started)
	report.Result = result

	delays := AggregateDelays(dept.Name, date, convs, dept.SkillFilter)
	record := CombinedSummary(*result, delays)
	report.Combined = &record

	if publish {
		report.Steps.Publish = analysis.StepOK
		if err := s.Publish(ctx, dept, result); err != nil {
			report.Steps.Publish = analysis.StepFailed
			report.Error = err.Error()
			logrus.Warnf("Publish failed for %s, analysis result is still returned: %v", dept.Name, err)
		}
		if err := s.PublishCombined(ctx, dept, record); err != nil {
			report.Steps.Publish = analysis.StepFailed
			report.Error = err.Error()
			logrus.Warnf("Combined publish failed for %s: %v", dept.Name, err)
		}
	}
	return report
}

// RunAll analyzes every configured department for the date. One
// department's failure never aborts the batch: failed departments are
// reported with a failed fetch status and the rest complete normally.
func (s *AnalysisService) RunAll(ctx context.Context, date string, publish bool) analysis.BatchResult {
	departments := config.Departments()
	batch := analysis.BatchResult{TotalDepartments: len(departments)}

	for _, dept := range departments {
		report := s.Run(ctx, dept, date, publish)
		batch.Results = append(batch.Results, report)

		if report.Result == nil {
			batch.Failed++
			continue
		}
		batch.Successful++
		batch.Summary.TotalConversations += report.Result.TotalConversations
		batch.Summary.TotalWithRepetitions += report.Result.ConversationsWithRepetitions
	}

	batch.Summary.OverallPercentage = RepetitionPercentage(batch.Summary.TotalWithRepetitions, batch.Summary.TotalConversations)
	logrus.Infof("Batch analysis for %s completed: %d successful, %d failed", date, batch.Successful, batch.Failed)
	return batch
}

// recordRun persists the run for history queries. Best effort: a
// storage failure is logged, never propagated.
func (s *AnalysisService) recordRun(ctx context.Context, result analysis.DepartmentResult) {
	if s.history == nil {
		return
	}
	run := analysis.RunRecord{
		ID:                           uuid.New().String(),
		Department:                   result.Department,
		AnalysisDate:                 result.AnalysisDate,
		TotalConversations:           result.TotalConversations,
		ConversationsWithRepetitions: result.ConversationsWithRepetitions,
		RepetitionPercentage:         result.RepetitionPercentage,
		SkippedConversations:         result.SkippedConversations,
		CreatedAt:                    time.Now().UTC(),
	}
	if err := s.history.SaveRun(ctx, run); err != nil {
		logrus.Warnf("Failed to record analysis run for %s: %v", result.Department, err)
	}
}

// detailRows renders a result as spreadsheet rows: header, one row per
// repetition group, then the SUMMARY sentinel row.
func detailRows(result *analysis.DepartmentResult) [][]interface{} {
	rows := [][]interface{}{
		{"conversation_id", "message_id", "message", "repetition_count", "skill"},
	}
	for _, group := range result.Repetitions {
		rows = append(rows, []interface{}{
			group.ConversationID, group.MessageID, group.Text, group.RepetitionCount, group.Skill,
		})
	}
	rows = append(rows, []interface{}{
		result.Summary.ConversationID,
		"",
		result.Summary.Message,
		fmt.Sprintf("%s of %d chats (%d with repetitions)",
			result.Summary.PercentageWithRepetitions, result.Summary.TotalChats, result.Summary.ChatsWithRepetitions),
		"",
	})
	return rows
}

// combinedRow renders the blended summary record, date first so the
// publisher can key on it.
func combinedRow(record analysis.CombinedSummaryRecord) []interface{} {
	return []interface{}{
		record.Date,
		record.Department,
		record.TotalChats,
		record.RepetitionLabel,
		record.FirstResponseLabel,
		record.NonInitialResponseLabel,
		fmt.Sprintf("%.2f%%", record.AgentInterventionPercentage),
		fmt.Sprintf("%.2f%%", record.HandlingPercentage),
		delayCell(record.AvgInitialDelaySeconds),
		delayCell(record.AvgNonInitialDelaySeconds),
	}
}

// delayRows renders one side of a delay report as spreadsheet rows:
// header, one row per conversation sample, then an average row carrying
// the sample count.
func delayRows(report *analysis.DelayReport, initial bool) [][]interface{} {
	rows := [][]interface{}{
		{"conversation_id", "response_time_seconds"},
	}

	var samples []float64
	for _, metrics := range report.Conversations {
		value := metrics.AvgNonInitialDelaySeconds
		if initial {
			value = metrics.InitialDelaySeconds
		}
		if value == nil {
			continue
		}
		rows = append(rows, []interface{}{metrics.ConversationID, *value})
		samples = append(samples, *value)
	}

	stats := report.NonInitialResponse
	label := "AVERAGE (Non Initial Response)"
	if initial {
		stats = report.FirstResponse
		label = "AVERAGE (First Response)"
	}
	rows = append(rows, []interface{}{
		fmt.Sprintf("%s Count: %d", label, len(samples)),
		stats.Formatted,
	})
	return rows
}

func delayCell(seconds *float64) interface{} {
	if seconds == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *seconds)
}
