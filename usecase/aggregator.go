package usecase

import (
	"fmt"
	"math"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

// RepetitionPercentage returns 100 * with / total rounded to two
// decimal places, and 0 when total is zero.
func RepetitionPercentage(withRepetitions, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(withRepetitions) / float64(total))
}

// SummaryLabel formats the human-readable blend of count and
// percentage, e.g. "25 (6.27%)".
func SummaryLabel(withRepetitions int, percentage float64) string {
	return fmt.Sprintf("%d (%.2f%%)", withRepetitions, percentage)
}

// Aggregate combines per-conversation detector and delay calculator
// outputs into one department-level result. Conversations with zero
// qualifying bot messages count toward neither numerator nor
// denominator; conversations with absent delay metrics are excluded
// from the delay averages instead of being treated as zero.
func Aggregate(department, analysisDate string, inputs []analysis.ConversationAnalysis) analysis.DepartmentResult {
	var (
		total       int
		withReps    int
		repetitions []analysis.RepetitionGroup
		initials    []float64
		nonInitials []float64
	)

	for _, input := range inputs {
		if input.Qualifying > 0 {
			total++
			if len(input.Groups) > 0 {
				withReps++
			}
		}
		repetitions = append(repetitions, input.Groups...)

		if input.Delays != nil {
			if input.Delays.InitialDelaySeconds != nil {
				initials = append(initials, *input.Delays.InitialDelaySeconds)
			}
			if input.Delays.AvgNonInitialDelaySeconds != nil {
				nonInitials = append(nonInitials, *input.Delays.AvgNonInitialDelaySeconds)
			}
		}
	}

	percentage := RepetitionPercentage(withReps, total)

	summaryMessage := "TOTAL REPETITIONS"
	if len(repetitions) == 0 {
		summaryMessage = "NO REPETITIONS FOUND"
	}

	result := analysis.DepartmentResult{
		Department:                   department,
		AnalysisDate:                 analysisDate,
		TotalConversations:           total,
		ConversationsWithRepetitions: withReps,
		RepetitionPercentage:         percentage,
		Repetitions:                  repetitions,
		Summary: analysis.Summary{
			ConversationID:            analysis.SummarySentinel,
			Message:                   summaryMessage,
			PercentageWithRepetitions: fmt.Sprintf("%.2f%%", percentage),
			TotalChats:                total,
			ChatsWithRepetitions:      withReps,
		},
	}

	if len(initials) > 0 {
		avg := round2(mean(initials))
		result.AvgInitialDelaySeconds = &avg
	}
	if len(nonInitials) > 0 {
		avg := round2(mean(nonInitials))
		result.AvgNonInitialDelaySeconds = &avg
	}
	return result
}

// CombinedSummary blends a department result with its delay report into
// the dated summary-sheet row.
func CombinedSummary(result analysis.DepartmentResult, delays analysis.DelayReport) analysis.CombinedSummaryRecord {
	return analysis.CombinedSummaryRecord{
		Department:                  result.Department,
		Date:                        result.AnalysisDate,
		TotalChats:                  result.TotalConversations,
		RepetitionPercentage:        result.RepetitionPercentage,
		RepetitionLabel:             SummaryLabel(result.ConversationsWithRepetitions, result.RepetitionPercentage),
		AvgInitialDelaySeconds:      result.AvgInitialDelaySeconds,
		AvgNonInitialDelaySeconds:   result.AvgNonInitialDelaySeconds,
		FirstResponseLabel:          delays.FirstResponse.Formatted,
		NonInitialResponseLabel:     delays.NonInitialResponse.Formatted,
		AgentInterventionPercentage: delays.AgentInterventionPercentage,
		HandlingPercentage:          delays.HandlingPercentage,
	}
}

// AggregateDelays builds a department-level delay report from
// per-conversation metrics, including the slow-response breakdowns and
// the agent-intervention and bot-handling shares.
func AggregateDelays(department, analysisDate string, conversations []analysis.Conversation, skillFilter string) analysis.DelayReport {
	report := analysis.DelayReport{
		Department:         department,
		AnalysisDate:       analysisDate,
		TotalConversations: len(conversations),
	}

	var initials, nonInitials []float64
	for _, conv := range conversations {
		metrics := ComputeDelays(conv)
		if metrics == nil {
			continue
		}
		report.Conversations = append(report.Conversations, *metrics)
		if metrics.InitialDelaySeconds != nil {
			initials = append(initials, *metrics.InitialDelaySeconds)
		}
		if metrics.AvgNonInitialDelaySeconds != nil {
			nonInitials = append(nonInitials, *metrics.AvgNonInitialDelaySeconds)
		}
	}

	if len(initials) > 0 {
		avg := round2(mean(initials))
		report.AvgInitialDelaySeconds = &avg
	}
	if len(nonInitials) > 0 {
		avg := round2(mean(nonInitials))
		report.AvgNonInitialDelaySeconds = &avg
	}
	report.FirstResponse = ResponseStats(initials)
	report.NonInitialResponse = ResponseStats(nonInitials)
	report.AgentInterventionPercentage = AgentInterventionPercentage(conversations)
	report.HandlingPercentage = HandlingPercentage(conversations, skillFilter)
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
