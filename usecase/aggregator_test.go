package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

func TestRepetitionPercentage(t *testing.T) {
	assert.Equal(t, 6.27, RepetitionPercentage(25, 399))
	assert.Equal(t, 0.0, RepetitionPercentage(0, 100))
	assert.Equal(t, 100.0, RepetitionPercentage(50, 50))
	assert.Equal(t, 0.0, RepetitionPercentage(0, 0))
}

func TestSummaryLabel(t *testing.T) {
	assert.Equal(t, "25 (6.27%)", SummaryLabel(25, 6.27))
	assert.Equal(t, "0 (0.00%)", SummaryLabel(0, 0))
}

func TestAggregateCountsOnlyQualifyingConversations(t *testing.T) {
	inputs := []analysis.ConversationAnalysis{
		{
			Conversation: analysis.Conversation{ID: "c1"},
			Qualifying:   3,
			Groups: []analysis.RepetitionGroup{
				{ConversationID: "c1", MessageID: "m1", Text: "hello", RepetitionCount: 2},
			},
		},
		{Conversation: analysis.Conversation{ID: "c2"}, Qualifying: 2},
		// No qualifying bot messages: excluded from the denominator.
		{Conversation: analysis.Conversation{ID: "c3"}, Qualifying: 0},
	}

	result := Aggregate("doctors", "2025-03-01", inputs)
	assert.Equal(t, 2, result.TotalConversations)
	assert.Equal(t, 1, result.ConversationsWithRepetitions)
	assert.Equal(t, 50.0, result.RepetitionPercentage)
	require.Len(t, result.Repetitions, 1)
	assert.Equal(t, analysis.SummarySentinel, result.Summary.ConversationID)
	assert.Equal(t, "TOTAL REPETITIONS", result.Summary.Message)
	assert.Equal(t, "50.00%", result.Summary.PercentageWithRepetitions)
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate("doctors", "2025-03-01", nil)
	assert.Equal(t, 0, result.TotalConversations)
	assert.Equal(t, 0.0, result.RepetitionPercentage)
	assert.Empty(t, result.Repetitions)
	assert.Equal(t, "NO REPETITIONS FOUND", result.Summary.Message)
	assert.Nil(t, result.AvgInitialDelaySeconds)
	assert.Nil(t, result.AvgNonInitialDelaySeconds)
}

func TestAggregateDelayAveragesSkipAbsentMetrics(t *testing.T) {
	five, fifteen := 5.0, 15.0
	inputs := []analysis.ConversationAnalysis{
		{
			Conversation: analysis.Conversation{ID: "c1"},
			Qualifying:   1,
			Delays:       &analysis.DelayMetrics{ConversationID: "c1", InitialDelaySeconds: &five},
		},
		{
			Conversation: analysis.Conversation{ID: "c2"},
			Qualifying:   1,
			Delays:       &analysis.DelayMetrics{ConversationID: "c2", InitialDelaySeconds: &fifteen},
		},
		// Absent metrics must not drag the average toward zero.
		{Conversation: analysis.Conversation{ID: "c3"}, Qualifying: 1},
	}

	result := Aggregate("doctors", "2025-03-01", inputs)
	require.NotNil(t, result.AvgInitialDelaySeconds)
	assert.InDelta(t, 10.0, *result.AvgInitialDelaySeconds, 0.001)
	assert.Nil(t, result.AvgNonInitialDelaySeconds)
}

func TestAggregateSalesScenario(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	convs := []analysis.Conversation{
		{
			ID: "c1",
			Messages: []analysis.Message{
				botMsg("b1", "Hi", "", base),
				botMsg("b2", "Hi", "", base.Add(time.Minute)),
				userMsg("u1", "ok", base.Add(2*time.Minute)),
			},
		},
		{
			ID:       "c2",
			Messages: []analysis.Message{botMsg("b1", "Bye", "", base)},
		},
	}

	var inputs []analysis.ConversationAnalysis
	for _, conv := range convs {
		inputs = append(inputs, analysis.ConversationAnalysis{
			Conversation: conv,
			Groups:       Detect(conv, ""),
			Qualifying:   len(QualifyingMessages(conv, "")),
		})
	}

	result := Aggregate("cc_sales", "2025-03-01", inputs)
	assert.Equal(t, 2, result.TotalConversations)
	assert.Equal(t, 1, result.ConversationsWithRepetitions)
	assert.Equal(t, 50.0, result.RepetitionPercentage)
	require.Len(t, result.Repetitions, 1)
	assert.Equal(t, "Hi", result.Repetitions[0].Text)
	assert.Equal(t, 2, result.Repetitions[0].RepetitionCount)
}

func TestCombinedSummary(t *testing.T) {
	seven := 7.25
	result := analysis.DepartmentResult{
		Department:                   "cc_sales",
		AnalysisDate:                 "2025-03-01",
		TotalConversations:           399,
		ConversationsWithRepetitions: 25,
		RepetitionPercentage:         6.27,
		AvgInitialDelaySeconds:       &seven,
	}
	delays := analysis.DelayReport{
		FirstResponse:               analysis.ResponseTimeStats{Formatted: "00:07 (0 msg > 4 Min)"},
		NonInitialResponse:          analysis.ResponseTimeStats{Formatted: "00:12 (1 msg > 4 Min)"},
		AgentInterventionPercentage: 12.5,
		HandlingPercentage:          87.5,
	}

	record := CombinedSummary(result, delays)
	assert.Equal(t, "2025-03-01", record.Date)
	assert.Equal(t, 399, record.TotalChats)
	assert.Equal(t, "25 (6.27%)", record.RepetitionLabel)
	require.NotNil(t, record.AvgInitialDelaySeconds)
	assert.Equal(t, 7.25, *record.AvgInitialDelaySeconds)
	assert.Nil(t, record.AvgNonInitialDelaySeconds)
	assert.Equal(t, "00:07 (0 msg > 4 Min)", record.FirstResponseLabel)
	assert.Equal(t, "00:12 (1 msg > 4 Min)", record.NonInitialResponseLabel)
	assert.Equal(t, 12.5, record.AgentInterventionPercentage)
	assert.Equal(t, 87.5, record.HandlingPercentage)
}

func TestAggregateDelays(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	convs := []analysis.Conversation{
		{
			ID: "c1",
			Messages: []analysis.Message{
				userMsg("u1", "hi", base),
				botMsg("b1", "hello", "", base.Add(4*time.Second)),
			},
		},
		{
			ID: "c2",
			Messages: []analysis.Message{
				userMsg("u1", "hi", base),
				botMsg("b1", "hello", "", base.Add(6*time.Second)),
			},
		},
		// No pair, excluded entirely.
		{ID: "c3", Messages: []analysis.Message{botMsg("b1", "welcome", "", base)}},
	}

	report := AggregateDelays("doctors", "2025-03-01", convs, "")
	assert.Equal(t, 3, report.TotalConversations)
	assert.Len(t, report.Conversations, 2)
	require.NotNil(t, report.AvgInitialDelaySeconds)
	assert.InDelta(t, 5.0, *report.AvgInitialDelaySeconds, 0.001)

	assert.Equal(t, 2, report.FirstResponse.Count)
	assert.Equal(t, 2, report.FirstResponse.CountUnder4Min)
	assert.InDelta(t, 5.0, report.FirstResponse.AvgSeconds, 0.001)
	assert.Equal(t, "00:05 (0 msg > 4 Min)", report.FirstResponse.Formatted)
	assert.Zero(t, report.NonInitialResponse.Count)

	// No agent messages anywhere: fully bot handled.
	assert.Zero(t, report.AgentInterventionPercentage)
	assert.Equal(t, 100.0, report.HandlingPercentage)
}
