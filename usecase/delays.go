package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

// Responses at or above this threshold count as slow and are excluded
// from the filtered averages.
const slowResponseSeconds = 240

// ComputeDelays measures bot response times within one conversation.
// The initial delay is the elapsed time between the first user message
// and the first bot response after it; every later user message paired
// with the next bot response contributes a non-initial sample. Pairs
// with missing timestamps or negative elapsed time are skipped rather
// than recorded as zero. Returns nil when the conversation produced no
// user-to-bot pair at all, so absent metrics never dilute a department
// average. Pure function.
func ComputeDelays(conv analysis.Conversation) *analysis.DelayMetrics {
	var (
		pending     bool
		pendingTime time.Time
		initial     *float64
		nonInitial  []float64
		firstPair   = true
	)

	for _, msg := range conv.Messages {
		switch msg.SenderRole {
		case analysis.SenderUser:
			if !pending {
				pending = true
				pendingTime = msg.Timestamp
			}
		case analysis.SenderBot:
			if !pending {
				continue
			}
			pending = false
			isFirst := firstPair
			firstPair = false

			if pendingTime.IsZero() || msg.Timestamp.IsZero() {
				continue
			}
			elapsed := round2(msg.Timestamp.Sub(pendingTime).Seconds())
			if elapsed < 0 {
				continue
			}
			if isFirst {
				value := elapsed
				initial = &value
			} else {
				nonInitial = append(nonInitial, elapsed)
			}
		}
	}

	if initial == nil && len(nonInitial) == 0 {
		return nil
	}

	metrics := &analysis.DelayMetrics{
		ConversationID:      conv.ID,
		InitialDelaySeconds: initial,
	}
	if len(nonInitial) > 0 {
		avg := round2(mean(nonInitial))
		metrics.AvgNonInitialDelaySeconds = &avg
	}
	return metrics
}

// FormatResponseTime renders an average response time as MM:SS with the
// number of slow responses appended, e.g. "01:23 (2 msg > 4 Min)".
func FormatResponseTime(seconds []float64) string {
	if len(seconds) == 0 {
		return "00:00 (0 msg > 4 Min)"
	}

	avg := mean(seconds)
	minutes := int(avg) / 60
	secs := int(avg) % 60

	over := 0
	for _, v := range seconds {
		if v > slowResponseSeconds {
			over++
		}
	}
	return fmt.Sprintf("%02d:%02d (%d msg > 4 Min)", minutes, secs, over)
}

// ResponseStats summarizes one class of response times. Average, median
// and minimum are computed over responses under four minutes so a
// handful of stalled chats cannot hide the typical experience; the
// maximum and the formatted label cover all samples.
func ResponseStats(seconds []float64) analysis.ResponseTimeStats {
	stats := analysis.ResponseTimeStats{
		Count:     len(seconds),
		Formatted: FormatResponseTime(seconds),
	}
	if len(seconds) == 0 {
		return stats
	}

	var fast []float64
	for _, v := range seconds {
		if v < slowResponseSeconds {
			fast = append(fast, v)
		} else {
			stats.Count4Plus++
		}
	}
	stats.CountUnder4Min = len(fast)

	if len(fast) > 0 {
		stats.AvgSeconds = round2(mean(fast))
		stats.MedianSeconds = round2(median(fast))
		min := fast[0]
		for _, v := range fast {
			if v < min {
				min = v
			}
		}
		stats.MinSeconds = min
	}

	max := seconds[0]
	for _, v := range seconds {
		if v > max {
			max = v
		}
	}
	stats.MaxSeconds = max
	return stats
}

// AgentInterventionPercentage is the share of human-agent messages among
// all bot and agent messages, rounded to two decimals.
func AgentInterventionPercentage(conversations []analysis.Conversation) float64 {
	var bot, agent int
	for _, conv := range conversations {
		for _, msg := range conv.Messages {
			switch msg.SenderRole {
			case analysis.SenderBot:
				bot++
			case analysis.SenderAgent:
				agent++
			}
		}
	}
	total := bot + agent
	if total == 0 {
		return 0
	}
	return round2(100 * float64(agent) / float64(total))
}

// HandlingPercentage is the share of conversations the bot handled
// without any human-agent message. With a skill filter only
// conversations touching that skill count; without one every
// conversation does.
func HandlingPercentage(conversations []analysis.Conversation, skillFilter string) float64 {
	filter := strings.ToLower(strings.TrimSpace(skillFilter))

	var total, botOnly int
	for _, conv := range conversations {
		if filter != "" && !conversationHasSkill(conv, filter) {
			continue
		}
		total++
		if !conversationHasAgent(conv) {
			botOnly++
		}
	}
	if total == 0 {
		return 0
	}
	return round2(100 * float64(botOnly) / float64(total))
}

func conversationHasSkill(conv analysis.Conversation, filter string) bool {
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Skill), filter) {
			return true
		}
	}
	return false
}

func conversationHasAgent(conv analysis.Conversation) bool {
	for _, msg := range conv.Messages {
		if msg.SenderRole == analysis.SenderAgent {
			return true
		}
	}
	return false
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
