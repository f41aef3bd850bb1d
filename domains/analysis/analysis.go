package analysis

import "time"

// SenderRole identifies who sent a message within a conversation.
type SenderRole string

const (
	SenderBot   SenderRole = "bot"
	SenderUser  SenderRole = "user"
	SenderAgent SenderRole = "agent"
)

// SummarySentinel is the conversation id used for summary rows.
const SummarySentinel = "SUMMARY"

// Message is a single transcript entry. Immutable once fetched.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderRole     SenderRole `json:"sender_role"`
	Text           string     `json:"text"`
	Timestamp      time.Time  `json:"timestamp"`
	Skill          string     `json:"skill,omitempty"`
}

// Conversation holds the ordered messages of one chat. Read-only to
// everything downstream of the fetcher.
type Conversation struct {
	ID         string    `json:"id"`
	Department string    `json:"department"`
	Messages   []Message `json:"messages"`
}

// RepetitionGroup is a set of bot messages within one conversation that
// share the same normalized text. Count is always >= 2.
type RepetitionGroup struct {
	ConversationID  string   `json:"conversation_id"`
	MessageID       string   `json:"message_id"`
	Text            string   `json:"message"`
	RepetitionCount int      `json:"repetition_count"`
	MessageIDs      []string `json:"message_ids"`
	Skill           string   `json:"skill,omitempty"`
}

// DelayMetrics holds response-time metrics for a single conversation.
// Nil pointer fields mean "no sample", never zero.
type DelayMetrics struct {
	ConversationID            string   `json:"conversation_id"`
	InitialDelaySeconds       *float64 `json:"initial_delay_seconds,omitempty"`
	AvgNonInitialDelaySeconds *float64 `json:"avg_non_initial_delay_seconds,omitempty"`
}

// ResponseTimeStats summarizes one class of response times. Averages,
// median and minimum are computed over responses under four minutes;
// the maximum and the formatted label cover all samples so slow
// responses stay visible.
type ResponseTimeStats struct {
	Count          int     `json:"count"`
	CountUnder4Min int     `json:"count_under_4min"`
	Count4Plus     int     `json:"count_4plus"`
	AvgSeconds     float64 `json:"avg_response_time"`
	MedianSeconds  float64 `json:"median_response_time"`
	MinSeconds     float64 `json:"min_response_time"`
	MaxSeconds     float64 `json:"max_response_time"`
	Formatted      string  `json:"avg_response_time_formatted"`
}

// Summary is the sentinel row appended after the detail rows when a
// department result is published.
type Summary struct {
	ConversationID            string `json:"conversation_id"`
	MessageID                 string `json:"message_id"`
	Message                   string `json:"message"`
	PercentageWithRepetitions string `json:"percentage_with_repetitions"`
	TotalChats                int    `json:"total_chats"`
	ChatsWithRepetitions      int    `json:"chats_with_repetitions"`
}

// DepartmentResult is the complete outcome of one analysis run for one
// department. Immutable after construction.
type DepartmentResult struct {
	Department                   string            `json:"department"`
	AnalysisDate                 string            `json:"analysis_date"`
	TotalConversations           int               `json:"total_conversations"`
	ConversationsWithRepetitions int               `json:"conversations_with_repetitions"`
	RepetitionPercentage         float64           `json:"repetition_percentage"`
	Repetitions                  []RepetitionGroup `json:"repetitions"`
	Summary                      Summary           `json:"summary"`
	SkippedConversations         int               `json:"skipped_conversations"`
	AvgInitialDelaySeconds       *float64          `json:"avg_initial_delay_seconds,omitempty"`
	AvgNonInitialDelaySeconds    *float64          `json:"avg_non_initial_delay_seconds,omitempty"`
}

// CombinedSummaryRecord blends repetition and delay metrics into the one
// row per (department, date) that lands in the summary sheet.
type CombinedSummaryRecord struct {
	Department                  string   `json:"department"`
	Date                        string   `json:"date"`
	TotalChats                  int      `json:"total_chats"`
	RepetitionPercentage        float64  `json:"repetition_percentage"`
	RepetitionLabel             string   `json:"repetition_label"`
	AvgInitialDelaySeconds      *float64 `json:"avg_initial_delay_seconds,omitempty"`
	AvgNonInitialDelaySeconds   *float64 `json:"avg_non_initial_delay_seconds,omitempty"`
	FirstResponseLabel          string   `json:"first_response_label"`
	NonInitialResponseLabel     string   `json:"non_initial_response_label"`
	AgentInterventionPercentage float64  `json:"agent_intervention_percentage"`
	HandlingPercentage          float64  `json:"handling_percentage"`
}

// ConversationAnalysis pairs a conversation with its detector and delay
// calculator output, ready for aggregation.
type ConversationAnalysis struct {
	Conversation Conversation
	Groups       []RepetitionGroup
	Qualifying   int
	Delays       *DelayMetrics
}

// DelayReport is the department-level outcome of a delays-only run.
type DelayReport struct {
	Department                  string            `json:"department"`
	AnalysisDate                string            `json:"analysis_date"`
	TotalConversations          int               `json:"total_conversations"`
	Conversations               []DelayMetrics    `json:"conversations"`
	AvgInitialDelaySeconds      *float64          `json:"avg_initial_delay_seconds,omitempty"`
	AvgNonInitialDelaySeconds   *float64          `json:"avg_non_initial_delay_seconds,omitempty"`
	FirstResponse               ResponseTimeStats `json:"first_response"`
	NonInitialResponse          ResponseTimeStats `json:"non_initial_response"`
	AgentInterventionPercentage float64           `json:"agent_intervention_percentage"`
	HandlingPercentage          float64           `json:"handling_percentage"`
}

// DelayRunReport wraps one department's delay report with its step
// statuses, mirroring DepartmentReport for the delays pipeline.
type DelayRunReport struct {
	Department string       `json:"department"`
	Report     *DelayReport `json:"report,omitempty"`
	Steps      StepStatus   `json:"steps"`
	Error      string       `json:"error,omitempty"`
}

// Step outcome values used in StepStatus.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepStatus records which pipeline steps succeeded for a request, so a
// caller never gets an all-or-nothing failure.
type StepStatus struct {
	Fetch   string `json:"fetch"`
	Analyze string `json:"analyze"`
	Publish string `json:"publish"`
}

// DepartmentReport wraps one department's result with its step statuses.
type DepartmentReport struct {
	Department string                 `json:"department"`
	Result     *DepartmentResult      `json:"result,omitempty"`
	Combined   *CombinedSummaryRecord `json:"combined,omitempty"`
	Steps      StepStatus             `json:"steps"`
	Error      string                 `json:"error,omitempty"`
}

// BatchSummary aggregates counts across all departments in a batch run.
type BatchSummary struct {
	TotalConversations   int     `json:"total_conversations"`
	TotalWithRepetitions int     `json:"total_with_repetitions"`
	OverallPercentage    float64 `json:"overall_percentage"`
}

// BatchResult is the response of an analyze-all run. Departments that
// failed are present with a failed status, not dropped.
type BatchResult struct {
	TotalDepartments int                `json:"total_departments"`
	Successful       int                `json:"successful_analyses"`
	Failed           int                `json:"failed_analyses"`
	Results          []DepartmentReport `json:"results"`
	Summary          BatchSummary       `json:"summary_statistics"`
}

// RunRecord is one persisted analysis run.
type RunRecord struct {
	ID                           string    `json:"id"`
	Department                   string    `json:"department"`
	AnalysisDate                 string    `json:"analysis_date"`
	TotalConversations           int       `json:"total_conversations"`
	ConversationsWithRepetitions int       `json:"conversations_with_repetitions"`
	RepetitionPercentage         float64   `json:"repetition_percentage"`
	SkippedConversations         int       `json:"skipped_conversations"`
	CreatedAt                    time.Time `json:"created_at"`
}
