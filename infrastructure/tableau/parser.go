package tableau

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

// Column headers of the department views.
const (
	colConversationID = "Conversation ID"
	colMessageID      = "MESSAGE_ID"
	colSentBy         = "Sent By"
	colMessageType    = "Message Type"
	colText           = "TEXT"
	colSkill          = "Skill"
	colSentTime       = "Message Sent Time"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
}

// parseConversations turns a view CSV export into ordered
// conversations. Rows are kept only for Normal Message entries from
// Bot, Consumer or Agent senders; each conversation's messages are
// sorted by sent time and (conversation, sent time) duplicates are
// dropped. System traffic and other out-of-scope rows are filtered
// silently. Returns the conversations and the number of conversations
// skipped as malformed: those whose rows carried no usable data (e.g.
// a missing sender) and yielded no message at all.
func parseConversations(data []byte) ([]analysis.Conversation, int, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colConversationID, colSentBy, colText} {
		if _, ok := index[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	byConversation := make(map[string][]analysis.Message)
	seenRows := make(map[string]bool)
	malformed := make(map[string]bool)
	var order []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.Warnf("Skipping unreadable CSV row: %v", err)
			continue
		}

		convID := field(record, colConversationID)
		if convID == "" {
			continue
		}

		msgType := strings.ToLower(field(record, colMessageType))
		if msgType != "" && msgType != "normal message" {
			continue
		}

		var role analysis.SenderRole
		switch sender := strings.ToLower(field(record, colSentBy)); sender {
		case "bot":
			role = analysis.SenderBot
		case "consumer":
			role = analysis.SenderUser
		case "agent":
			role = analysis.SenderAgent
		case "":
			// A normal-message row without a sender is broken data,
			// not out-of-scope traffic.
			malformed[convID] = true
			continue
		default:
			// System and other traffic is out of scope.
			continue
		}

		msg := analysis.Message{
			ID:             field(record, colMessageID),
			ConversationID: convID,
			SenderRole:     role,
			Text:           field(record, colText),
			Timestamp:      parseTime(field(record, colSentTime)),
			Skill:          field(record, colSkill),
		}

		if !msg.Timestamp.IsZero() {
			key := convID + "\x00" + msg.Timestamp.Format(time.RFC3339Nano)
			if seenRows[key] {
				continue
			}
			seenRows[key] = true
		}

		if _, ok := byConversation[convID]; !ok {
			order = append(order, convID)
		}
		byConversation[convID] = append(byConversation[convID], msg)
	}

	var convs []analysis.Conversation
	for _, convID := range order {
		messages := byConversation[convID]
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		})
		convs = append(convs, analysis.Conversation{ID: convID, Messages: messages})
	}

	skipped := 0
	for convID := range malformed {
		if _, ok := byConversation[convID]; !ok {
			skipped++
		}
	}
	return convs, skipped, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
