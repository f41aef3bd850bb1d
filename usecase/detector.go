package usecase

import (
	"strings"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

// NormalizeText folds a message text for repetition matching: leading
// and trailing whitespace is ignored, as is letter case.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// QualifyingMessages returns the bot messages of a conversation that
// participate in repetition analysis. When skillFilter is non-empty the
// message skill must contain it, case-insensitively; messages with
// empty text never qualify.
func QualifyingMessages(conv analysis.Conversation, skillFilter string) []analysis.Message {
	filter := strings.ToLower(strings.TrimSpace(skillFilter))
	var out []analysis.Message
	for _, msg := range conv.Messages {
		if msg.SenderRole != analysis.SenderBot {
			continue
		}
		if NormalizeText(msg.Text) == "" {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(msg.Skill), filter) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Detect partitions a conversation's qualifying bot messages into
// repetition groups. Messages are grouped by normalized text regardless
// of position; a group needs at least two members to be a repetition.
// Groups are emitted in the order their first member appears, carrying
// the first occurrence's original text and message id. Pure function.
func Detect(conv analysis.Conversation, skillFilter string) []analysis.RepetitionGroup {
	byText := make(map[string]*analysis.RepetitionGroup)
	var order []string

	for _, msg := range QualifyingMessages(conv, skillFilter) {
		key := NormalizeText(msg.Text)
		group, ok := byText[key]
		if !ok {
			group = &analysis.RepetitionGroup{
				ConversationID: conv.ID,
				MessageID:      msg.ID,
				Text:           msg.Text,
				Skill:          msg.Skill,
			}
			byText[key] = group
			order = append(order, key)
		}
		group.RepetitionCount++
		group.MessageIDs = append(group.MessageIDs, msg.ID)
	}

	var groups []analysis.RepetitionGroup
	for _, key := range order {
		if group := byText[key]; group.RepetitionCount >= 2 {
			groups = append(groups, *group)
		}
	}
	return groups
}
