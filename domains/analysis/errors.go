package analysis

import (
	"fmt"
	"strings"
)

// DataSourceError reports a failed fetch from the BI source: network,
// auth, or a missing view.
type DataSourceError struct {
	View string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source failure for view %q: %v", e.View, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// MalformedConversationError marks a single conversation whose data
// failed to parse. Such conversations are skipped, never fatal.
type MalformedConversationError struct {
	ConversationID string
	Reason         string
}

func (e *MalformedConversationError) Error() string {
	return fmt.Sprintf("malformed conversation %q: %s", e.ConversationID, e.Reason)
}

// PublishError reports a failed spreadsheet upload. The analysis result
// is still returned to the caller alongside it.
type PublishError struct {
	SpreadsheetID string
	Sheet         string
	Err           error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to spreadsheet %s sheet %q failed: %v", e.SpreadsheetID, e.Sheet, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ConfigurationError reports an unknown department or missing required
// settings. Raised before any fetch is attempted.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
