package analysis

import "context"

type IConversationFetcher interface {
	// FetchConversations returns all conversations for a BI view on the
	// given date (YYYY-MM-DD), plus the number of conversations skipped
	// because their rows could not be parsed. An empty result is not an
	// error; connectivity and auth failures are a DataSourceError.
	FetchConversations(ctx context.Context, viewName, date string) (convs []Conversation, skipped int, err error)
}

type ISheetPublisher interface {
	// UploadRows replaces the contents of a sheet tab, creating the tab
	// if it does not exist.
	UploadRows(ctx context.Context, spreadsheetID, sheetName string, rows [][]interface{}) error

	// UpsertDateRow writes one row keyed by its date: if a row whose
	// first cell equals date already exists in the tab it is updated,
	// otherwise the row is appended. The tab is created if missing.
	UpsertDateRow(ctx context.Context, spreadsheetID, sheetName, date string, row []interface{}) error
}

type IRunHistoryRepository interface {
	SaveRun(ctx context.Context, run RunRecord) error
	RecentRuns(ctx context.Context, department string, limit int) ([]RunRecord, error)
}
