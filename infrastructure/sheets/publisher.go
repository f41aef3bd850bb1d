package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Publisher writes analysis output to Google Sheets using a service
// account.
type Publisher struct {
	service *sheets.Service
}

func NewPublisher(ctx context.Context, credentialsJSON []byte) (*Publisher, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Publisher{service: service}, nil
}

func NewPublisherFromFile(ctx context.Context, credentialsFile string) (*Publisher, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Publisher{service: service}, nil
}

// UploadRows replaces the whole contents of a tab with the given rows,
// creating the tab if it does not exist.
func (p *Publisher) UploadRows(ctx context.Context, spreadsheetID, sheetName string, rows [][]interface{}) error {
	if err := p.ensureSheet(ctx, spreadsheetID, sheetName); err != nil {
		return err
	}

	rangeRef := fmt.Sprintf("%s!A1", quoteSheet(sheetName))
	if _, err := p.service.Spreadsheets.Values.Clear(spreadsheetID, quoteSheet(sheetName), &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sheet %q: %w", sheetName, err)
	}

	_, err := p.service.Spreadsheets.Values.Update(spreadsheetID, rangeRef, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write %d rows to sheet %q: %w", len(rows), sheetName, err)
	}
	return nil
}

// UpsertDateRow writes one row keyed by the date in column A: the
// existing row for that date is overwritten, otherwise the row is
// appended. Used for the one-row-per-day summary tabs.
func (p *Publisher) UpsertDateRow(ctx context.Context, spreadsheetID, sheetName, date string, row []interface{}) error {
	if err := p.ensureSheet(ctx, spreadsheetID, sheetName); err != nil {
		return err
	}

	colRange := fmt.Sprintf("%s!A:A", quoteSheet(sheetName))
	existing, err := p.service.Spreadsheets.Values.Get(spreadsheetID, colRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	for i, cells := range existing.Values {
		if len(cells) == 0 {
			continue
		}
		if value, ok := cells[0].(string); ok && strings.TrimSpace(value) == date {
			rangeRef := fmt.Sprintf("%s!A%d", quoteSheet(sheetName), i+1)
			_, err := p.service.Spreadsheets.Values.Update(spreadsheetID, rangeRef, &sheets.ValueRange{Values: [][]interface{}{row}}).
				ValueInputOption("RAW").
				Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to update row %d in sheet %q: %w", i+1, sheetName, err)
			}
			logrus.Debugf("Updated existing row for %s in sheet %q", date, sheetName)
			return nil
		}
	}

	_, err = p.service.Spreadsheets.Values.Append(spreadsheetID, colRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row to sheet %q: %w", sheetName, err)
	}
	return nil
}

// ensureSheet creates the tab when the spreadsheet does not have it yet.
func (p *Publisher) ensureSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	spreadsheet, err := p.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	_, err = p.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheetName, err)
	}
	logrus.Infof("Created sheet %q in spreadsheet %s", sheetName, spreadsheetID)
	return nil
}

// quoteSheet wraps tab names containing spaces in single quotes, as the
// A1 notation requires.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " -") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
