package config

import (
	"os"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

var (
	AppVersion = "1.0.0"

	Port     string
	LogLevel string

	TableauServerURL      string
	TableauAPIVersion     string
	TableauTokenName      string
	TableauTokenValue     string
	TableauSiteContentURL string
	TableauWorkbookName   string

	// Service-account credentials for the Sheets publisher. JSON takes
	// precedence over the file path when both are set.
	GoogleCredentialsJSON string
	GoogleCredentialsFile string

	HistoryDBPath string
)

// Load reads all settings from the environment. Call once at startup,
// before Validate.
func Load() {
	Port = getEnv("PORT", "8000")
	LogLevel = getEnv("LOG_LEVEL", "info")

	TableauServerURL = getEnv("TABLEAU_SERVER_URL", "https://prod-uk-a.online.tableau.com")
	TableauAPIVersion = getEnv("TABLEAU_API_VERSION", "3.16")
	TableauTokenName = os.Getenv("TABLEAU_TOKEN_NAME")
	TableauTokenValue = os.Getenv("TABLEAU_TOKEN_VALUE")
	TableauSiteContentURL = os.Getenv("TABLEAU_SITE_CONTENT_URL")
	TableauWorkbookName = getEnv("TABLEAU_WORKBOOK_NAME", "8 Department wise tables for chats & calls")

	GoogleCredentialsJSON = os.Getenv("GOOGLE_CREDENTIALS")
	GoogleCredentialsFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "cred.json")

	HistoryDBPath = getEnv("HISTORY_DB_PATH", "storages/runs.db")

	loadDepartments()
}

// Validate fails fast on missing required settings so no request ever
// reaches the fetch step with a broken configuration.
func Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"TABLEAU_TOKEN_NAME", TableauTokenName},
		{"TABLEAU_TOKEN_VALUE", TableauTokenValue},
		{"TABLEAU_SITE_CONTENT_URL", TableauSiteContentURL},
	}
	var missing []string
	for _, item := range required {
		if item.value == "" {
			missing = append(missing, item.name)
		}
	}
	for _, dept := range departments {
		if dept.SpreadsheetID == "" {
			missing = append(missing, dept.spreadsheetEnv)
		}
	}
	if len(missing) > 0 {
		return &analysis.ConfigurationError{Missing: missing}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
