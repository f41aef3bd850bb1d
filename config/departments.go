package config

import "os"

// Department is the immutable configuration record for one business
// unit. The set of departments is fixed at startup; only spreadsheet
// ids come from the environment.
type Department struct {
	Name                 string `json:"name"`
	ViewName             string `json:"view_name"`
	SkillFilter          string `json:"skill_filter,omitempty"`
	SpreadsheetID        string `json:"spreadsheet_id"`
	SummarySpreadsheetID string `json:"summary_spreadsheet_id"`
	DelaysSpreadsheetID  string `json:"delays_spreadsheet_id"`

	spreadsheetEnv string
}

var departments []Department

func loadDepartments() {
	departments = []Department{
		newDepartment("applicants", "Applicants", "FILIPINA_OUTSIDE", "APPLICANTS_SPREADSHEET_ID"),
		newDepartment("doctors", "Doctors", "GPT_Doctors", "DOCTORS_SPREADSHEET_ID"),
		newDepartment("mv_resolvers", "MV Resolvers", "gpt_mv_resolvers", "MV_RESOLVERS_SPREADSHEET_ID"),
		// CC Sales has no skill filter: every bot message qualifies.
		newDepartment("cc_sales", "Sales CC", "", "CC_SALES_SPREADSHEET_ID"),
	}
}

func newDepartment(name, viewName, skillFilter, spreadsheetEnv string) Department {
	prefix := spreadsheetEnv[:len(spreadsheetEnv)-len("_SPREADSHEET_ID")]
	spreadsheetID := os.Getenv(spreadsheetEnv)
	summaryID := os.Getenv(prefix + "_SUMMARY_SPREADSHEET_ID")
	if summaryID == "" {
		// Fall back to the main spreadsheet when no dedicated summary
		// sheet is configured.
		summaryID = spreadsheetID
	}
	delaysID := os.Getenv(prefix + "_DELAYS_SPREADSHEET_ID")
	if delaysID == "" {
		delaysID = spreadsheetID
	}
	return Department{
		Name:                 name,
		ViewName:             viewName,
		SkillFilter:          skillFilter,
		SpreadsheetID:        spreadsheetID,
		SummarySpreadsheetID: summaryID,
		DelaysSpreadsheetID:  delaysID,
		spreadsheetEnv:       spreadsheetEnv,
	}
}

// Departments returns the configured departments in their fixed order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// DepartmentByName looks up a department by its identifier.
func DepartmentByName(name string) (Department, bool) {
	for _, dept := range departments {
		if dept.Name == name {
			return dept, true
		}
	}
	return Department{}, false
}

// DepartmentNames returns the identifiers of all configured departments.
func DepartmentNames() []string {
	names := make([]string, 0, len(departments))
	for _, dept := range departments {
		names = append(names, dept.Name)
	}
	return names
}
