package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDepartments(t *testing.T) {
	t.Setenv("APPLICANTS_SPREADSHEET_ID", "sheet-applicants")
	t.Setenv("DOCTORS_SPREADSHEET_ID", "sheet-doctors")
	t.Setenv("DOCTORS_SUMMARY_SPREADSHEET_ID", "sheet-doctors-summary")
	t.Setenv("DOCTORS_DELAYS_SPREADSHEET_ID", "sheet-doctors-delays")
	Load()

	assert.Equal(t, []string{"applicants", "doctors", "mv_resolvers", "cc_sales"}, DepartmentNames())

	doctors, ok := DepartmentByName("doctors")
	require.True(t, ok)
	assert.Equal(t, "Doctors", doctors.ViewName)
	assert.Equal(t, "GPT_Doctors", doctors.SkillFilter)
	assert.Equal(t, "sheet-doctors", doctors.SpreadsheetID)
	assert.Equal(t, "sheet-doctors-summary", doctors.SummarySpreadsheetID)
	assert.Equal(t, "sheet-doctors-delays", doctors.DelaysSpreadsheetID)

	// Without dedicated summary or delays sheets the main sheet is reused.
	applicants, ok := DepartmentByName("applicants")
	require.True(t, ok)
	assert.Equal(t, "sheet-applicants", applicants.SummarySpreadsheetID)
	assert.Equal(t, "sheet-applicants", applicants.DelaysSpreadsheetID)

	sales, ok := DepartmentByName("cc_sales")
	require.True(t, ok)
	assert.Empty(t, sales.SkillFilter)

	_, ok = DepartmentByName("unknown")
	assert.False(t, ok)
}

func TestValidateReportsAllMissingSettings(t *testing.T) {
	t.Setenv("TABLEAU_TOKEN_NAME", "")
	t.Setenv("TABLEAU_TOKEN_VALUE", "pat-secret")
	t.Setenv("TABLEAU_SITE_CONTENT_URL", "mysite")
	t.Setenv("APPLICANTS_SPREADSHEET_ID", "a")
	t.Setenv("DOCTORS_SPREADSHEET_ID", "")
	t.Setenv("MV_RESOLVERS_SPREADSHEET_ID", "c")
	t.Setenv("CC_SALES_SPREADSHEET_ID", "d")
	Load()

	err := Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TABLEAU_TOKEN_NAME")
	assert.Contains(t, err.Error(), "DOCTORS_SPREADSHEET_ID")
	assert.NotContains(t, err.Error(), "TABLEAU_TOKEN_VALUE")
}

func TestValidatePasses(t *testing.T) {
	t.Setenv("TABLEAU_TOKEN_NAME", "pat")
	t.Setenv("TABLEAU_TOKEN_VALUE", "secret")
	t.Setenv("TABLEAU_SITE_CONTENT_URL", "mysite")
	t.Setenv("APPLICANTS_SPREADSHEET_ID", "a")
	t.Setenv("DOCTORS_SPREADSHEET_ID", "b")
	t.Setenv("MV_RESOLVERS_SPREADSHEET_ID", "c")
	t.Setenv("CC_SALES_SPREADSHEET_ID", "d")
	Load()

	assert.NoError(t, Validate())
}
