package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteRepository(db)
	require.NoError(t, err)
	return repo
}

func TestSaveRunGeneratesID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.SaveRun(ctx, analysis.RunRecord{
		Department:                   "doctors",
		AnalysisDate:                 "2025-03-01",
		TotalConversations:           120,
		ConversationsWithRepetitions: 9,
		RepetitionPercentage:         7.5,
		CreatedAt:                    time.Now().UTC(),
	})
	require.NoError(t, err)

	runs, err := repo.RecentRuns(ctx, "doctors", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].ID)
	assert.Equal(t, "2025-03-01", runs[0].AnalysisDate)
	assert.Equal(t, 120, runs[0].TotalConversations)
	assert.InDelta(t, 7.5, runs[0].RepetitionPercentage, 0.001)
}

func TestRecentRunsFiltersAndOrders(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, dept := range []string{"doctors", "applicants", "doctors"} {
		err := repo.SaveRun(ctx, analysis.RunRecord{
			Department:   dept,
			AnalysisDate: "2025-03-01",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	runs, err := repo.RecentRuns(ctx, "doctors", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))

	all, err := repo.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecentRunsClampsLimit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		err := repo.SaveRun(ctx, analysis.RunRecord{
			Department:   "cc_sales",
			AnalysisDate: "2025-03-01",
			CreatedAt:    time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	runs, err := repo.RecentRuns(ctx, "cc_sales", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 10)

	runs, err = repo.RecentRuns(ctx, "cc_sales", 5)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}
