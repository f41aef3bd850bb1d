package tableau

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/3.16/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"credentials":{"token":"tok-1","site":{"id":"site-1"}}}`)
	})
	mux.HandleFunc("/api/3.16/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/3.16/sites/site-1/workbooks", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok-1", r.Header.Get("X-Tableau-Auth"))
		fmt.Fprint(w, `{"workbooks":{"workbook":[
			{"id":"wb-0","name":"Other workbook"},
			{"id":"wb-1","name":"Department tables"}
		]}}`)
	})
	mux.HandleFunc("/api/3.16/sites/site-1/workbooks/wb-1/views", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"views":{"view":[{"id":"view-1","name":"Doctors"}]}}`)
	})
	mux.HandleFunc("/api/3.16/sites/site-1/views/view-1/data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("vf_From"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("vf_To"))
		fmt.Fprint(w, "Conversation ID,MESSAGE_ID,Sent By,Message Type,TEXT,Skill,Message Sent Time\n"+
			"conv-1,m1,Bot,Normal Message,hello\u202fworld,,2025-03-01 10:00:00\n")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(serverURL string) *Client {
	return NewClient(Options{
		ServerURL:      serverURL,
		APIVersion:     "3.16",
		TokenName:      "token-name",
		TokenValue:     "token-value",
		SiteContentURL: "mysite",
		WorkbookName:   "Department tables",
	})
}

func TestFetchConversations(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server.URL)

	convs, skipped, err := client.FetchConversations(context.Background(), "Doctors", "2025-03-01")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, convs, 1)
	require.Len(t, convs[0].Messages, 1)
	// The narrow no-break space is normalized to a plain space.
	assert.Equal(t, "hello world", convs[0].Messages[0].Text)
}

func TestFetchConversationsSignInFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, _, err := client.FetchConversations(context.Background(), "Doctors", "2025-03-01")
	require.Error(t, err)

	var dsErr *analysis.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "Doctors", dsErr.View)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchConversationsUnknownView(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server.URL)

	_, _, err := client.FetchConversations(context.Background(), "Missing View", "2025-03-01")
	require.Error(t, err)

	var dsErr *analysis.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "Missing View", dsErr.View)
}

func TestFetchConversationsUnknownWorkbook(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server.URL)
	client.workbookName = "No such workbook"

	_, _, err := client.FetchConversations(context.Background(), "Doctors", "2025-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
