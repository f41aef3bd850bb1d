package tableau

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

// Client fetches conversation data from Tableau Server using personal
// access token authentication.
type Client struct {
	serverURL      string
	apiVersion     string
	tokenName      string
	tokenValue     string
	siteContentURL string
	workbookName   string
	httpClient     *http.Client
}

type Options struct {
	ServerURL      string
	APIVersion     string
	TokenName      string
	TokenValue     string
	SiteContentURL string
	WorkbookName   string
}

func NewClient(opts Options) *Client {
	return &Client{
		serverURL:      opts.ServerURL,
		apiVersion:     opts.APIVersion,
		tokenName:      opts.TokenName,
		tokenValue:     opts.TokenValue,
		siteContentURL: opts.SiteContentURL,
		workbookName:   opts.WorkbookName,
		httpClient:     &http.Client{Timeout: 120 * time.Second},
	}
}

// FetchConversations downloads the view's CSV for one date and parses
// it into conversations. Empty data is an empty slice, not an error;
// any sign-in, lookup or download failure is a DataSourceError.
func (c *Client) FetchConversations(ctx context.Context, viewName, date string) ([]analysis.Conversation, int, error) {
	token, siteID, err := c.signIn(ctx)
	if err != nil {
		return nil, 0, &analysis.DataSourceError{View: viewName, Err: err}
	}
	defer c.signOut(ctx, token)

	workbookID, err := c.workbookID(ctx, token, siteID)
	if err != nil {
		return nil, 0, &analysis.DataSourceError{View: viewName, Err: err}
	}

	viewID, err := c.viewID(ctx, token, siteID, workbookID, viewName)
	if err != nil {
		return nil, 0, &analysis.DataSourceError{View: viewName, Err: err}
	}

	csvData, err := c.downloadCSV(ctx, token, siteID, viewID, date)
	if err != nil {
		return nil, 0, &analysis.DataSourceError{View: viewName, Err: err}
	}

	convs, skipped, err := parseConversations(csvData)
	if err != nil {
		return nil, 0, &analysis.DataSourceError{View: viewName, Err: err}
	}

	logrus.Infof("Fetched %d conversations from view %q for %s (%d skipped)", len(convs), viewName, date, skipped)
	return convs, skipped, nil
}

type signInResponse struct {
	Credentials struct {
		Token string `json:"token"`
		Site  struct {
			ID string `json:"id"`
		} `json:"site"`
	} `json:"credentials"`
}

// signIn authenticates via PAT and returns the auth token and site LUID.
func (c *Client) signIn(ctx context.Context) (string, string, error) {
	payload := map[string]interface{}{
		"credentials": map[string]interface{}{
			"personalAccessTokenName":   c.tokenName,
			"personalAccessTokenSecret": c.tokenValue,
			"site":                      map[string]string{"contentUrl": c.siteContentURL},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	endpoint := fmt.Sprintf("%s/api/%s/auth/signin", c.serverURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("sign-in failed (HTTP %d): %s", resp.StatusCode, string(text))
	}

	var signIn signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&signIn); err != nil {
		return "", "", fmt.Errorf("failed to parse sign-in response: %w", err)
	}
	return signIn.Credentials.Token, signIn.Credentials.Site.ID, nil
}

func (c *Client) signOut(ctx context.Context, token string) {
	endpoint := fmt.Sprintf("%s/api/%s/auth/signout", c.serverURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return
	}
	req.Header.Set("X-Tableau-Auth", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Warnf("Failed to sign out from Tableau Server: %v", err)
		return
	}
	resp.Body.Close()
}

type workbooksResponse struct {
	Workbooks struct {
		Workbook []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"workbook"`
	} `json:"workbooks"`
}

// workbookID pages through the site's workbooks looking for the
// configured workbook name.
func (c *Client) workbookID(ctx context.Context, token, siteID string) (string, error) {
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/api/%s/sites/%s/workbooks?pageSize=100&pageNumber=%d",
			c.serverURL, c.apiVersion, siteID, page)

		var parsed workbooksResponse
		if err := c.getJSON(ctx, token, endpoint, &parsed); err != nil {
			return "", fmt.Errorf("workbook lookup failed: %w", err)
		}

		for _, wb := range parsed.Workbooks.Workbook {
			if wb.Name == c.workbookName {
				return wb.ID, nil
			}
		}
		if len(parsed.Workbooks.Workbook) < 100 {
			return "", fmt.Errorf("workbook %q not found", c.workbookName)
		}
	}
}

type viewsResponse struct {
	Views struct {
		View []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"view"`
	} `json:"views"`
}

// viewID pages through the workbook's views looking for viewName.
func (c *Client) viewID(ctx context.Context, token, siteID, workbookID, viewName string) (string, error) {
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/api/%s/sites/%s/workbooks/%s/views?pageSize=100&pageNumber=%d",
			c.serverURL, c.apiVersion, siteID, workbookID, page)

		var parsed viewsResponse
		if err := c.getJSON(ctx, token, endpoint, &parsed); err != nil {
			return "", fmt.Errorf("view lookup failed: %w", err)
		}

		for _, view := range parsed.Views.View {
			if view.Name == viewName {
				return view.ID, nil
			}
		}
		if len(parsed.Views.View) < 100 {
			return "", fmt.Errorf("view %q not found in workbook %q", viewName, c.workbookName)
		}
	}
}

// downloadCSV fetches the view data filtered to a single day.
func (c *Client) downloadCSV(ctx context.Context, token, siteID, viewID, date string) ([]byte, error) {
	params := url.Values{}
	params.Set("vf_From", date)
	params.Set("vf_To", date)
	params.Set("vf_ActionDate", date+":"+date)

	endpoint := fmt.Sprintf("%s/api/%s/sites/%s/views/%s/data?%s",
		c.serverURL, c.apiVersion, siteID, viewID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Tableau-Auth", token)
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("view data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("view data download failed (HTTP %d): %s", resp.StatusCode, string(text))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read view data: %w", err)
	}
	// Tableau exports occasionally contain narrow no-break spaces.
	return bytes.ReplaceAll(data, []byte("\u202f"), []byte(" ")), nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Tableau-Auth", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(text))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
