package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"qacoverage.app/api-server/core/config"
)

const (
	shortTimeout  = 10 * time.Second
	commentTimeout = 15 * time.Second
	searchTimeout = 30 * time.Second

	defaultPageSize = 50
	maxRetries      = 2
)

// Issue is a normalized issue as fetched from the tracker, before it is
// reconciled with the store.
type Issue struct {
	JiraKey              string
	Summary              string
	Description          string
	SprintID             string
	SprintName           string
	IssueType            string
	Status               string
	Priority             *string
	Assignee             *string
	AssigneeDisplayName  *string
	LinkedTestCaseTitles []string
}

type Sprint struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type IssueMatch struct {
	Key       string  `json:"key"`
	Summary   string  `json:"summary"`
	IssueType string  `json:"issueType"`
	Status    string  `json:"status"`
	Priority  *string `json:"priority,omitempty"`
}

type GlobalSearchResult struct {
	SearchDate     time.Time    `json:"searchDate"`
	Keyword        string       `json:"keyword"`
	MatchingIssues []IssueMatch `json:"matchingIssues"`
	TotalCount     int          `json:"totalCount"`
}

type Client struct {
	cfg  config.JiraConfig
	http *http.Client
}

func NewClient(cfg config.JiraConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

func (c *Client) Configured() bool {
	return c.cfg.IsConfigured()
}

// TestConnection verifies credentials against the tracker. Unconfigured or
// failing connections report false, never an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	var me map[string]any
	if err := c.getJSON(ctx, "/rest/api/2/myself", shortTimeout, &me); err != nil {
		slog.ErrorContext(ctx, "jira connection test failed", "error", err)
		return false
	}
	return true
}

type sprintPage struct {
	Values     []Sprint `json:"values"`
	Total      *int     `json:"total"`
	MaxResults *int     `json:"maxResults"`
	StartAt    int      `json:"startAt"`
	IsLast     *bool    `json:"isLast"`
}

// FetchSprints walks the board's sprint listing to completion. Transient
// failures degrade to whatever was accumulated so far; an unconfigured
// tracker yields an empty slice.
func (c *Client) FetchSprints(ctx context.Context, projectKey, boardID string) []Sprint {
	if !c.Configured() {
		slog.WarnContext(ctx, "jira configuration is not complete")
		return nil
	}
	if boardID == "" {
		boardID = c.cfg.BoardID
	}

	var allSprints []Sprint
	startAt := 0
	for {
		url := fmt.Sprintf("/rest/agile/1.0/board/%s/sprint?startAt=%d&maxResults=%d",
			boardID, startAt, defaultPageSize)

		var page sprintPage
		if err := c.getJSON(ctx, url, searchTimeout, &page); err != nil {
			slog.ErrorContext(ctx, "fetching sprints page failed",
				"error", err, "board_id", boardID, "project_key", projectKey, "start_at", startAt)
			return allSprints
		}

		// An empty page means the listing is exhausted regardless of what
		// the envelope claims.
		if len(page.Values) == 0 {
			break
		}
		allSprints = append(allSprints, page.Values...)

		hasMore := false
		switch {
		case page.IsLast != nil:
			hasMore = !*page.IsLast
		case page.Total != nil:
			hasMore = len(allSprints) < *page.Total
		}
		if !hasMore {
			break
		}

		// Advance by the page's own maxResults to tolerate server-side
		// page-size overrides.
		step := defaultPageSize
		if page.MaxResults != nil {
			step = *page.MaxResults
		}
		startAt += step
	}

	slog.InfoContext(ctx, "fetched sprints",
		"count", len(allSprints), "board_id", boardID, "project_key", projectKey)
	return allSprints
}

type searchResponse struct {
	Issues []rawIssue `json:"issues"`
	Total  int        `json:"total"`
}

type rawIssue struct {
	Key    string    `json:"key"`
	Fields rawFields `json:"fields"`
}

type namedField struct {
	Name string `json:"name"`
}

type rawFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	IssueType   namedField      `json:"issuetype"`
	Status      namedField      `json:"status"`
	Priority    *namedField     `json:"priority"`
	Assignee    *struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	// The sprint custom field carries opaque descriptor strings.
	Sprints []string `json:"customfield_10020"`
}

// FetchSprintIssues fetches and normalizes every issue in a sprint. Bulk
// listing semantics: failures log and return an empty slice.
func (c *Client) FetchSprintIssues(ctx context.Context, sprintID, projectKey string) []Issue {
	if !c.Configured() {
		slog.WarnContext(ctx, "jira configuration is not complete")
		return nil
	}

	url := BuildSprintIssuesQuery(sprintID, projectKey, c.cfg.ProjectKey)
	var resp searchResponse
	if err := c.getJSON(ctx, url, searchTimeout, &resp); err != nil {
		slog.ErrorContext(ctx, "fetching sprint issues failed",
			"error", err, "sprint_id", sprintID, "project_key", projectKey)
		return nil
	}

	issues := make([]Issue, 0, len(resp.Issues))
	for _, raw := range resp.Issues {
		issues = append(issues, c.normalizeIssue(raw, sprintID))
	}
	slog.InfoContext(ctx, "parsed issues from jira response",
		"count", len(issues), "sprint_id", sprintID)
	return issues
}

var sprintNamePattern = regexp.MustCompile(`name=([^,\]]+)`)

// ExtractSprintName pulls the sprint name out of the opaque descriptor
// string. Falls back to a synthetic name derived from the board id.
func ExtractSprintName(descriptor, boardID string) string {
	if m := sprintNamePattern.FindStringSubmatch(descriptor); m != nil {
		return m[1]
	}
	return "Sprint " + boardID
}

func (c *Client) normalizeIssue(raw rawIssue, sprintID string) Issue {
	issue := Issue{
		JiraKey:     raw.Key,
		Summary:     raw.Fields.Summary,
		Description: FlattenDescription(raw.Fields.Description),
		SprintID:    sprintID,
		IssueType:   raw.Fields.IssueType.Name,
		Status:      raw.Fields.Status.Name,
	}

	if raw.Fields.Priority != nil {
		priority := raw.Fields.Priority.Name
		issue.Priority = &priority
	}
	if raw.Fields.Assignee != nil {
		assignee := raw.Fields.Assignee.Name
		displayName := raw.Fields.Assignee.DisplayName
		issue.Assignee = &assignee
		issue.AssigneeDisplayName = &displayName
	}
	if len(raw.Fields.Sprints) > 0 {
		issue.SprintName = ExtractSprintName(raw.Fields.Sprints[0], c.cfg.BoardID)
	}

	issue.LinkedTestCaseTitles = ExtractLinkedTestCases(issue.Description)
	return issue
}

// SearchKeywordGlobally runs a project-wide keyword search. Empty keywords
// and unconfigured trackers yield a zero-result response, never an error.
func (c *Client) SearchKeywordGlobally(ctx context.Context, keyword, projectKey string) *GlobalSearchResult {
	result := &GlobalSearchResult{
		Keyword:        keyword,
		MatchingIssues: []IssueMatch{},
		SearchDate:     time.Now(),
	}
	if !c.Configured() || strings.TrimSpace(keyword) == "" {
		return result
	}

	url := BuildGlobalSearchQuery(keyword, projectKey, c.cfg.ProjectKey)
	var resp searchResponse
	if err := c.getJSON(ctx, url, searchTimeout, &resp); err != nil {
		slog.ErrorContext(ctx, "global keyword search failed",
			"error", err, "keyword", keyword, "project_key", projectKey)
		return result
	}

	result.TotalCount = resp.Total
	for _, raw := range resp.Issues {
		match := IssueMatch{
			Key:       raw.Key,
			Summary:   raw.Fields.Summary,
			IssueType: raw.Fields.IssueType.Name,
			Status:    raw.Fields.Status.Name,
		}
		if raw.Fields.Priority != nil {
			priority := raw.Fields.Priority.Name
			match.Priority = &priority
		}
		result.MatchingIssues = append(result.MatchingIssues, match)
	}

	slog.InfoContext(ctx, "global keyword search finished",
		"keyword", keyword, "total", result.TotalCount)
	return result
}

type commentsResponse struct {
	Comments []struct {
		Body json.RawMessage `json:"body"`
	} `json:"comments"`
}

// CountKeywordInComments counts case-insensitive keyword occurrences across
// an issue's comments. This backs a user-initiated action, so transient
// failures surface as errors.
func (c *Client) CountKeywordInComments(ctx context.Context, issueKey, keyword string) (int, error) {
	if !c.Configured() || issueKey == "" || keyword == "" {
		return 0, nil
	}

	url := fmt.Sprintf("/rest/api/2/issue/%s/comment", issueKey)
	var resp commentsResponse
	if err := c.getJSON(ctx, url, commentTimeout, &resp); err != nil {
		return 0, fmt.Errorf("fetching comments for %s: %w", issueKey, err)
	}

	count := 0
	lowerKeyword := strings.ToLower(keyword)
	for _, comment := range resp.Comments {
		body := strings.ToLower(FlattenDescription(comment.Body))
		count += strings.Count(body, lowerKeyword)
	}
	return count, nil
}

type permanentStatusError struct {
	status int
}

func (e *permanentStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// getJSON issues a GET with basic auth and bounded exponential-backoff
// retries. Only idempotent reads go through here.
func (c *Client) getJSON(ctx context.Context, path string, timeout time.Duration, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	operation := func() error {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.URL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.cfg.Username, c.cfg.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &permanentStatusError{status: resp.StatusCode}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&permanentStatusError{status: resp.StatusCode})
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, v); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), reqCtx)
	return backoff.Retry(operation, policy)
}
