package qtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qacoverage.app/api-server/core/config"
)

const requestTimeout = 30 * time.Second

// TestCase is a test-management record resolved by id.
type TestCase struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Assignee            *string `json:"assignee,omitempty"`
	AssigneeDisplayName *string `json:"assigneeDisplayName,omitempty"`
	Priority            *string `json:"priority,omitempty"`
	AutomationStatus    *string `json:"automationStatus,omitempty"`
}

// TestCaseSummary is a search hit from a title lookup.
type TestCaseSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Assignee *string `json:"assignee,omitempty"`
}

type Client struct {
	cfg     config.QTestConfig
	session *SessionManager
	http    *http.Client
}

func NewClient(cfg config.QTestConfig, session *SessionManager) *Client {
	return &Client{
		cfg:     cfg,
		session: session,
		http:    &http.Client{},
	}
}

func (c *Client) Configured() bool {
	return c.cfg.IsConfigured()
}

// TestConnection attempts a fresh login.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	if err := c.session.login(ctx); err != nil {
		slog.ErrorContext(ctx, "qtest connection test failed", "error", err)
		return false
	}
	return true
}

type rawTestCase struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Assignee    *struct {
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	Priority *struct {
		Name string `json:"name"`
	} `json:"priority"`
	Properties []struct {
		Field struct {
			Label string `json:"label"`
		} `json:"field"`
		FieldValue string `json:"field_value"`
	} `json:"properties"`
}

// FetchTestCase resolves a single test case by id. User-initiated, so
// failures surface as errors.
func (c *Client) FetchTestCase(ctx context.Context, testCaseID string) (*TestCase, error) {
	path := fmt.Sprintf("/api/v3/projects/%s/test-cases/%s", c.cfg.ProjectID, testCaseID)

	var raw rawTestCase
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetching test case %s: %w", testCaseID, err)
	}

	testCase := &TestCase{
		ID:          raw.ID.String(),
		Name:        raw.Name,
		Description: raw.Description,
	}
	if raw.Assignee != nil {
		username := raw.Assignee.Username
		displayName := raw.Assignee.DisplayName
		testCase.Assignee = &username
		testCase.AssigneeDisplayName = &displayName
	}
	if raw.Priority != nil {
		priority := raw.Priority.Name
		testCase.Priority = &priority
	}
	for _, property := range raw.Properties {
		if strings.EqualFold(property.Field.Label, "Automation Status") {
			status := property.FieldValue
			testCase.AutomationStatus = &status
			break
		}
	}
	return testCase, nil
}

// SearchTestCasesByTitle lists the project's test cases and filters them by
// a case-insensitive substring match on the name.
func (c *Client) SearchTestCasesByTitle(ctx context.Context, title string) ([]TestCaseSummary, error) {
	path := fmt.Sprintf("/api/v3/projects/%s/test-cases?size=100", c.cfg.ProjectID)

	var page struct {
		Items []rawTestCase `json:"items"`
	}
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("searching test cases: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(title))
	matches := []TestCaseSummary{}
	for _, raw := range page.Items {
		if !strings.Contains(strings.ToLower(raw.Name), needle) {
			continue
		}
		summary := TestCaseSummary{ID: raw.ID.String(), Name: raw.Name}
		if raw.Assignee != nil {
			username := raw.Assignee.Username
			summary.Assignee = &username
		}
		matches = append(matches, summary)
	}

	slog.InfoContext(ctx, "qtest title search finished", "title", title, "matches", len(matches))
	return matches, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	if !c.Configured() {
		return fmt.Errorf("qtest is not configured")
	}

	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.URL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
