package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"qacoverage.app/api-server/core/config"
)

const (
	shortTimeout    = 10 * time.Second
	artifactTimeout = 30 * time.Second

	maxRetries = 2
)

// Build is the summary header of a CI build as reported by the server's
// build API, before it is mapped onto a stored result.
type Build struct {
	Number     int    `json:"number"`
	Result     string `json:"result"`
	URL        string `json:"url"`
	Timestamp  int64  `json:"timestamp"`
	TotalCount int    `json:"-"`
	FailCount  int    `json:"-"`
	SkipCount  int    `json:"-"`
}

type buildEnvelope struct {
	Number    int    `json:"number"`
	Result    string `json:"result"`
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
	Actions   []struct {
		TotalCount *int `json:"totalCount"`
		FailCount  *int `json:"failCount"`
		SkipCount  *int `json:"skipCount"`
	} `json:"actions"`
	Artifacts []struct {
		FileName     string `json:"fileName"`
		RelativePath string `json:"relativePath"`
	} `json:"artifacts"`
}

type Client struct {
	cfg  config.JenkinsConfig
	http *http.Client
}

func NewClient(cfg config.JenkinsConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

func (c *Client) Configured() bool {
	return c.cfg.IsConfigured()
}

// JobNames returns the configured set of watched CI jobs.
func (c *Client) JobNames() []string {
	return c.cfg.JobNames
}

func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	var root map[string]any
	if err := c.getJSON(ctx, "/api/json", shortTimeout, &root); err != nil {
		slog.ErrorContext(ctx, "jenkins connection test failed", "error", err)
		return false
	}
	return true
}

// FetchLastBuild reads the most recent build header for a job. The test
// action counts are folded into the returned summary when the server
// reports them.
func (c *Client) FetchLastBuild(ctx context.Context, jobName string) (*Build, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("jenkins is not configured")
	}

	var envelope buildEnvelope
	path := fmt.Sprintf("/job/%s/lastBuild/api/json", jobName)
	if err := c.getJSON(ctx, path, shortTimeout, &envelope); err != nil {
		return nil, fmt.Errorf("fetching last build for %s: %w", jobName, err)
	}

	build := &Build{
		Number:    envelope.Number,
		Result:    envelope.Result,
		URL:       envelope.URL,
		Timestamp: envelope.Timestamp,
	}
	for _, action := range envelope.Actions {
		if action.TotalCount == nil {
			continue
		}
		build.TotalCount = *action.TotalCount
		if action.FailCount != nil {
			build.FailCount = *action.FailCount
		}
		if action.SkipCount != nil {
			build.SkipCount = *action.SkipCount
		}
		break
	}
	return build, nil
}

// FetchTestNGArtifacts downloads every testng-results.xml artifact attached
// to a build. Parallel executions publish one document each; callers get all
// of them, in listing order. A build with no matching artifacts is not an
// error, it returns an empty slice.
func (c *Client) FetchTestNGArtifacts(ctx context.Context, jobName, buildNumber string) ([][]byte, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("jenkins is not configured")
	}

	var envelope buildEnvelope
	path := fmt.Sprintf("/job/%s/%s/api/json", jobName, buildNumber)
	if err := c.getJSON(ctx, path, shortTimeout, &envelope); err != nil {
		return nil, fmt.Errorf("fetching build %s #%s: %w", jobName, buildNumber, err)
	}

	var docs [][]byte
	for _, artifact := range envelope.Artifacts {
		if !strings.EqualFold(artifact.FileName, "testng-results.xml") {
			continue
		}
		artifactPath := fmt.Sprintf("/job/%s/%s/artifact/%s", jobName, buildNumber, artifact.RelativePath)
		doc, err := c.getRaw(ctx, artifactPath, artifactTimeout)
		if err != nil {
			// One unreachable artifact must not sink the rest.
			slog.ErrorContext(ctx, "downloading testng artifact failed",
				"error", err, "job_name", jobName, "build_number", buildNumber, "path", artifact.RelativePath)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, timeout time.Duration, v any) error {
	body, err := c.getRaw(ctx, path, timeout)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.URL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.cfg.Username != "" {
			req.SetBasicAuth(c.cfg.Username, c.cfg.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), reqCtx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
