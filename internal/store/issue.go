package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qacoverage.app/api-server/internal/model"
)

const issueColumns = `id, jira_key, summary, description, sprint_id, sprint_name,
	issue_type, status, priority, assignee, assignee_display_name,
	search_keyword, keyword_count, created_at, updated_at`

type issueStore struct {
	pool *pgxpool.Pool
}

func newIssueStore(pool *pgxpool.Pool) IssueStore {
	return &issueStore{pool: pool}
}

func (s *issueStore) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id)
	return scanIssue(row)
}

func (s *issueStore) GetByJiraKey(ctx context.Context, jiraKey string) (*model.Issue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE jira_key = $1`, jiraKey)
	return scanIssue(row)
}

func (s *issueStore) ListBySprint(ctx context.Context, sprintID string) ([]model.Issue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE sprint_id = $1 ORDER BY jira_key`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (s *issueStore) ListBySprintWithLinks(ctx context.Context, sprintID string) ([]model.Issue, error) {
	issues, err := s.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return issues, nil
	}

	ids := make([]int64, len(issues))
	byID := make(map[int64]*model.Issue, len(issues))
	for i := range issues {
		ids[i] = issues[i].ID
		byID[issues[i].ID] = &issues[i]
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+linkColumns+` FROM test_case_links WHERE issue_id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	links, err := scanLinks(rows)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		if issue, ok := byID[link.IssueID]; ok {
			issue.LinkedTestCases = append(issue.LinkedTestCases, link)
		}
	}
	return issues, nil
}

func (s *issueStore) Create(ctx context.Context, issue *model.Issue) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO issues (id, jira_key, summary, description, sprint_id, sprint_name,
			issue_type, status, priority, assignee, assignee_display_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+issueColumns,
		issue.ID, issue.JiraKey, issue.Summary, issue.Description, issue.SprintID,
		issue.SprintName, issue.IssueType, issue.Status, issue.Priority,
		issue.Assignee, issue.AssigneeDisplayName)
	created, err := scanIssue(row)
	if err != nil {
		return err
	}
	*issue = *created
	return nil
}

func (s *issueStore) Update(ctx context.Context, issue *model.Issue) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE issues SET summary = $2, description = $3, sprint_id = $4,
			sprint_name = $5, issue_type = $6, status = $7, priority = $8,
			assignee = $9, assignee_display_name = $10, search_keyword = $11,
			keyword_count = $12, updated_at = now()
		WHERE id = $1
		RETURNING `+issueColumns,
		issue.ID, issue.Summary, issue.Description, issue.SprintID, issue.SprintName,
		issue.IssueType, issue.Status, issue.Priority, issue.Assignee,
		issue.AssigneeDisplayName, issue.SearchKeyword, issue.KeywordCount)
	updated, err := scanIssue(row)
	if err != nil {
		return err
	}
	links := issue.LinkedTestCases
	*issue = *updated
	issue.LinkedTestCases = links
	return nil
}

func (s *issueStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	return err
}

func scanIssue(row pgx.Row) (*model.Issue, error) {
	var issue model.Issue
	err := row.Scan(&issue.ID, &issue.JiraKey, &issue.Summary, &issue.Description,
		&issue.SprintID, &issue.SprintName, &issue.IssueType, &issue.Status,
		&issue.Priority, &issue.Assignee, &issue.AssigneeDisplayName,
		&issue.SearchKeyword, &issue.KeywordCount, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]model.Issue, error) {
	var issues []model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}
