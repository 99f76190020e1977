package store

import (
	"context"
	"errors"

	"qacoverage.app/api-server/internal/model"
)

var ErrNotFound = errors.New("not found")

type IssueStore interface {
	GetByID(ctx context.Context, id int64) (*model.Issue, error)
	GetByJiraKey(ctx context.Context, jiraKey string) (*model.Issue, error)
	// ListBySprint returns issues without their links; callers choose
	// eagerness explicitly via ListBySprintWithLinks.
	ListBySprint(ctx context.Context, sprintID string) ([]model.Issue, error)
	ListBySprintWithLinks(ctx context.Context, sprintID string) ([]model.Issue, error)
	Create(ctx context.Context, issue *model.Issue) error
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id int64) error // cascades to links
}

type TestCaseLinkStore interface {
	GetByID(ctx context.Context, id int64) (*model.TestCaseLink, error)
	ListByIssue(ctx context.Context, issueID int64) ([]model.TestCaseLink, error)
	ListBySprint(ctx context.Context, sprintID string) ([]model.TestCaseLink, error)
	Create(ctx context.Context, link *model.TestCaseLink) error
	Update(ctx context.Context, link *model.TestCaseLink) error
}

type AutomationCandidateStore interface {
	GetByTitle(ctx context.Context, title string) (*model.AutomationCandidate, error)
	Create(ctx context.Context, candidate *model.AutomationCandidate) error
	Update(ctx context.Context, candidate *model.AutomationCandidate) error
	List(ctx context.Context) ([]model.AutomationCandidate, error)
}

type BuildResultStore interface {
	GetByID(ctx context.Context, id int64) (*model.BuildResult, error)
	GetByJobAndBuild(ctx context.Context, jobName, buildNumber string) (*model.BuildResult, error)
	GetLatestByJob(ctx context.Context, jobName string) (*model.BuildResult, error)
	ListLatestPerJob(ctx context.Context) ([]model.BuildResult, error)
	Create(ctx context.Context, result *model.BuildResult) error
	Update(ctx context.Context, result *model.BuildResult) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	// ReplaceTestCases swaps the detailed records for a build so repeat
	// detail resolution stays idempotent.
	ReplaceTestCases(ctx context.Context, buildResultID int64, records []model.TestCaseRecord) error
	ListTestCases(ctx context.Context, buildResultID int64) ([]model.TestCaseRecord, error)
}

type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Count(ctx context.Context) (int64, error)
}

type TesterStore interface {
	GetByID(ctx context.Context, id int64) (*model.Tester, error)
	List(ctx context.Context) ([]model.Tester, error)
	Create(ctx context.Context, tester *model.Tester) error
	Count(ctx context.Context) (int64, error)
}

type DomainStore interface {
	GetByID(ctx context.Context, id int64) (*model.Domain, error)
	GetByName(ctx context.Context, name string) (*model.Domain, error)
	List(ctx context.Context) ([]model.Domain, error)
	Create(ctx context.Context, domain *model.Domain) error
	Count(ctx context.Context) (int64, error)
}
