package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"qacoverage.app/api-server/common/id"
	"qacoverage.app/api-server/internal/jira"
	"qacoverage.app/api-server/internal/model"
	"qacoverage.app/api-server/internal/qtest"
	"qacoverage.app/api-server/internal/store"
)

// IssueTracker is the slice of the tracker client the manual page needs.
type IssueTracker interface {
	TestConnection(ctx context.Context) bool
	FetchSprints(ctx context.Context, projectKey, boardID string) []jira.Sprint
	FetchSprintIssues(ctx context.Context, sprintID, projectKey string) []jira.Issue
	SearchKeywordGlobally(ctx context.Context, keyword, projectKey string) *jira.GlobalSearchResult
	CountKeywordInComments(ctx context.Context, issueKey, keyword string) (int, error)
}

// TestManagement is the slice of the test-management client the manual page
// needs for external test-case lookups.
type TestManagement interface {
	TestConnection(ctx context.Context) bool
	FetchTestCase(ctx context.Context, testCaseID string) (*qtest.TestCase, error)
	SearchTestCasesByTitle(ctx context.Context, title string) ([]qtest.TestCaseSummary, error)
}

// SprintStatistics summarizes automation readiness across a sprint's links.
type SprintStatistics struct {
	ProjectBreakdown map[string]map[model.AutomationStatus]int `json:"projectBreakdown"`
	TotalTestCases   int                                       `json:"totalTestCases"`
	ReadyToAutomate  int                                       `json:"readyToAutomate"`
	NotAutomatable   int                                       `json:"notAutomatable"`
	Pending          int                                       `json:"pending"`
}

type ManualPageService interface {
	TestConnection(ctx context.Context) bool
	AvailableSprints(ctx context.Context, projectKey, boardID string) []jira.Sprint
	SyncSprintIssues(ctx context.Context, sprintID, projectKey string) ([]model.Issue, error)
	SprintIssues(ctx context.Context, sprintID string) ([]model.Issue, error)
	SprintStatistics(ctx context.Context, sprintID string) (*SprintStatistics, error)
	UpdateAutomationFlags(ctx context.Context, linkID int64, canBeAutomated, cannotBeAutomated bool) (*model.TestCaseLink, error)
	MapTestCase(ctx context.Context, linkID int64, projectID, testerID *int64) (*model.TestCaseLink, error)
	SearchKeywordInIssue(ctx context.Context, jiraKey, keyword string) (*model.Issue, error)
	SearchKeywordGlobally(ctx context.Context, keyword, projectKey string) *jira.GlobalSearchResult
	Projects(ctx context.Context) ([]model.Project, error)
	Testers(ctx context.Context) ([]model.Tester, error)
	Domains(ctx context.Context) ([]model.Domain, error)
	TestManagementConnection(ctx context.Context) bool
	FetchExternalTestCase(ctx context.Context, testCaseID string) (*qtest.TestCase, error)
	SearchExternalTestCases(ctx context.Context, title string) ([]qtest.TestCaseSummary, error)
}

type manualPageService struct {
	tracker  IssueTracker
	testMgmt TestManagement
	stores   *store.Stores
	syncLock *keyedMutex
}

func NewManualPageService(tracker IssueTracker, testMgmt TestManagement, stores *store.Stores) ManualPageService {
	return &manualPageService{
		tracker:  tracker,
		testMgmt: testMgmt,
		stores:   stores,
		syncLock: newKeyedMutex(),
	}
}

func (s *manualPageService) TestConnection(ctx context.Context) bool {
	return s.tracker.TestConnection(ctx)
}

func (s *manualPageService) AvailableSprints(ctx context.Context, projectKey, boardID string) []jira.Sprint {
	return s.tracker.FetchSprints(ctx, projectKey, boardID)
}

// SyncSprintIssues pulls the sprint from the tracker and reconciles it with
// the store. Same-sprint syncs serialize; a failure on one issue skips that
// issue and continues the batch.
func (s *manualPageService) SyncSprintIssues(ctx context.Context, sprintID, projectKey string) ([]model.Issue, error) {
	s.syncLock.Lock(sprintID)
	defer s.syncLock.Unlock(sprintID)

	fetched := s.tracker.FetchSprintIssues(ctx, sprintID, projectKey)

	synced := make([]model.Issue, 0, len(fetched))
	for _, remote := range fetched {
		issue, err := s.syncIssue(ctx, remote)
		if err != nil {
			slog.ErrorContext(ctx, "syncing issue failed", "error", err, "jira_key", remote.JiraKey)
			continue
		}
		synced = append(synced, *issue)
	}

	slog.InfoContext(ctx, "sprint sync finished",
		"sprint_id", sprintID, "fetched", len(fetched), "synced", len(synced))
	return synced, nil
}

// syncIssue upserts the issue by key, then reconciles its links. Sync owns
// the tracker-sourced fields only; keyword-search state and all link flags
// survive untouched.
func (s *manualPageService) syncIssue(ctx context.Context, remote jira.Issue) (*model.Issue, error) {
	issue, err := s.stores.Issues.GetByJiraKey(ctx, remote.JiraKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		issue = &model.Issue{ID: id.New(), JiraKey: remote.JiraKey}
		applyRemoteFields(issue, remote)
		if err := s.stores.Issues.Create(ctx, issue); err != nil {
			return nil, fmt.Errorf("creating issue: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("loading issue: %w", err)
	default:
		applyRemoteFields(issue, remote)
		if err := s.stores.Issues.Update(ctx, issue); err != nil {
			return nil, fmt.Errorf("updating issue: %w", err)
		}
	}

	if err := s.reconcileLinks(ctx, issue, remote.LinkedTestCaseTitles); err != nil {
		return nil, fmt.Errorf("reconciling links: %w", err)
	}

	links, err := s.stores.TestCaseLinks.ListByIssue(ctx, issue.ID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	issue.LinkedTestCases = links
	return issue, nil
}

func applyRemoteFields(issue *model.Issue, remote jira.Issue) {
	issue.Summary = remote.Summary
	issue.Description = remote.Description
	issue.SprintID = remote.SprintID
	issue.SprintName = remote.SprintName
	issue.IssueType = remote.IssueType
	issue.Status = remote.Status
	issue.Priority = remote.Priority
	issue.Assignee = remote.Assignee
	issue.AssigneeDisplayName = remote.AssigneeDisplayName
}

// reconcileLinks adds links for titles not yet present. Existing links are
// never modified or removed: their flags and mappings are user-owned.
func (s *manualPageService) reconcileLinks(ctx context.Context, issue *model.Issue, titles []string) error {
	existing, err := s.stores.TestCaseLinks.ListByIssue(ctx, issue.ID)
	if err != nil {
		return fmt.Errorf("listing existing links: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, link := range existing {
		seen[strings.TrimSpace(link.Title)] = true
	}

	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			continue
		}
		link := &model.TestCaseLink{
			ID:      id.New(),
			IssueID: issue.ID,
			Title:   title,
		}
		if err := s.stores.TestCaseLinks.Create(ctx, link); err != nil {
			return fmt.Errorf("creating link %q: %w", title, err)
		}
		seen[title] = true
	}
	return nil
}

func (s *manualPageService) SprintIssues(ctx context.Context, sprintID string) ([]model.Issue, error) {
	issues, err := s.stores.Issues.ListBySprintWithLinks(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("listing sprint issues: %w", err)
	}
	return issues, nil
}

func (s *manualPageService) SprintStatistics(ctx context.Context, sprintID string) (*SprintStatistics, error) {
	links, err := s.stores.TestCaseLinks.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("listing sprint links: %w", err)
	}

	projects, err := s.stores.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	projectNames := make(map[int64]string, len(projects))
	for _, project := range projects {
		projectNames[project.ID] = project.Name
	}

	stats := &SprintStatistics{
		TotalTestCases:   len(links),
		ProjectBreakdown: map[string]map[model.AutomationStatus]int{},
	}
	for i := range links {
		link := &links[i]
		switch link.AutomationStatus() {
		case model.AutomationCanAutomate:
			stats.ReadyToAutomate++
		case model.AutomationCannotAutomate:
			stats.NotAutomatable++
		default:
			stats.Pending++
		}

		if link.ProjectID == nil {
			continue
		}
		name, ok := projectNames[*link.ProjectID]
		if !ok {
			continue
		}
		if stats.ProjectBreakdown[name] == nil {
			stats.ProjectBreakdown[name] = map[model.AutomationStatus]int{}
		}
		stats.ProjectBreakdown[name][link.AutomationStatus()]++
	}
	return stats, nil
}

// UpdateAutomationFlags sets both flags and, when the result is automatable
// with a project and tester already mapped, promotes the link to an
// automation candidate. A missing mapping defers promotion without error.
func (s *manualPageService) UpdateAutomationFlags(ctx context.Context, linkID int64, canBeAutomated, cannotBeAutomated bool) (*model.TestCaseLink, error) {
	link, err := s.stores.TestCaseLinks.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("loading test case link: %w", err)
	}

	link.CanBeAutomated = canBeAutomated
	link.CannotBeAutomated = cannotBeAutomated

	if link.AutomationStatus() == model.AutomationCanAutomate {
		if err := s.promoteToCandidate(ctx, link); err != nil {
			slog.ErrorContext(ctx, "promoting link to automation candidate failed",
				"error", err, "link_id", linkID, "title", link.Title)
		}
	}

	if err := s.stores.TestCaseLinks.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("updating test case link: %w", err)
	}
	return link, nil
}

func (s *manualPageService) promoteToCandidate(ctx context.Context, link *model.TestCaseLink) error {
	if link.ProjectID == nil || link.TesterID == nil {
		slog.WarnContext(ctx, "link marked automatable without project or tester",
			"link_id", link.ID, "title", link.Title)
		return nil
	}

	issue, err := s.stores.Issues.GetByID(ctx, link.IssueID)
	if err != nil {
		return fmt.Errorf("loading parent issue: %w", err)
	}

	candidate, err := s.stores.Candidates.GetByTitle(ctx, link.Title)
	switch {
	case errors.Is(err, store.ErrNotFound):
		candidate = &model.AutomationCandidate{
			ID:             id.New(),
			Title:          link.Title,
			Description:    "Test case imported from issue: " + issue.JiraKey,
			TestSteps:      "To be defined during automation implementation",
			ExpectedResult: "To be defined during automation implementation",
			Priority:       "Medium",
			Status:         model.CandidateReadyToAutomate,
			ProjectID:      link.ProjectID,
			TesterID:       link.TesterID,
		}
		if err := s.stores.Candidates.Create(ctx, candidate); err != nil {
			return fmt.Errorf("creating candidate: %w", err)
		}
	case err != nil:
		return fmt.Errorf("loading candidate: %w", err)
	default:
		candidate.Status = model.CandidateReadyToAutomate
		candidate.ProjectID = link.ProjectID
		candidate.TesterID = link.TesterID
		if err := s.stores.Candidates.Update(ctx, candidate); err != nil {
			return fmt.Errorf("updating candidate: %w", err)
		}
	}
	return nil
}

// MapTestCase assigns a project and/or tester. Mapping a project also
// stamps the project's domain name onto the link.
func (s *manualPageService) MapTestCase(ctx context.Context, linkID int64, projectID, testerID *int64) (*model.TestCaseLink, error) {
	link, err := s.stores.TestCaseLinks.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("loading test case link: %w", err)
	}

	if projectID != nil {
		project, err := s.stores.Projects.GetByID(ctx, *projectID)
		if err != nil {
			return nil, fmt.Errorf("loading project: %w", err)
		}
		link.ProjectID = &project.ID
		if project.DomainID != nil {
			domain, err := s.stores.Domains.GetByID(ctx, *project.DomainID)
			if err == nil {
				link.DomainMapped = &domain.Name
			}
		}
	}

	if testerID != nil {
		tester, err := s.stores.Testers.GetByID(ctx, *testerID)
		if err != nil {
			return nil, fmt.Errorf("loading tester: %w", err)
		}
		link.TesterID = &tester.ID
	}

	if err := s.stores.TestCaseLinks.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("updating test case link: %w", err)
	}
	return link, nil
}

// SearchKeywordInIssue counts keyword hits in the issue's tracker comments
// and persists the keyword and count on the stored issue.
func (s *manualPageService) SearchKeywordInIssue(ctx context.Context, jiraKey, keyword string) (*model.Issue, error) {
	issue, err := s.stores.Issues.GetByJiraKey(ctx, jiraKey)
	if err != nil {
		return nil, fmt.Errorf("loading issue: %w", err)
	}

	count, err := s.tracker.CountKeywordInComments(ctx, jiraKey, keyword)
	if err != nil {
		return nil, fmt.Errorf("counting keyword in comments: %w", err)
	}

	issue.SearchKeyword = &keyword
	issue.KeywordCount = count
	if err := s.stores.Issues.Update(ctx, issue); err != nil {
		return nil, fmt.Errorf("updating issue: %w", err)
	}
	return issue, nil
}

func (s *manualPageService) SearchKeywordGlobally(ctx context.Context, keyword, projectKey string) *jira.GlobalSearchResult {
	return s.tracker.SearchKeywordGlobally(ctx, keyword, projectKey)
}

func (s *manualPageService) Projects(ctx context.Context) ([]model.Project, error) {
	return s.stores.Projects.List(ctx)
}

func (s *manualPageService) Testers(ctx context.Context) ([]model.Tester, error) {
	return s.stores.Testers.List(ctx)
}

func (s *manualPageService) Domains(ctx context.Context) ([]model.Domain, error) {
	return s.stores.Domains.List(ctx)
}

func (s *manualPageService) TestManagementConnection(ctx context.Context) bool {
	return s.testMgmt.TestConnection(ctx)
}

func (s *manualPageService) FetchExternalTestCase(ctx context.Context, testCaseID string) (*qtest.TestCase, error) {
	return s.testMgmt.FetchTestCase(ctx, testCaseID)
}

func (s *manualPageService) SearchExternalTestCases(ctx context.Context, title string) ([]qtest.TestCaseSummary, error) {
	return s.testMgmt.SearchTestCasesByTitle(ctx, title)
}
