package model

import "time"

// Issue is a tracked work item synced from Jira. Sync-owned fields (summary,
// description, sprint, type, status, priority, assignee) are overwritten on
// every re-sync; keyword-search state is written only by explicit searches.
type Issue struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	JiraKey             string
	Summary             string
	Description         string
	SprintID            string
	SprintName          string
	IssueType           string
	Status              string
	Priority            *string
	Assignee            *string
	AssigneeDisplayName *string
	SearchKeyword       *string
	LinkedTestCases     []TestCaseLink
	KeywordCount        int
	ID                  int64
}

type AutomationStatus string

const (
	AutomationPending        AutomationStatus = "PENDING"
	AutomationCanAutomate    AutomationStatus = "CAN_AUTOMATE"
	AutomationCannotAutomate AutomationStatus = "CANNOT_AUTOMATE"
)

// TestCaseLink is a manual test case inferred or declared to belong to an
// Issue. Flags, project mapping and tester assignment are user-owned and
// survive re-sync of the parent Issue.
type TestCaseLink struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Title             string
	Notes             string
	ExternalID        *string
	ProjectID         *int64
	TesterID          *int64
	DomainMapped      *string
	ID                int64
	IssueID           int64
	CanBeAutomated    bool
	CannotBeAutomated bool
}

// AutomationStatus derives the workflow state from the two flags. The
// cannot-flag always wins.
func (t *TestCaseLink) AutomationStatus() AutomationStatus {
	if t.CannotBeAutomated {
		return AutomationCannotAutomate
	}
	if t.CanBeAutomated {
		return AutomationCanAutomate
	}
	return AutomationPending
}

type CandidateStatus string

const CandidateReadyToAutomate CandidateStatus = "READY_TO_AUTOMATE"

// AutomationCandidate is created when a TestCaseLink becomes automatable and
// has both a project and a tester. Matched by title on repeat transitions.
type AutomationCandidate struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Title          string
	Description    string
	TestSteps      string
	ExpectedResult string
	Priority       string
	Status         CandidateStatus
	ProjectID      *int64
	TesterID       *int64
	ID             int64
}
