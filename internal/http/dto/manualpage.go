package dto

import (
	"time"

	"qacoverage.app/api-server/internal/model"
)

type UpdateAutomationFlagsRequest struct {
	CanBeAutomated    bool `json:"canBeAutomated"`
	CannotBeAutomated bool `json:"cannotBeAutomated"`
}

type MapTestCaseRequest struct {
	ProjectID *int64 `json:"projectId"`
	TesterID  *int64 `json:"testerId"`
}

type KeywordSearchRequest struct {
	Keyword string `json:"keyword" binding:"required,min=1"`
}

type GlobalSearchRequest struct {
	Keyword        string `json:"keyword"`
	JiraProjectKey string `json:"jiraProjectKey"`
}

type TestCaseLinkResponse struct {
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Title             string                 `json:"title"`
	Notes             string                 `json:"notes"`
	AutomationStatus  model.AutomationStatus `json:"automationStatus"`
	ExternalID        *string                `json:"externalId,omitempty"`
	ProjectID         *int64                 `json:"projectId,omitempty"`
	TesterID          *int64                 `json:"testerId,omitempty"`
	DomainMapped      *string                `json:"domainMapped,omitempty"`
	ID                int64                  `json:"id,string"`
	IssueID           int64                  `json:"issue_id,string"`
	CanBeAutomated    bool                   `json:"canBeAutomated"`
	CannotBeAutomated bool                   `json:"cannotBeAutomated"`
}

type IssueResponse struct {
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
	JiraKey             string                 `json:"jiraKey"`
	Summary             string                 `json:"summary"`
	Description         string                 `json:"description"`
	SprintID            string                 `json:"sprintId"`
	SprintName          string                 `json:"sprintName"`
	IssueType           string                 `json:"issueType"`
	Status              string                 `json:"status"`
	Priority            *string                `json:"priority,omitempty"`
	Assignee            *string                `json:"assignee,omitempty"`
	AssigneeDisplayName *string                `json:"assigneeDisplayName,omitempty"`
	SearchKeyword       *string                `json:"searchKeyword,omitempty"`
	LinkedTestCases     []TestCaseLinkResponse `json:"linkedTestCases"`
	KeywordCount        int                    `json:"keywordCount"`
	ID                  int64                  `json:"id,string"`
}

type ProjectResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DomainID    *int64 `json:"domainId,omitempty"`
	ID          int64  `json:"id,string"`
}

type TesterResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	ID     int64  `json:"id,string"`
}

type DomainResponse struct {
	Name string `json:"name"`
	ID   int64  `json:"id,string"`
}

func ToTestCaseLinkResponse(link *model.TestCaseLink) *TestCaseLinkResponse {
	return &TestCaseLinkResponse{
		ID:                link.ID,
		IssueID:           link.IssueID,
		Title:             link.Title,
		Notes:             link.Notes,
		AutomationStatus:  link.AutomationStatus(),
		ExternalID:        link.ExternalID,
		ProjectID:         link.ProjectID,
		TesterID:          link.TesterID,
		DomainMapped:      link.DomainMapped,
		CanBeAutomated:    link.CanBeAutomated,
		CannotBeAutomated: link.CannotBeAutomated,
		CreatedAt:         link.CreatedAt,
		UpdatedAt:         link.UpdatedAt,
	}
}

func ToIssueResponse(issue *model.Issue) *IssueResponse {
	links := make([]TestCaseLinkResponse, 0, len(issue.LinkedTestCases))
	for i := range issue.LinkedTestCases {
		links = append(links, *ToTestCaseLinkResponse(&issue.LinkedTestCases[i]))
	}
	return &IssueResponse{
		ID:                  issue.ID,
		JiraKey:             issue.JiraKey,
		Summary:             issue.Summary,
		Description:         issue.Description,
		SprintID:            issue.SprintID,
		SprintName:          issue.SprintName,
		IssueType:           issue.IssueType,
		Status:              issue.Status,
		Priority:            issue.Priority,
		Assignee:            issue.Assignee,
		AssigneeDisplayName: issue.AssigneeDisplayName,
		SearchKeyword:       issue.SearchKeyword,
		KeywordCount:        issue.KeywordCount,
		LinkedTestCases:     links,
		CreatedAt:           issue.CreatedAt,
		UpdatedAt:           issue.UpdatedAt,
	}
}

func ToIssueResponses(issues []model.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, *ToIssueResponse(&issues[i]))
	}
	return out
}

func ToProjectResponse(project *model.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		DomainID:    project.DomainID,
	}
}

func ToTesterResponse(tester *model.Tester) *TesterResponse {
	return &TesterResponse{
		ID:     tester.ID,
		Name:   tester.Name,
		Status: tester.Status,
	}
}

func ToDomainResponse(domain *model.Domain) *DomainResponse {
	return &DomainResponse{
		ID:   domain.ID,
		Name: domain.Name,
	}
}
