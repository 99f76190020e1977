package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"qacoverage.app/api-server/internal/http/dto"
	"qacoverage.app/api-server/internal/service"
	"qacoverage.app/api-server/internal/store"
)

type ManualPageHandler struct {
	manualPage service.ManualPageService
}

func NewManualPageHandler(manualPage service.ManualPageService) *ManualPageHandler {
	return &ManualPageHandler{manualPage: manualPage}
}

func (h *ManualPageHandler) TestConnection(c *gin.Context) {
	connected := h.manualPage.TestConnection(c.Request.Context())
	message := "Successfully connected to Jira"
	if !connected {
		message = "Failed to connect to Jira"
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected, "message": message})
}

func (h *ManualPageHandler) AvailableSprints(c *gin.Context) {
	sprints := h.manualPage.AvailableSprints(c.Request.Context(),
		c.Query("jiraProjectKey"), c.Query("jiraBoardId"))
	c.JSON(http.StatusOK, sprints)
}

func (h *ManualPageHandler) SyncSprintIssues(c *gin.Context) {
	ctx := c.Request.Context()
	sprintID := c.Param("sprintId")

	issues, err := h.manualPage.SyncSprintIssues(ctx, sprintID, c.Query("jiraProjectKey"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to sync sprint issues", "error", err, "sprint_id", sprintID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync sprint issues"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueResponses(issues))
}

func (h *ManualPageHandler) SprintIssues(c *gin.Context) {
	ctx := c.Request.Context()
	sprintID := c.Param("sprintId")

	issues, err := h.manualPage.SprintIssues(ctx, sprintID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list sprint issues", "error", err, "sprint_id", sprintID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sprint issues"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueResponses(issues))
}

func (h *ManualPageHandler) SprintStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	sprintID := c.Param("sprintId")

	stats, err := h.manualPage.SprintStatistics(ctx, sprintID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute sprint statistics", "error", err, "sprint_id", sprintID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute sprint statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ManualPageHandler) UpdateAutomationFlags(c *gin.Context) {
	ctx := c.Request.Context()

	linkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test case id"})
		return
	}

	var req dto.UpdateAutomationFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.manualPage.UpdateAutomationFlags(ctx, linkID, req.CanBeAutomated, req.CannotBeAutomated)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "test case not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update automation flags", "error", err, "link_id", linkID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update automation flags"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTestCaseLinkResponse(link))
}

func (h *ManualPageHandler) MapTestCase(c *gin.Context) {
	ctx := c.Request.Context()

	linkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test case id"})
		return
	}

	var req dto.MapTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ProjectID == nil && req.TesterID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId or testerId is required"})
		return
	}

	link, err := h.manualPage.MapTestCase(ctx, linkID, req.ProjectID, req.TesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "test case, project or tester not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to map test case", "error", err, "link_id", linkID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to map test case"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTestCaseLinkResponse(link))
}

func (h *ManualPageHandler) KeywordSearch(c *gin.Context) {
	ctx := c.Request.Context()
	jiraKey := c.Param("jiraKey")

	var req dto.KeywordSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := h.manualPage.SearchKeywordInIssue(ctx, jiraKey, req.Keyword)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to search keyword in issue", "error", err, "jira_key", jiraKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search keyword in issue"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueResponse(issue))
}

func (h *ManualPageHandler) GlobalKeywordSearch(c *gin.Context) {
	var req dto.GlobalSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.manualPage.SearchKeywordGlobally(c.Request.Context(), req.Keyword, req.JiraProjectKey)
	c.JSON(http.StatusOK, result)
}

func (h *ManualPageHandler) Projects(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := h.manualPage.Projects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list projects", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	out := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, *dto.ToProjectResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManualPageHandler) Testers(c *gin.Context) {
	ctx := c.Request.Context()

	testers, err := h.manualPage.Testers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list testers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list testers"})
		return
	}

	out := make([]dto.TesterResponse, 0, len(testers))
	for i := range testers {
		out = append(out, *dto.ToTesterResponse(&testers[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManualPageHandler) Domains(c *gin.Context) {
	ctx := c.Request.Context()

	domains, err := h.manualPage.Domains(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list domains", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list domains"})
		return
	}

	out := make([]dto.DomainResponse, 0, len(domains))
	for i := range domains {
		out = append(out, *dto.ToDomainResponse(&domains[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManualPageHandler) QTestConnection(c *gin.Context) {
	connected := h.manualPage.TestManagementConnection(c.Request.Context())
	message := "Successfully connected to qTest"
	if !connected {
		message = "Failed to connect to qTest"
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected, "message": message})
}

func (h *ManualPageHandler) QTestTestCase(c *gin.Context) {
	ctx := c.Request.Context()
	testCaseID := c.Param("id")

	testCase, err := h.manualPage.FetchExternalTestCase(ctx, testCaseID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch qtest test case", "error", err, "test_case_id", testCaseID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch test case"})
		return
	}

	c.JSON(http.StatusOK, testCase)
}

func (h *ManualPageHandler) QTestSearch(c *gin.Context) {
	ctx := c.Request.Context()

	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	matches, err := h.manualPage.SearchExternalTestCases(ctx, title)
	if err != nil {
		slog.ErrorContext(ctx, "failed to search qtest test cases", "error", err, "title", title)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search test cases"})
		return
	}

	c.JSON(http.StatusOK, matches)
}
