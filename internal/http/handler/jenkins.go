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

type JenkinsHandler struct {
	jenkins service.JenkinsService
}

func NewJenkinsHandler(jenkins service.JenkinsService) *JenkinsHandler {
	return &JenkinsHandler{jenkins: jenkins}
}

func (h *JenkinsHandler) TestConnection(c *gin.Context) {
	connected := h.jenkins.TestConnection(c.Request.Context())
	message := "Successfully connected to Jenkins"
	if !connected {
		message = "Failed to connect to Jenkins"
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected, "message": message})
}

func (h *JenkinsHandler) LatestResults(c *gin.Context) {
	ctx := c.Request.Context()

	results, err := h.jenkins.LatestResults(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list latest results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list latest results"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBuildResultResponses(results))
}

func (h *JenkinsHandler) LatestResultByJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobName := c.Param("id")

	result, err := h.jenkins.LatestResultByJob(ctx, jobName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no result for job"})
			return
		}
		slog.ErrorContext(ctx, "failed to load latest result", "error", err, "job_name", jobName)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest result"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBuildResultResponse(result))
}

func (h *JenkinsHandler) TestCasesByResult(c *gin.Context) {
	ctx := c.Request.Context()

	resultID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	records, err := h.jenkins.TestCasesByResult(ctx, resultID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list test cases", "error", err, "result_id", resultID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list test cases"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTestCaseRecordResponses(records))
}

func (h *JenkinsHandler) Statistics(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.jenkins.Statistics(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *JenkinsHandler) SyncAllJobs(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.jenkins.SyncAllJobs(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to sync jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Jenkins jobs synced successfully"})
}

func (h *JenkinsHandler) SyncJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobName := c.Param("jobName")

	if err := h.jenkins.SyncJob(ctx, jobName); err != nil {
		slog.ErrorContext(ctx, "failed to sync job", "error", err, "job_name", jobName)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync job " + jobName})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job " + jobName + " synced successfully"})
}

func (h *JenkinsHandler) Report(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := h.jenkins.GenerateReport(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *JenkinsHandler) SyncAndReport(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.jenkins.SyncAllJobs(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to sync jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync jobs"})
		return
	}

	report, err := h.jenkins.GenerateReport(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sync completed and report generated successfully", "report": report})
}

func (h *JenkinsHandler) DetailedTestCases(c *gin.Context) {
	ctx := c.Request.Context()
	jobName := c.Param("jobName")
	buildNumber := c.Param("buildNumber")

	result, err := h.jenkins.DetailedTestCases(ctx, jobName, buildNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "build result not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to resolve detailed test cases",
			"error", err, "job_name", jobName, "build_number", buildNumber)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve detailed test cases"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBuildResultResponse(result))
}

func (h *JenkinsHandler) UpdateNotes(c *gin.Context) {
	ctx := c.Request.Context()

	resultID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	var req dto.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.jenkins.UpdateNotes(ctx, resultID, req.Notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "build result not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update notes", "error", err, "result_id", resultID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": strconv.FormatInt(resultID, 10), "notes": req.Notes})
}

func (h *JenkinsHandler) Notes(c *gin.Context) {
	ctx := c.Request.Context()

	resultID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	result, err := h.jenkins.Result(ctx, resultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "build result not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load build result", "error", err, "result_id", resultID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load build result"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          strconv.FormatInt(result.ID, 10),
		"notes":       result.Notes,
		"jobName":     result.JobName,
		"buildNumber": result.BuildNumber,
	})
}
