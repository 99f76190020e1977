package router

import (
	"github.com/gin-gonic/gin"
	"qacoverage.app/api-server/internal/http/handler"
)

func JenkinsRouter(rg *gin.RouterGroup, h *handler.JenkinsHandler) {
	rg.GET("/test-connection", h.TestConnection)
	rg.GET("/results", h.LatestResults)
	rg.GET("/results/:id", h.LatestResultByJob)
	rg.GET("/results/:id/testcases", h.TestCasesByResult)
	rg.GET("/statistics", h.Statistics)
	rg.POST("/sync", h.SyncAllJobs)
	rg.POST("/sync/:jobName", h.SyncJob)
	rg.GET("/testng/report", h.Report)
	rg.GET("/testng/:jobName/:buildNumber/testcases", h.DetailedTestCases)
	rg.POST("/testng/sync-and-report", h.SyncAndReport)
	rg.PUT("/results/:id/notes", h.UpdateNotes)
	rg.GET("/results/:id/notes", h.Notes)
}
