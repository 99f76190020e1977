package router

import (
	"github.com/gin-gonic/gin"
	"qacoverage.app/api-server/internal/http/handler"
)

func ManualPageRouter(rg *gin.RouterGroup, h *handler.ManualPageHandler) {
	rg.GET("/test-connection", h.TestConnection)
	rg.GET("/sprints", h.AvailableSprints)
	rg.POST("/sprints/:sprintId/sync", h.SyncSprintIssues)
	rg.GET("/sprints/:sprintId/issues", h.SprintIssues)
	rg.GET("/sprints/:sprintId/statistics", h.SprintStatistics)
	rg.PUT("/test-cases/:id/automation-flags", h.UpdateAutomationFlags)
	rg.PUT("/test-cases/:id/mapping", h.MapTestCase)
	rg.POST("/issues/:jiraKey/keyword-search", h.KeywordSearch)
	rg.POST("/global-keyword-search", h.GlobalKeywordSearch)
	rg.GET("/projects", h.Projects)
	rg.GET("/testers", h.Testers)
	rg.GET("/domains", h.Domains)
	rg.GET("/qtest/test-connection", h.QTestConnection)
	rg.GET("/qtest/test-cases", h.QTestSearch)
	rg.GET("/qtest/test-cases/:id", h.QTestTestCase)
}
