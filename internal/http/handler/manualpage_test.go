package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"qacoverage.app/api-server/internal/http/handler"
	"qacoverage.app/api-server/internal/http/router"
	"qacoverage.app/api-server/internal/jira"
	"qacoverage.app/api-server/internal/model"
	"qacoverage.app/api-server/internal/qtest"
	"qacoverage.app/api-server/internal/service"
	"qacoverage.app/api-server/internal/store"
)

type mockManualPageService struct {
	testConnectionFn        func(ctx context.Context) bool
	availableSprintsFn      func(ctx context.Context, projectKey, boardID string) []jira.Sprint
	syncSprintIssuesFn      func(ctx context.Context, sprintID, projectKey string) ([]model.Issue, error)
	sprintIssuesFn          func(ctx context.Context, sprintID string) ([]model.Issue, error)
	sprintStatisticsFn      func(ctx context.Context, sprintID string) (*service.SprintStatistics, error)
	updateAutomationFlagsFn func(ctx context.Context, linkID int64, can, cannot bool) (*model.TestCaseLink, error)
	mapTestCaseFn           func(ctx context.Context, linkID int64, projectID, testerID *int64) (*model.TestCaseLink, error)
	searchKeywordInIssueFn  func(ctx context.Context, jiraKey, keyword string) (*model.Issue, error)
	searchExternalFn        func(ctx context.Context, title string) ([]qtest.TestCaseSummary, error)
}

func (m *mockManualPageService) TestConnection(ctx context.Context) bool {
	if m.testConnectionFn != nil {
		return m.testConnectionFn(ctx)
	}
	return true
}

func (m *mockManualPageService) AvailableSprints(ctx context.Context, projectKey, boardID string) []jira.Sprint {
	if m.availableSprintsFn != nil {
		return m.availableSprintsFn(ctx, projectKey, boardID)
	}
	return nil
}

func (m *mockManualPageService) SyncSprintIssues(ctx context.Context, sprintID, projectKey string) ([]model.Issue, error) {
	if m.syncSprintIssuesFn != nil {
		return m.syncSprintIssuesFn(ctx, sprintID, projectKey)
	}
	return nil, nil
}

func (m *mockManualPageService) SprintIssues(ctx context.Context, sprintID string) ([]model.Issue, error) {
	if m.sprintIssuesFn != nil {
		return m.sprintIssuesFn(ctx, sprintID)
	}
	return nil, nil
}

func (m *mockManualPageService) SprintStatistics(ctx context.Context, sprintID string) (*service.SprintStatistics, error) {
	if m.sprintStatisticsFn != nil {
		return m.sprintStatisticsFn(ctx, sprintID)
	}
	return &service.SprintStatistics{}, nil
}

func (m *mockManualPageService) UpdateAutomationFlags(ctx context.Context, linkID int64, can, cannot bool) (*model.TestCaseLink, error) {
	if m.updateAutomationFlagsFn != nil {
		return m.updateAutomationFlagsFn(ctx, linkID, can, cannot)
	}
	return &model.TestCaseLink{ID: linkID}, nil
}

func (m *mockManualPageService) MapTestCase(ctx context.Context, linkID int64, projectID, testerID *int64) (*model.TestCaseLink, error) {
	if m.mapTestCaseFn != nil {
		return m.mapTestCaseFn(ctx, linkID, projectID, testerID)
	}
	return &model.TestCaseLink{ID: linkID}, nil
}

func (m *mockManualPageService) SearchKeywordInIssue(ctx context.Context, jiraKey, keyword string) (*model.Issue, error) {
	if m.searchKeywordInIssueFn != nil {
		return m.searchKeywordInIssueFn(ctx, jiraKey, keyword)
	}
	return &model.Issue{JiraKey: jiraKey}, nil
}

func (m *mockManualPageService) SearchKeywordGlobally(_ context.Context, keyword, _ string) *jira.GlobalSearchResult {
	return &jira.GlobalSearchResult{Keyword: keyword, MatchingIssues: []jira.IssueMatch{}}
}

func (m *mockManualPageService) Projects(context.Context) ([]model.Project, error) {
	return []model.Project{{ID: 1, Name: "Checkout"}}, nil
}

func (m *mockManualPageService) Testers(context.Context) ([]model.Tester, error) {
	return []model.Tester{{ID: 1, Name: "qa_1", Status: "ACTIVE"}}, nil
}

func (m *mockManualPageService) Domains(context.Context) ([]model.Domain, error) {
	return []model.Domain{{ID: 1, Name: "Billing"}}, nil
}

func (m *mockManualPageService) TestManagementConnection(context.Context) bool { return true }

func (m *mockManualPageService) FetchExternalTestCase(_ context.Context, testCaseID string) (*qtest.TestCase, error) {
	return &qtest.TestCase{ID: testCaseID, Name: "Verify checkout"}, nil
}

func (m *mockManualPageService) SearchExternalTestCases(ctx context.Context, title string) ([]qtest.TestCaseSummary, error) {
	if m.searchExternalFn != nil {
		return m.searchExternalFn(ctx, title)
	}
	return nil, nil
}

var _ = Describe("ManualPageHandler", func() {
	var (
		engine *gin.Engine
		svc    *mockManualPageService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		svc = &mockManualPageService{}
		router.ManualPageRouter(engine.Group("/api/manual-page"), handler.NewManualPageHandler(svc))
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	It("reports the tracker connection state", func() {
		svc.testConnectionFn = func(context.Context) bool { return false }

		rec := do(http.MethodGet, "/api/manual-page/test-connection", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["connected"]).To(BeFalse())
		Expect(resp["message"]).To(ContainSubstring("Failed"))
	})

	It("forwards sprint query parameters", func() {
		svc.availableSprintsFn = func(_ context.Context, projectKey, boardID string) []jira.Sprint {
			Expect(projectKey).To(Equal("QA"))
			Expect(boardID).To(Equal("7"))
			return []jira.Sprint{{ID: 42, Name: "Sprint 42", State: "active"}}
		}

		rec := do(http.MethodGet, "/api/manual-page/sprints?jiraProjectKey=QA&jiraBoardId=7", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var sprints []jira.Sprint
		Expect(json.Unmarshal(rec.Body.Bytes(), &sprints)).To(Succeed())
		Expect(sprints).To(HaveLen(1))
		Expect(sprints[0].Name).To(Equal("Sprint 42"))
	})

	It("syncs a sprint and renders the issues", func() {
		svc.syncSprintIssuesFn = func(_ context.Context, sprintID, _ string) ([]model.Issue, error) {
			Expect(sprintID).To(Equal("42"))
			return []model.Issue{{ID: 1, JiraKey: "QA-1", Summary: "Guest checkout broken"}}, nil
		}

		rec := do(http.MethodPost, "/api/manual-page/sprints/42/sync", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"jiraKey":"QA-1"`))
	})

	It("returns 500 when sync fails", func() {
		svc.syncSprintIssuesFn = func(context.Context, string, string) ([]model.Issue, error) {
			return nil, context.DeadlineExceeded
		}

		rec := do(http.MethodPost, "/api/manual-page/sprints/42/sync", nil)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})

	Describe("automation flags", func() {
		It("updates flags and renders the derived status", func() {
			svc.updateAutomationFlagsFn = func(_ context.Context, linkID int64, can, cannot bool) (*model.TestCaseLink, error) {
				Expect(linkID).To(Equal(int64(200)))
				return &model.TestCaseLink{ID: linkID, Title: "t", CanBeAutomated: can, CannotBeAutomated: cannot}, nil
			}

			rec := do(http.MethodPut, "/api/manual-page/test-cases/200/automation-flags",
				map[string]bool{"canBeAutomated": true, "cannotBeAutomated": true})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"automationStatus":"CANNOT_AUTOMATE"`))
		})

		It("rejects a non-numeric id", func() {
			rec := do(http.MethodPut, "/api/manual-page/test-cases/abc/automation-flags",
				map[string]bool{"canBeAutomated": true})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps unknown links to 404", func() {
			svc.updateAutomationFlagsFn = func(context.Context, int64, bool, bool) (*model.TestCaseLink, error) {
				return nil, store.ErrNotFound
			}

			rec := do(http.MethodPut, "/api/manual-page/test-cases/999/automation-flags",
				map[string]bool{"canBeAutomated": true})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("mapping", func() {
		It("requires at least one of projectId and testerId", func() {
			rec := do(http.MethodPut, "/api/manual-page/test-cases/200/mapping", map[string]any{})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a project onto the link", func() {
			svc.mapTestCaseFn = func(_ context.Context, linkID int64, projectID, testerID *int64) (*model.TestCaseLink, error) {
				Expect(*projectID).To(Equal(int64(300)))
				Expect(testerID).To(BeNil())
				return &model.TestCaseLink{ID: linkID, ProjectID: projectID}, nil
			}

			rec := do(http.MethodPut, "/api/manual-page/test-cases/200/mapping",
				map[string]any{"projectId": 300})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("keyword search", func() {
		It("rejects a missing keyword", func() {
			rec := do(http.MethodPost, "/api/manual-page/issues/QA-1/keyword-search", map[string]string{})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("renders the refreshed issue", func() {
			svc.searchKeywordInIssueFn = func(_ context.Context, jiraKey, keyword string) (*model.Issue, error) {
				Expect(jiraKey).To(Equal("QA-1"))
				Expect(keyword).To(Equal("refund"))
				return &model.Issue{ID: 1, JiraKey: jiraKey, SearchKeyword: &keyword, KeywordCount: 3}, nil
			}

			rec := do(http.MethodPost, "/api/manual-page/issues/QA-1/keyword-search",
				map[string]string{"keyword": "refund"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"keywordCount":3`))
		})

		It("maps unknown issues to 404", func() {
			svc.searchKeywordInIssueFn = func(context.Context, string, string) (*model.Issue, error) {
				return nil, store.ErrNotFound
			}

			rec := do(http.MethodPost, "/api/manual-page/issues/QA-9/keyword-search",
				map[string]string{"keyword": "refund"})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	It("lists reference data", func() {
		rec := do(http.MethodGet, "/api/manual-page/projects", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Checkout"))

		rec = do(http.MethodGet, "/api/manual-page/testers", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("qa_1"))

		rec = do(http.MethodGet, "/api/manual-page/domains", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Billing"))
	})

	Describe("qtest passthrough", func() {
		It("requires a title for searches", func() {
			rec := do(http.MethodGet, "/api/manual-page/qtest/test-cases", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("searches by title", func() {
			svc.searchExternalFn = func(_ context.Context, title string) ([]qtest.TestCaseSummary, error) {
				Expect(title).To(Equal("checkout"))
				return []qtest.TestCaseSummary{{ID: "TC-9", Name: "Verify checkout"}}, nil
			}

			rec := do(http.MethodGet, "/api/manual-page/qtest/test-cases?title=checkout", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("TC-9"))
		})

		It("fetches a single test case", func() {
			rec := do(http.MethodGet, "/api/manual-page/qtest/test-cases/TC-9", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Verify checkout"))
		})
	})
})
