package jira_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"qacoverage.app/api-server/core/config"
	"qacoverage.app/api-server/internal/jira"
)

func newTestClient(serverURL string) *jira.Client {
	return jira.NewClient(config.JiraConfig{
		URL:        serverURL,
		Username:   "bot",
		Token:      "token",
		ProjectKey: "QA",
		BoardID:    "7",
	})
}

var _ = Describe("Client", func() {
	Describe("FetchSprints", func() {
		It("walks pages by accumulated total when isLast is absent", func() {
			var requestedStartAts []int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
				requestedStartAts = append(requestedStartAts, startAt)

				pageSize := 50
				remaining := 125 - startAt
				if remaining < pageSize {
					pageSize = remaining
				}
				values := make([]map[string]any, pageSize)
				for i := range values {
					values[i] = map[string]any{"id": startAt + i, "name": fmt.Sprintf("Sprint %d", startAt+i)}
				}
				json.NewEncoder(w).Encode(map[string]any{
					"values":     values,
					"total":      125,
					"maxResults": 50,
					"startAt":    startAt,
				})
			}))
			defer server.Close()

			sprints := newTestClient(server.URL).FetchSprints(context.Background(), "QA", "7")

			Expect(sprints).To(HaveLen(125))
			Expect(requestedStartAts).To(Equal([]int{0, 50, 100}))
		})

		It("stops as soon as isLast is true, regardless of total", func() {
			pages := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				pages++
				json.NewEncoder(w).Encode(map[string]any{
					"values":     []map[string]any{{"id": pages, "name": "s"}},
					"total":      1000,
					"maxResults": 50,
					"isLast":     pages == 2,
				})
			}))
			defer server.Close()

			sprints := newTestClient(server.URL).FetchSprints(context.Background(), "QA", "7")

			Expect(pages).To(Equal(2))
			Expect(sprints).To(HaveLen(2))
		})

		It("advances by the server's page size when it overrides the requested one", func() {
			var requestedStartAts []int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
				requestedStartAts = append(requestedStartAts, startAt)
				json.NewEncoder(w).Encode(map[string]any{
					"values":     []map[string]any{{"id": startAt, "name": "s"}, {"id": startAt + 1, "name": "s"}},
					"total":      4,
					"maxResults": 2,
				})
			}))
			defer server.Close()

			sprints := newTestClient(server.URL).FetchSprints(context.Background(), "QA", "7")

			Expect(sprints).To(HaveLen(4))
			Expect(requestedStartAts).To(Equal([]int{0, 2}))
		})

		It("halts after a single page when the envelope reports neither isLast nor total", func() {
			pages := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				pages++
				json.NewEncoder(w).Encode(map[string]any{
					"values": []map[string]any{{"id": 1, "name": "s"}},
				})
			}))
			defer server.Close()

			sprints := newTestClient(server.URL).FetchSprints(context.Background(), "QA", "7")

			Expect(pages).To(Equal(1))
			Expect(sprints).To(HaveLen(1))
		})

		It("returns nothing when unconfigured", func() {
			client := jira.NewClient(config.JiraConfig{})
			Expect(client.FetchSprints(context.Background(), "QA", "7")).To(BeEmpty())
		})
	})

	Describe("FetchSprintIssues", func() {
		It("normalizes issues including sprint name and linked titles", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Query().Get("jql")).To(ContainSubstring("sprint = 42"))
				json.NewEncoder(w).Encode(map[string]any{
					"total": 1,
					"issues": []map[string]any{{
						"key": "QA-1",
						"fields": map[string]any{
							"summary":     "Checkout fails for guests",
							"description": "qtest: Verify guest checkout succeeds",
							"issuetype":   map[string]any{"name": "Bug"},
							"status":      map[string]any{"name": "In Progress"},
							"priority":    map[string]any{"name": "High"},
							"assignee": map[string]any{
								"name":        "jdoe",
								"displayName": "J. Doe",
							},
							"customfield_10020": []string{
								"com.atlassian.greenhopper.service.sprint.Sprint@[id=42,name=Sprint 42 - Checkout,state=ACTIVE]",
							},
						},
					}},
				})
			}))
			defer server.Close()

			issues := newTestClient(server.URL).FetchSprintIssues(context.Background(), "42", "QA")

			Expect(issues).To(HaveLen(1))
			issue := issues[0]
			Expect(issue.JiraKey).To(Equal("QA-1"))
			Expect(issue.SprintID).To(Equal("42"))
			Expect(issue.SprintName).To(Equal("Sprint 42 - Checkout"))
			Expect(issue.IssueType).To(Equal("Bug"))
			Expect(issue.Status).To(Equal("In Progress"))
			Expect(*issue.Priority).To(Equal("High"))
			Expect(*issue.Assignee).To(Equal("jdoe"))
			Expect(*issue.AssigneeDisplayName).To(Equal("J. Doe"))
			Expect(issue.LinkedTestCaseTitles).To(Equal([]string{"Verify guest checkout succeeds"}))
		})

		It("returns an empty slice on server failure", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			Expect(newTestClient(server.URL).FetchSprintIssues(context.Background(), "42", "QA")).To(BeEmpty())
		})
	})

	Describe("ExtractSprintName", func() {
		It("pulls the name out of the sprint descriptor", func() {
			descriptor := "Sprint@[id=9,rapidViewId=7,name=Payments Sprint 3,goal=ship]"
			Expect(jira.ExtractSprintName(descriptor, "7")).To(Equal("Payments Sprint 3"))
		})

		It("falls back to a board-derived name", func() {
			Expect(jira.ExtractSprintName("no name here", "7")).To(Equal("Sprint 7"))
		})
	})

	Describe("SearchKeywordGlobally", func() {
		It("returns a zero result for blank keywords without calling anything", func() {
			client := newTestClient("http://127.0.0.1:0")
			result := client.SearchKeywordGlobally(context.Background(), "   ", "QA")
			Expect(result.TotalCount).To(BeZero())
			Expect(result.MatchingIssues).To(BeEmpty())
		})

		It("flattens matches into key summaries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"total": 2,
					"issues": []map[string]any{
						{"key": "QA-1", "fields": map[string]any{
							"summary":   "one",
							"issuetype": map[string]any{"name": "Bug"},
							"status":    map[string]any{"name": "Open"},
						}},
						{"key": "QA-2", "fields": map[string]any{
							"summary":   "two",
							"issuetype": map[string]any{"name": "Story"},
							"status":    map[string]any{"name": "Done"},
							"priority":  map[string]any{"name": "Low"},
						}},
					},
				})
			}))
			defer server.Close()

			result := newTestClient(server.URL).SearchKeywordGlobally(context.Background(), "refund", "QA")

			Expect(result.TotalCount).To(Equal(2))
			Expect(result.MatchingIssues).To(HaveLen(2))
			Expect(result.MatchingIssues[0].Key).To(Equal("QA-1"))
			Expect(result.MatchingIssues[0].Priority).To(BeNil())
			Expect(*result.MatchingIssues[1].Priority).To(Equal("Low"))
		})
	})

	Describe("CountKeywordInComments", func() {
		It("counts case-insensitive occurrences across comment bodies", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/rest/api/2/issue/QA-1/comment"))
				json.NewEncoder(w).Encode(map[string]any{
					"comments": []map[string]any{
						{"body": "Refund worked. REFUND verified."},
						{"body": "No issues found"},
						{"body": "refund again"},
					},
				})
			}))
			defer server.Close()

			count, err := newTestClient(server.URL).CountKeywordInComments(context.Background(), "QA-1", "refund")

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})

		It("surfaces server failures to the caller", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).CountKeywordInComments(context.Background(), "QA-1", "refund")
			Expect(err).To(HaveOccurred())
		})
	})
})
