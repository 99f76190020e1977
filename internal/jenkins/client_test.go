package jenkins_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"qacoverage.app/api-server/core/config"
	"qacoverage.app/api-server/internal/jenkins"
)

var _ = Describe("Client", func() {
	Describe("FetchLastBuild", func() {
		It("reads the build header and folds in test action counts", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/job/nightly-regression/lastBuild/api/json"))
				json.NewEncoder(w).Encode(map[string]any{
					"number":    118,
					"result":    "UNSTABLE",
					"url":       "https://ci/job/nightly-regression/118/",
					"timestamp": 1724800000000,
					"actions": []map[string]any{
						{"_class": "hudson.model.CauseAction"},
						{"totalCount": 240, "failCount": 4, "skipCount": 6},
					},
				})
			}))
			defer server.Close()

			client := jenkins.NewClient(config.JenkinsConfig{URL: server.URL})
			build, err := client.FetchLastBuild(context.Background(), "nightly-regression")

			Expect(err).NotTo(HaveOccurred())
			Expect(build.Number).To(Equal(118))
			Expect(build.Result).To(Equal("UNSTABLE"))
			Expect(build.TotalCount).To(Equal(240))
			Expect(build.FailCount).To(Equal(4))
			Expect(build.SkipCount).To(Equal(6))
		})

		It("fails for unconfigured clients", func() {
			client := jenkins.NewClient(config.JenkinsConfig{})
			_, err := client.FetchLastBuild(context.Background(), "job")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("FetchTestNGArtifacts", func() {
		It("downloads every testng-results.xml artifact", func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/job/nightly-regression/118/api/json", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"artifacts": []map[string]any{
						{"fileName": "testng-results.xml", "relativePath": "target/surefire/testng-results.xml"},
						{"fileName": "report.html", "relativePath": "target/report.html"},
						{"fileName": "testng-results.xml", "relativePath": "target/failsafe/testng-results.xml"},
					},
				})
			})
			mux.HandleFunc("/job/nightly-regression/118/artifact/", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<testng-results/>"))
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			client := jenkins.NewClient(config.JenkinsConfig{URL: server.URL})
			docs, err := client.FetchTestNGArtifacts(context.Background(), "nightly-regression", "118")

			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
		})

		It("returns no documents when the build has no matching artifacts", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"artifacts": []map[string]any{}})
			}))
			defer server.Close()

			client := jenkins.NewClient(config.JenkinsConfig{URL: server.URL})
			docs, err := client.FetchTestNGArtifacts(context.Background(), "job", "1")

			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})
})
