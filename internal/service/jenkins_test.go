package service_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"qacoverage.app/api-server/internal/jenkins"
	"qacoverage.app/api-server/internal/model"
	"qacoverage.app/api-server/internal/service"
	"qacoverage.app/api-server/internal/store"
)

var _ = Describe("JenkinsService", func() {
	var (
		ctx    context.Context
		stores *store.Stores
		ci     *fakeCI
		svc    service.JenkinsService
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = newFakeStores()
		ci = &fakeCI{jobs: []string{"regression-nightly", "smoke-hourly"}}
		svc = service.NewJenkinsService(ci, stores)
	})

	testngDoc := func(passed, failed, skipped int) []byte {
		doc := `<testng-results><suite name="s"><test name="t"><class name="c">`
		n := 0
		emit := func(count int, status string) string {
			var out string
			for i := 0; i < count; i++ {
				n++
				out += fmt.Sprintf(`<test-method name="m%d" status="%s" duration-ms="100"/>`, n, status)
			}
			return out
		}
		doc += emit(passed, "PASS") + emit(failed, "FAIL") + emit(skipped, "SKIP")
		return []byte(doc + `</class></test></suite></testng-results>`)
	}

	Describe("SyncJob", func() {
		It("creates a result on first sync and updates in place on repeat", func() {
			ci.lastBuildFn = func(_ context.Context, _ string) (*jenkins.Build, error) {
				return &jenkins.Build{
					Number: 17, Result: "SUCCESS", URL: "http://ci/job/regression-nightly/17/",
					Timestamp: 1725000000000, TotalCount: 40, FailCount: 3, SkipCount: 2,
				}, nil
			}

			Expect(svc.SyncJob(ctx, "regression-nightly")).To(Succeed())

			result, err := svc.LatestResultByJob(ctx, "regression-nightly")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.BuildNumber).To(Equal("17"))
			Expect(result.BuildStatus).To(Equal(model.BuildSuccess))
			Expect(result.TotalTests).To(Equal(40))
			Expect(result.PassedTests).To(Equal(35))
			Expect(result.BuildTimestamp).NotTo(BeNil())
			firstID := result.ID

			ci.lastBuildFn = func(_ context.Context, _ string) (*jenkins.Build, error) {
				return &jenkins.Build{Number: 17, Result: "UNSTABLE", TotalCount: 40, FailCount: 6}, nil
			}
			Expect(svc.SyncJob(ctx, "regression-nightly")).To(Succeed())

			result, err = svc.LatestResultByJob(ctx, "regression-nightly")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ID).To(Equal(firstID))
			Expect(result.BuildStatus).To(Equal(model.BuildUnstable))
			Expect(result.FailedTests).To(Equal(6))

			results, err := svc.LatestResults(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})

	Describe("SyncAllJobs", func() {
		It("continues past a failing job and reports it in the joined error", func() {
			ci.lastBuildFn = func(_ context.Context, jobName string) (*jenkins.Build, error) {
				if jobName == "regression-nightly" {
					return nil, errors.New("job disabled")
				}
				return &jenkins.Build{Number: 3, Result: "SUCCESS", TotalCount: 5}, nil
			}

			err := svc.SyncAllJobs(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("regression-nightly"))

			_, err = svc.LatestResultByJob(ctx, "smoke-hourly")
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns nil when every job syncs", func() {
			ci.lastBuildFn = func(_ context.Context, _ string) (*jenkins.Build, error) {
				return &jenkins.Build{Number: 1, Result: "SUCCESS"}, nil
			}
			Expect(svc.SyncAllJobs(ctx)).To(Succeed())
		})
	})

	Describe("DetailedTestCases", func() {
		BeforeEach(func() {
			ci.lastBuildFn = func(_ context.Context, _ string) (*jenkins.Build, error) {
				return &jenkins.Build{
					Number: 8, Result: "UNSTABLE",
					TotalCount: 99, FailCount: 90, SkipCount: 1,
				}, nil
			}
			Expect(svc.SyncJob(ctx, "regression-nightly")).To(Succeed())
		})

		It("parses every artifact and replaces the CI summary counts", func() {
			ci.artifactsFn = func(_ context.Context, _, _ string) ([][]byte, error) {
				return [][]byte{testngDoc(2, 1, 0), testngDoc(1, 0, 1)}, nil
			}

			result, err := svc.DetailedTestCases(ctx, "regression-nightly", "8")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TestCases).To(HaveLen(5))
			Expect(result.TotalTests).To(Equal(5))
			Expect(result.PassedTests).To(Equal(3))
			Expect(result.FailedTests).To(Equal(1))
			Expect(result.SkippedTests).To(Equal(1))

			records, err := svc.TestCasesByResult(ctx, result.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(5))
		})

		It("keeps previously stored records when no artifacts remain", func() {
			ci.artifactsFn = func(_ context.Context, _, _ string) ([][]byte, error) {
				return [][]byte{testngDoc(2, 0, 0)}, nil
			}
			first, err := svc.DetailedTestCases(ctx, "regression-nightly", "8")
			Expect(err).NotTo(HaveOccurred())
			Expect(first.TestCases).To(HaveLen(2))

			// Artifacts rotated away on the CI side.
			ci.artifactsFn = func(_ context.Context, _, _ string) ([][]byte, error) {
				return nil, nil
			}
			second, err := svc.DetailedTestCases(ctx, "regression-nightly", "8")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.TestCases).To(HaveLen(2))
			Expect(second.TotalTests).To(Equal(2))
		})

		It("fails for a build that was never synced", func() {
			_, err := svc.DetailedTestCases(ctx, "regression-nightly", "999")
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Statistics", func() {
		It("aggregates the latest build per job", func() {
			builds := map[string]*jenkins.Build{
				"regression-nightly": {Number: 5, Result: "SUCCESS", TotalCount: 80, FailCount: 0, SkipCount: 0},
				"smoke-hourly":       {Number: 9, Result: "FAILURE", TotalCount: 20, FailCount: 20},
			}
			ci.lastBuildFn = func(_ context.Context, jobName string) (*jenkins.Build, error) {
				return builds[jobName], nil
			}
			Expect(svc.SyncAllJobs(ctx)).To(Succeed())

			stats, err := svc.Statistics(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalJobs).To(Equal(2))
			Expect(stats.SuccessfulBuilds).To(Equal(1))
			Expect(stats.FailedBuilds).To(Equal(1))
			Expect(stats.TotalTests).To(Equal(100))
			Expect(stats.PassedTests).To(Equal(80))
			Expect(stats.PassRate).To(BeNumerically("~", 80.0))
		})
	})

	Describe("GenerateReport", func() {
		It("lists jobs alphabetically with overall totals", func() {
			builds := map[string]*jenkins.Build{
				"regression-nightly": {Number: 5, Result: "SUCCESS", TotalCount: 30, FailCount: 5, SkipCount: 5},
				"smoke-hourly":       {Number: 9, Result: "UNSTABLE", TotalCount: 10, FailCount: 2},
			}
			ci.lastBuildFn = func(_ context.Context, jobName string) (*jenkins.Build, error) {
				return builds[jobName], nil
			}
			Expect(svc.SyncAllJobs(ctx)).To(Succeed())

			report, err := svc.GenerateReport(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Jobs).To(HaveLen(2))
			Expect(report.Jobs[0].JobName).To(Equal("regression-nightly"))
			Expect(report.Jobs[1].JobName).To(Equal("smoke-hourly"))
			Expect(report.TotalTests).To(Equal(40))
			Expect(report.TotalPassed).To(Equal(28))
			Expect(report.TotalFailed).To(Equal(7))
			Expect(report.TotalSkipped).To(Equal(5))
			Expect(report.OverallPassRate).To(BeNumerically("~", 70.0))
			Expect(report.GeneratedAt).NotTo(BeZero())
		})
	})

	Describe("UpdateNotes", func() {
		It("persists notes on an existing result and rejects unknown ids", func() {
			ci.lastBuildFn = func(_ context.Context, _ string) (*jenkins.Build, error) {
				return &jenkins.Build{Number: 2, Result: "SUCCESS"}, nil
			}
			Expect(svc.SyncJob(ctx, "smoke-hourly")).To(Succeed())
			result, err := svc.LatestResultByJob(ctx, "smoke-hourly")
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.UpdateNotes(ctx, result.ID, "flaky login spec quarantined")).To(Succeed())
			reloaded, err := svc.Result(ctx, result.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Notes).To(Equal("flaky login spec quarantined"))

			Expect(svc.UpdateNotes(ctx, 12345, "x")).To(MatchError(store.ErrNotFound))
		})
	})
})
