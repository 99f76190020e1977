package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"qacoverage.app/api-server/common/id"
	"qacoverage.app/api-server/internal/jenkins"
	"qacoverage.app/api-server/internal/model"
	"qacoverage.app/api-server/internal/store"
)

// CIServer is the slice of the CI client the build sync needs.
type CIServer interface {
	TestConnection(ctx context.Context) bool
	JobNames() []string
	FetchLastBuild(ctx context.Context, jobName string) (*jenkins.Build, error)
	FetchTestNGArtifacts(ctx context.Context, jobName, buildNumber string) ([][]byte, error)
}

// BuildStatistics aggregates the latest build per watched job.
type BuildStatistics struct {
	TotalJobs        int     `json:"totalJobs"`
	SuccessfulBuilds int     `json:"successfulBuilds"`
	FailedBuilds     int     `json:"failedBuilds"`
	UnstableBuilds   int     `json:"unstableBuilds"`
	AbortedBuilds    int     `json:"abortedBuilds"`
	TotalTests       int     `json:"totalTests"`
	PassedTests      int     `json:"passedTests"`
	PassRate         float64 `json:"passRate"`
}

// JobReport is one job's latest-build summary inside a TestNGReport.
type JobReport struct {
	JobName      string            `json:"jobName"`
	BuildNumber  string            `json:"buildNumber"`
	BuildStatus  model.BuildStatus `json:"buildStatus"`
	BuildURL     string            `json:"buildUrl"`
	TotalTests   int               `json:"totalTests"`
	PassedTests  int               `json:"passedTests"`
	FailedTests  int               `json:"failedTests"`
	SkippedTests int               `json:"skippedTests"`
}

type TestNGReport struct {
	GeneratedAt     time.Time   `json:"generatedAt"`
	Jobs            []JobReport `json:"jobs"`
	TotalTests      int         `json:"totalTests"`
	TotalPassed     int         `json:"totalPassed"`
	TotalFailed     int         `json:"totalFailed"`
	TotalSkipped    int         `json:"totalSkipped"`
	OverallPassRate float64     `json:"overallPassRate"`
}

type JenkinsService interface {
	TestConnection(ctx context.Context) bool
	SyncAllJobs(ctx context.Context) error
	SyncJob(ctx context.Context, jobName string) error
	LatestResults(ctx context.Context) ([]model.BuildResult, error)
	LatestResultByJob(ctx context.Context, jobName string) (*model.BuildResult, error)
	TestCasesByResult(ctx context.Context, resultID int64) ([]model.TestCaseRecord, error)
	Statistics(ctx context.Context) (*BuildStatistics, error)
	DetailedTestCases(ctx context.Context, jobName, buildNumber string) (*model.BuildResult, error)
	UpdateNotes(ctx context.Context, resultID int64, notes string) error
	Result(ctx context.Context, resultID int64) (*model.BuildResult, error)
	GenerateReport(ctx context.Context) (*TestNGReport, error)
}

type jenkinsService struct {
	ci     CIServer
	stores *store.Stores
}

func NewJenkinsService(ci CIServer, stores *store.Stores) JenkinsService {
	return &jenkinsService{
		ci:     ci,
		stores: stores,
	}
}

func (s *jenkinsService) TestConnection(ctx context.Context) bool {
	return s.ci.TestConnection(ctx)
}

// SyncAllJobs refreshes the latest build of every watched job. A failing job
// does not stop the rest; failures are joined into the returned error.
func (s *jenkinsService) SyncAllJobs(ctx context.Context) error {
	var errs []error
	for _, jobName := range s.ci.JobNames() {
		if err := s.SyncJob(ctx, jobName); err != nil {
			slog.ErrorContext(ctx, "syncing job failed", "error", err, "job_name", jobName)
			errs = append(errs, fmt.Errorf("job %s: %w", jobName, err))
		}
	}
	return errors.Join(errs...)
}

// SyncJob upserts the job's latest build header. Detail records are not
// touched here; resolution stays lazy via DetailedTestCases.
func (s *jenkinsService) SyncJob(ctx context.Context, jobName string) error {
	build, err := s.ci.FetchLastBuild(ctx, jobName)
	if err != nil {
		return fmt.Errorf("fetching last build: %w", err)
	}

	buildNumber := strconv.Itoa(build.Number)
	result, err := s.stores.BuildResults.GetByJobAndBuild(ctx, jobName, buildNumber)
	switch {
	case errors.Is(err, store.ErrNotFound):
		result = &model.BuildResult{
			ID:          id.New(),
			JobName:     jobName,
			BuildNumber: buildNumber,
		}
		applyBuildHeader(result, build)
		if err := s.stores.BuildResults.Create(ctx, result); err != nil {
			return fmt.Errorf("creating build result: %w", err)
		}
	case err != nil:
		return fmt.Errorf("loading build result: %w", err)
	default:
		applyBuildHeader(result, build)
		if err := s.stores.BuildResults.Update(ctx, result); err != nil {
			return fmt.Errorf("updating build result: %w", err)
		}
	}

	slog.InfoContext(ctx, "synced job build",
		"job_name", jobName, "build_number", buildNumber, "status", result.BuildStatus)
	return nil
}

func applyBuildHeader(result *model.BuildResult, build *jenkins.Build) {
	result.BuildStatus = model.ParseBuildStatus(build.Result)
	result.BuildURL = build.URL
	result.TotalTests = build.TotalCount
	result.FailedTests = build.FailCount
	result.SkippedTests = build.SkipCount
	result.PassedTests = build.TotalCount - build.FailCount - build.SkipCount
	if build.Timestamp > 0 {
		ts := time.UnixMilli(build.Timestamp)
		result.BuildTimestamp = &ts
	}
}

func (s *jenkinsService) LatestResults(ctx context.Context) ([]model.BuildResult, error) {
	results, err := s.stores.BuildResults.ListLatestPerJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing latest results: %w", err)
	}
	return results, nil
}

func (s *jenkinsService) LatestResultByJob(ctx context.Context, jobName string) (*model.BuildResult, error) {
	result, err := s.stores.BuildResults.GetLatestByJob(ctx, jobName)
	if err != nil {
		return nil, fmt.Errorf("loading latest result for %s: %w", jobName, err)
	}
	return result, nil
}

func (s *jenkinsService) TestCasesByResult(ctx context.Context, resultID int64) ([]model.TestCaseRecord, error) {
	records, err := s.stores.BuildResults.ListTestCases(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("listing test cases: %w", err)
	}
	return records, nil
}

func (s *jenkinsService) Statistics(ctx context.Context) (*BuildStatistics, error) {
	results, err := s.stores.BuildResults.ListLatestPerJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing latest results: %w", err)
	}

	stats := &BuildStatistics{TotalJobs: len(results)}
	for i := range results {
		result := &results[i]
		switch result.BuildStatus {
		case model.BuildSuccess:
			stats.SuccessfulBuilds++
		case model.BuildUnstable:
			stats.UnstableBuilds++
		case model.BuildAborted:
			stats.AbortedBuilds++
		default:
			stats.FailedBuilds++
		}
		stats.TotalTests += result.TotalTests
		stats.PassedTests += result.PassedTests
	}
	if stats.TotalTests > 0 {
		stats.PassRate = float64(stats.PassedTests) / float64(stats.TotalTests) * 100
	}
	return stats, nil
}

// DetailedTestCases resolves per-method records for one build by downloading
// and parsing its report artifacts. Parsed counts replace the CI summary
// counts once detail exists. A build with no artifacts keeps whatever was
// stored before.
func (s *jenkinsService) DetailedTestCases(ctx context.Context, jobName, buildNumber string) (*model.BuildResult, error) {
	result, err := s.stores.BuildResults.GetByJobAndBuild(ctx, jobName, buildNumber)
	if err != nil {
		return nil, fmt.Errorf("loading build result: %w", err)
	}

	docs, err := s.ci.FetchTestNGArtifacts(ctx, jobName, buildNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching report artifacts: %w", err)
	}
	if len(docs) == 0 {
		records, err := s.stores.BuildResults.ListTestCases(ctx, result.ID)
		if err != nil {
			return nil, fmt.Errorf("listing stored test cases: %w", err)
		}
		result.TestCases = records
		return result, nil
	}

	records := jenkins.ParseTestNGArtifacts(docs...)
	if err := s.stores.BuildResults.ReplaceTestCases(ctx, result.ID, records); err != nil {
		return nil, fmt.Errorf("replacing test cases: %w", err)
	}

	passed, failed, skipped := jenkins.CountByStatus(records)
	result.TotalTests = len(records)
	result.PassedTests = passed
	result.FailedTests = failed
	result.SkippedTests = skipped
	if err := s.stores.BuildResults.Update(ctx, result); err != nil {
		return nil, fmt.Errorf("updating build counts: %w", err)
	}

	stored, err := s.stores.BuildResults.ListTestCases(ctx, result.ID)
	if err != nil {
		return nil, fmt.Errorf("listing stored test cases: %w", err)
	}
	result.TestCases = stored
	return result, nil
}

func (s *jenkinsService) UpdateNotes(ctx context.Context, resultID int64, notes string) error {
	if err := s.stores.BuildResults.UpdateNotes(ctx, resultID, notes); err != nil {
		return fmt.Errorf("updating notes: %w", err)
	}
	return nil
}

func (s *jenkinsService) Result(ctx context.Context, resultID int64) (*model.BuildResult, error) {
	result, err := s.stores.BuildResults.GetByID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("loading build result: %w", err)
	}
	return result, nil
}

// GenerateReport summarizes the latest build per job plus overall totals.
func (s *jenkinsService) GenerateReport(ctx context.Context) (*TestNGReport, error) {
	results, err := s.stores.BuildResults.ListLatestPerJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing latest results: %w", err)
	}

	report := &TestNGReport{
		GeneratedAt: time.Now(),
		Jobs:        make([]JobReport, 0, len(results)),
	}
	for i := range results {
		result := &results[i]
		report.Jobs = append(report.Jobs, JobReport{
			JobName:      result.JobName,
			BuildNumber:  result.BuildNumber,
			BuildStatus:  result.BuildStatus,
			BuildURL:     result.BuildURL,
			TotalTests:   result.TotalTests,
			PassedTests:  result.PassedTests,
			FailedTests:  result.FailedTests,
			SkippedTests: result.SkippedTests,
		})
		report.TotalTests += result.TotalTests
		report.TotalPassed += result.PassedTests
		report.TotalFailed += result.FailedTests
		report.TotalSkipped += result.SkippedTests
	}
	if report.TotalTests > 0 {
		report.OverallPassRate = float64(report.TotalPassed) / float64(report.TotalTests) * 100
	}
	return report, nil
}
