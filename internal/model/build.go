package model

import "time"

type BuildStatus string

const (
	BuildSuccess  BuildStatus = "SUCCESS"
	BuildFailure  BuildStatus = "FAILURE"
	BuildUnstable BuildStatus = "UNSTABLE"
	BuildAborted  BuildStatus = "ABORTED"
)

// ParseBuildStatus maps a CI status string onto the enum. Unknown strings
// count as failures so they surface in the dashboard.
func ParseBuildStatus(s string) BuildStatus {
	switch s {
	case "SUCCESS":
		return BuildSuccess
	case "UNSTABLE":
		return BuildUnstable
	case "ABORTED":
		return BuildAborted
	default:
		return BuildFailure
	}
}

// BuildResult is one execution of a CI job, unique by (JobName, BuildNumber).
// TestCases is populated only after detail resolution.
type BuildResult struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	BuildTimestamp *time.Time
	JobName        string
	BuildNumber    string
	BuildStatus    BuildStatus
	BuildURL       string
	Notes          string
	TestCases      []TestCaseRecord
	TotalTests     int
	PassedTests    int
	FailedTests    int
	SkippedTests   int
	ID             int64
}

type TestStatus string

const (
	TestPassed  TestStatus = "PASSED"
	TestFailed  TestStatus = "FAILED"
	TestSkipped TestStatus = "SKIPPED"
)

// TestCaseRecord is one test-method execution inside a build. Records are
// never merged across report documents; every execution is distinct.
type TestCaseRecord struct {
	ClassName       string
	TestName        string
	Status          TestStatus
	DurationSeconds float64
	ID              int64
	BuildResultID   int64
}
