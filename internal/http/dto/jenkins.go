package dto

import (
	"time"

	"qacoverage.app/api-server/internal/model"
)

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type TestCaseRecordResponse struct {
	ClassName       string           `json:"className"`
	TestName        string           `json:"testName"`
	Status          model.TestStatus `json:"status"`
	DurationSeconds float64          `json:"durationSeconds"`
	ID              int64            `json:"id,string"`
}

type BuildResultResponse struct {
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	BuildTimestamp *time.Time               `json:"buildTimestamp,omitempty"`
	JobName        string                   `json:"jobName"`
	BuildNumber    string                   `json:"buildNumber"`
	BuildStatus    model.BuildStatus        `json:"buildStatus"`
	BuildURL       string                   `json:"buildUrl"`
	Notes          string                   `json:"notes"`
	TestCases      []TestCaseRecordResponse `json:"testCases,omitempty"`
	TotalTests     int                      `json:"totalTests"`
	PassedTests    int                      `json:"passedTests"`
	FailedTests    int                      `json:"failedTests"`
	SkippedTests   int                      `json:"skippedTests"`
	ID             int64                    `json:"id,string"`
}

func ToTestCaseRecordResponse(record *model.TestCaseRecord) *TestCaseRecordResponse {
	return &TestCaseRecordResponse{
		ID:              record.ID,
		ClassName:       record.ClassName,
		TestName:        record.TestName,
		Status:          record.Status,
		DurationSeconds: record.DurationSeconds,
	}
}

func ToTestCaseRecordResponses(records []model.TestCaseRecord) []TestCaseRecordResponse {
	out := make([]TestCaseRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, *ToTestCaseRecordResponse(&records[i]))
	}
	return out
}

func ToBuildResultResponse(result *model.BuildResult) *BuildResultResponse {
	return &BuildResultResponse{
		ID:             result.ID,
		JobName:        result.JobName,
		BuildNumber:    result.BuildNumber,
		BuildStatus:    result.BuildStatus,
		BuildURL:       result.BuildURL,
		Notes:          result.Notes,
		TestCases:      ToTestCaseRecordResponses(result.TestCases),
		TotalTests:     result.TotalTests,
		PassedTests:    result.PassedTests,
		FailedTests:    result.FailedTests,
		SkippedTests:   result.SkippedTests,
		BuildTimestamp: result.BuildTimestamp,
		CreatedAt:      result.CreatedAt,
		UpdatedAt:      result.UpdatedAt,
	}
}

func ToBuildResultResponses(results []model.BuildResult) []BuildResultResponse {
	out := make([]BuildResultResponse, 0, len(results))
	for i := range results {
		out = append(out, *ToBuildResultResponse(&results[i]))
	}
	return out
}
