package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qacoverage.app/api-server/common/id"
	"qacoverage.app/api-server/internal/model"
)

const buildColumns = `id, job_name, build_number, build_status, total_tests,
	passed_tests, failed_tests, skipped_tests, build_url, build_timestamp,
	notes, created_at, updated_at`

type buildResultStore struct {
	pool *pgxpool.Pool
}

func newBuildResultStore(pool *pgxpool.Pool) BuildResultStore {
	return &buildResultStore{pool: pool}
}

func (s *buildResultStore) GetByID(ctx context.Context, resultID int64) (*model.BuildResult, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+buildColumns+` FROM build_results WHERE id = $1`, resultID)
	return scanBuild(row)
}

func (s *buildResultStore) GetByJobAndBuild(ctx context.Context, jobName, buildNumber string) (*model.BuildResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+buildColumns+` FROM build_results WHERE job_name = $1 AND build_number = $2`,
		jobName, buildNumber)
	return scanBuild(row)
}

func (s *buildResultStore) GetLatestByJob(ctx context.Context, jobName string) (*model.BuildResult, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+buildColumns+` FROM build_results
		WHERE job_name = $1
		ORDER BY build_timestamp DESC NULLS LAST, created_at DESC
		LIMIT 1`, jobName)
	return scanBuild(row)
}

func (s *buildResultStore) ListLatestPerJob(ctx context.Context) ([]model.BuildResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (job_name) `+buildColumns+`
		FROM build_results
		ORDER BY job_name, build_timestamp DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBuilds(rows)
}

func (s *buildResultStore) Create(ctx context.Context, result *model.BuildResult) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO build_results (id, job_name, build_number, build_status,
			total_tests, passed_tests, failed_tests, skipped_tests, build_url,
			build_timestamp, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+buildColumns,
		result.ID, result.JobName, result.BuildNumber, string(result.BuildStatus),
		result.TotalTests, result.PassedTests, result.FailedTests,
		result.SkippedTests, result.BuildURL, result.BuildTimestamp, result.Notes)
	created, err := scanBuild(row)
	if err != nil {
		return err
	}
	*result = *created
	return nil
}

func (s *buildResultStore) Update(ctx context.Context, result *model.BuildResult) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE build_results SET build_status = $2, total_tests = $3,
			passed_tests = $4, failed_tests = $5, skipped_tests = $6,
			build_url = $7, build_timestamp = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+buildColumns,
		result.ID, string(result.BuildStatus), result.TotalTests, result.PassedTests,
		result.FailedTests, result.SkippedTests, result.BuildURL, result.BuildTimestamp)
	updated, err := scanBuild(row)
	if err != nil {
		return err
	}
	records := result.TestCases
	*result = *updated
	result.TestCases = records
	return nil
}

func (s *buildResultStore) UpdateNotes(ctx context.Context, resultID int64, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE build_results SET notes = $2, updated_at = now() WHERE id = $1`, resultID, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *buildResultStore) ReplaceTestCases(ctx context.Context, buildResultID int64, records []model.TestCaseRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM test_case_records WHERE build_result_id = $1`, buildResultID); err != nil {
		return err
	}
	for i := range records {
		records[i].ID = id.New()
		records[i].BuildResultID = buildResultID
		if _, err := tx.Exec(ctx, `
			INSERT INTO test_case_records (id, build_result_id, class_name,
				test_name, status, duration_seconds)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			records[i].ID, buildResultID, records[i].ClassName,
			records[i].TestName, string(records[i].Status),
			records[i].DurationSeconds); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *buildResultStore) ListTestCases(ctx context.Context, buildResultID int64) ([]model.TestCaseRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, build_result_id, class_name, test_name, status, duration_seconds
		FROM test_case_records
		WHERE build_result_id = $1
		ORDER BY id`, buildResultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.TestCaseRecord
	for rows.Next() {
		var r model.TestCaseRecord
		var status string
		if err := rows.Scan(&r.ID, &r.BuildResultID, &r.ClassName, &r.TestName,
			&status, &r.DurationSeconds); err != nil {
			return nil, err
		}
		r.Status = model.TestStatus(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanBuild(row pgx.Row) (*model.BuildResult, error) {
	var b model.BuildResult
	var status string
	err := row.Scan(&b.ID, &b.JobName, &b.BuildNumber, &status, &b.TotalTests,
		&b.PassedTests, &b.FailedTests, &b.SkippedTests, &b.BuildURL,
		&b.BuildTimestamp, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b.BuildStatus = model.BuildStatus(status)
	return &b, nil
}

func scanBuilds(rows pgx.Rows) ([]model.BuildResult, error) {
	var builds []model.BuildResult
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}
