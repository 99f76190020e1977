package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS domains (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS projects (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	domain_id BIGINT REFERENCES domains(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS testers (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS issues (
	id BIGINT PRIMARY KEY,
	jira_key TEXT NOT NULL UNIQUE,
	summary TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	sprint_id TEXT NOT NULL DEFAULT '',
	sprint_name TEXT NOT NULL DEFAULT '',
	issue_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	priority TEXT,
	assignee TEXT,
	assignee_display_name TEXT,
	search_keyword TEXT,
	keyword_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_issues_sprint_id ON issues(sprint_id);

CREATE TABLE IF NOT EXISTS test_case_links (
	id BIGINT PRIMARY KEY,
	issue_id BIGINT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	external_id TEXT,
	can_be_automated BOOLEAN NOT NULL DEFAULT FALSE,
	cannot_be_automated BOOLEAN NOT NULL DEFAULT FALSE,
	project_id BIGINT REFERENCES projects(id),
	tester_id BIGINT REFERENCES testers(id),
	domain_mapped TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_test_case_links_issue_id ON test_case_links(issue_id);

CREATE TABLE IF NOT EXISTS automation_candidates (
	id BIGINT PRIMARY KEY,
	title TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	test_steps TEXT NOT NULL DEFAULT '',
	expected_result TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'Medium',
	status TEXT NOT NULL DEFAULT 'READY_TO_AUTOMATE',
	project_id BIGINT REFERENCES projects(id),
	tester_id BIGINT REFERENCES testers(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS build_results (
	id BIGINT PRIMARY KEY,
	job_name TEXT NOT NULL,
	build_number TEXT NOT NULL,
	build_status TEXT NOT NULL,
	total_tests INT NOT NULL DEFAULT 0,
	passed_tests INT NOT NULL DEFAULT 0,
	failed_tests INT NOT NULL DEFAULT 0,
	skipped_tests INT NOT NULL DEFAULT 0,
	build_url TEXT NOT NULL DEFAULT '',
	build_timestamp TIMESTAMPTZ,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (job_name, build_number)
);

CREATE TABLE IF NOT EXISTS test_case_records (
	id BIGINT PRIMARY KEY,
	build_result_id BIGINT NOT NULL REFERENCES build_results(id) ON DELETE CASCADE,
	class_name TEXT NOT NULL DEFAULT '',
	test_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_test_case_records_build ON test_case_records(build_result_id);
`

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
