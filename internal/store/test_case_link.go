package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qacoverage.app/api-server/internal/model"
)

const linkColumns = `id, issue_id, title, external_id, can_be_automated,
	cannot_be_automated, project_id, tester_id, domain_mapped, notes,
	created_at, updated_at`

type testCaseLinkStore struct {
	pool *pgxpool.Pool
}

func newTestCaseLinkStore(pool *pgxpool.Pool) TestCaseLinkStore {
	return &testCaseLinkStore{pool: pool}
}

func (s *testCaseLinkStore) GetByID(ctx context.Context, id int64) (*model.TestCaseLink, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM test_case_links WHERE id = $1`, id)
	return scanLink(row)
}

func (s *testCaseLinkStore) ListByIssue(ctx context.Context, issueID int64) ([]model.TestCaseLink, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+linkColumns+` FROM test_case_links WHERE issue_id = $1 ORDER BY created_at, id`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *testCaseLinkStore) ListBySprint(ctx context.Context, sprintID string) ([]model.TestCaseLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.issue_id, l.title, l.external_id, l.can_be_automated,
			l.cannot_be_automated, l.project_id, l.tester_id, l.domain_mapped,
			l.notes, l.created_at, l.updated_at
		FROM test_case_links l
		JOIN issues i ON i.id = l.issue_id
		WHERE i.sprint_id = $1
		ORDER BY l.created_at, l.id`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *testCaseLinkStore) Create(ctx context.Context, link *model.TestCaseLink) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO test_case_links (id, issue_id, title, external_id,
			can_be_automated, cannot_be_automated, project_id, tester_id,
			domain_mapped, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+linkColumns,
		link.ID, link.IssueID, link.Title, link.ExternalID, link.CanBeAutomated,
		link.CannotBeAutomated, link.ProjectID, link.TesterID, link.DomainMapped,
		link.Notes)
	created, err := scanLink(row)
	if err != nil {
		return err
	}
	*link = *created
	return nil
}

func (s *testCaseLinkStore) Update(ctx context.Context, link *model.TestCaseLink) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE test_case_links SET external_id = $2, can_be_automated = $3,
			cannot_be_automated = $4, project_id = $5, tester_id = $6,
			domain_mapped = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+linkColumns,
		link.ID, link.ExternalID, link.CanBeAutomated, link.CannotBeAutomated,
		link.ProjectID, link.TesterID, link.DomainMapped, link.Notes)
	updated, err := scanLink(row)
	if err != nil {
		return err
	}
	*link = *updated
	return nil
}

func scanLink(row pgx.Row) (*model.TestCaseLink, error) {
	var link model.TestCaseLink
	err := row.Scan(&link.ID, &link.IssueID, &link.Title, &link.ExternalID,
		&link.CanBeAutomated, &link.CannotBeAutomated, &link.ProjectID,
		&link.TesterID, &link.DomainMapped, &link.Notes, &link.CreatedAt,
		&link.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

func scanLinks(rows pgx.Rows) ([]model.TestCaseLink, error) {
	var links []model.TestCaseLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}
