package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qacoverage.app/api-server/internal/model"
)

const candidateColumns = `id, title, description, test_steps, expected_result,
	priority, status, project_id, tester_id, created_at, updated_at`

type automationCandidateStore struct {
	pool *pgxpool.Pool
}

func newAutomationCandidateStore(pool *pgxpool.Pool) AutomationCandidateStore {
	return &automationCandidateStore{pool: pool}
}

func (s *automationCandidateStore) GetByTitle(ctx context.Context, title string) (*model.AutomationCandidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM automation_candidates WHERE title = $1`, title)
	return scanCandidate(row)
}

func (s *automationCandidateStore) Create(ctx context.Context, candidate *model.AutomationCandidate) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO automation_candidates (id, title, description, test_steps,
			expected_result, priority, status, project_id, tester_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+candidateColumns,
		candidate.ID, candidate.Title, candidate.Description, candidate.TestSteps,
		candidate.ExpectedResult, candidate.Priority, string(candidate.Status),
		candidate.ProjectID, candidate.TesterID)
	created, err := scanCandidate(row)
	if err != nil {
		return err
	}
	*candidate = *created
	return nil
}

func (s *automationCandidateStore) Update(ctx context.Context, candidate *model.AutomationCandidate) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE automation_candidates SET status = $2, project_id = $3,
			tester_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+candidateColumns,
		candidate.ID, string(candidate.Status), candidate.ProjectID, candidate.TesterID)
	updated, err := scanCandidate(row)
	if err != nil {
		return err
	}
	*candidate = *updated
	return nil
}

func (s *automationCandidateStore) List(ctx context.Context) ([]model.AutomationCandidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM automation_candidates ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.AutomationCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

func scanCandidate(row pgx.Row) (*model.AutomationCandidate, error) {
	var c model.AutomationCandidate
	var status string
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.TestSteps,
		&c.ExpectedResult, &c.Priority, &status, &c.ProjectID, &c.TesterID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Status = model.CandidateStatus(status)
	return &c, nil
}
