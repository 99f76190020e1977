package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qacoverage.app/api-server/internal/model"
)

type projectStore struct {
	pool *pgxpool.Pool
}

func newProjectStore(pool *pgxpool.Pool) ProjectStore {
	return &projectStore{pool: pool}
}

func (s *projectStore) GetByID(ctx context.Context, projectID int64) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, domain_id, created_at FROM projects WHERE id = $1`, projectID).
		Scan(&p.ID, &p.Name, &p.Description, &p.DomainID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *projectStore) List(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, domain_id, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DomainID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *projectStore) Create(ctx context.Context, project *model.Project) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO projects (id, name, description, domain_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		project.ID, project.Name, project.Description, project.DomainID).
		Scan(&project.CreatedAt)
}

func (s *projectStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&n)
	return n, err
}

type testerStore struct {
	pool *pgxpool.Pool
}

func newTesterStore(pool *pgxpool.Pool) TesterStore {
	return &testerStore{pool: pool}
}

func (s *testerStore) GetByID(ctx context.Context, testerID int64) (*model.Tester, error) {
	var t model.Tester
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, status, created_at FROM testers WHERE id = $1`, testerID).
		Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *testerStore) List(ctx context.Context) ([]model.Tester, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, status, created_at FROM testers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var testers []model.Tester
	for rows.Next() {
		var t model.Tester
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		testers = append(testers, t)
	}
	return testers, rows.Err()
}

func (s *testerStore) Create(ctx context.Context, tester *model.Tester) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO testers (id, name, status)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		tester.ID, tester.Name, tester.Status).
		Scan(&tester.CreatedAt)
}

func (s *testerStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM testers`).Scan(&n)
	return n, err
}

type domainStore struct {
	pool *pgxpool.Pool
}

func newDomainStore(pool *pgxpool.Pool) DomainStore {
	return &domainStore{pool: pool}
}

func (s *domainStore) GetByID(ctx context.Context, domainID int64) (*model.Domain, error) {
	var d model.Domain
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM domains WHERE id = $1`, domainID).
		Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *domainStore) GetByName(ctx context.Context, name string) (*model.Domain, error) {
	var d model.Domain
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM domains WHERE name = $1`, name).
		Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *domainStore) List(ctx context.Context) ([]model.Domain, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM domains ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *domainStore) Create(ctx context.Context, domain *model.Domain) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO domains (id, name)
		VALUES ($1, $2)
		RETURNING created_at`,
		domain.ID, domain.Name).
		Scan(&domain.CreatedAt)
}

func (s *domainStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM domains`).Scan(&n)
	return n, err
}
