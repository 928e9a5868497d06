package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

var ErrScenarioNameTaken = errors.New("scenario name already used in project")

type ScenarioRepo struct {
	db *pgxpool.Pool
}

func NewScenarioRepo(db *pgxpool.Pool) *ScenarioRepo {
	return &ScenarioRepo{db: db}
}

type CreateScenario struct {
	Name                string
	IsCurrentConditions bool
	Inputs              string
	Modifications       string
}

func (r *ScenarioRepo) Create(ctx context.Context, projectID int64, in CreateScenario) (*domain.Scenario, error) {
	if in.Name == "" {
		return nil, domain.ErrNameRequired
	}

	const q = `
insert into scenarios (project_id, name, is_current_conditions, inputs, modifications)
values ($1, $2, $3, nullif($4,''), nullif($5,''))
returning id, project_id, name, is_current_conditions,
          coalesce(inputs,''), coalesce(modifications,''), coalesce(results,''),
          created_at, modified_at;
`
	s, err := scanScenario(r.db.QueryRow(ctx, q,
		projectID, in.Name, in.IsCurrentConditions, in.Inputs, in.Modifications))
	if err != nil {
		// (name, project_id) is unique
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrScenarioNameTaken
		}
		return nil, err
	}
	return s, nil
}

func (r *ScenarioRepo) List(ctx context.Context, projectID int64) ([]domain.Scenario, error) {
	const q = `
select id, project_id, name, is_current_conditions,
       coalesce(inputs,''), coalesce(modifications,''), coalesce(results,''),
       created_at, modified_at
from scenarios
where project_id = $1
order by created_at;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Scenario, 0, 8)
	for rows.Next() {
		var s domain.Scenario
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.IsCurrentConditions,
			&s.Inputs, &s.Modifications, &s.Results, &s.CreatedAt, &s.ModifiedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type UpdateScenario struct {
	Inputs        *string
	Modifications *string
	Results       *string
}

func (r *ScenarioRepo) Update(ctx context.Context, projectID, id int64, in UpdateScenario) (*domain.Scenario, error) {
	const q = `
update scenarios
set inputs = coalesce($3, inputs),
    modifications = coalesce($4, modifications),
    results = coalesce($5, results),
    modified_at = now()
where id = $2 and project_id = $1
returning id, project_id, name, is_current_conditions,
          coalesce(inputs,''), coalesce(modifications,''), coalesce(results,''),
          created_at, modified_at;
`
	return scanScenario(r.db.QueryRow(ctx, q, projectID, id, in.Inputs, in.Modifications, in.Results))
}

func (r *ScenarioRepo) Delete(ctx context.Context, projectID, id int64) (bool, error) {
	const q = `delete from scenarios where id = $2 and project_id = $1;`
	ct, err := r.db.Exec(ctx, q, projectID, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func scanScenario(row pgx.Row) (*domain.Scenario, error) {
	var s domain.Scenario
	err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.IsCurrentConditions,
		&s.Inputs, &s.Modifications, &s.Results, &s.CreatedAt, &s.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
