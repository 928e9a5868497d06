package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
)

// LinkRepo persists ExportLink rows, one per project.
type LinkRepo struct {
	db *pgxpool.Pool
}

func NewLinkRepo(db *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{db: db}
}

const linkColumns = `id, project_id, resource, title, autosync, exported_at, created_at, modified_at`

func (r *LinkRepo) Create(ctx context.Context, projectID int64, resource, title string, autosync bool) (*domain.ExportLink, error) {
	const q = `
insert into hydroshare_resources (project_id, resource, title, autosync, exported_at)
values ($1, $2, $3, $4, now())
returning ` + linkColumns + `;`

	link, err := scanLink(r.db.QueryRow(ctx, q, projectID, resource, title, autosync))
	if err != nil {
		// project_id is unique; a duplicate create lost the race
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrLinkExists
		}
		return nil, err
	}
	return link, nil
}

func (r *LinkRepo) GetByProject(ctx context.Context, projectID int64) (*domain.ExportLink, error) {
	const q = `select ` + linkColumns + ` from hydroshare_resources where project_id = $1;`
	return scanLink(r.db.QueryRow(ctx, q, projectID))
}

func (r *LinkRepo) SetAutosync(ctx context.Context, projectID int64, enabled bool) (*domain.ExportLink, error) {
	const q = `
update hydroshare_resources
set autosync = $2, modified_at = now()
where project_id = $1
returning ` + linkColumns + `;`
	return scanLink(r.db.QueryRow(ctx, q, projectID, enabled))
}

// TouchExported stamps the last successful sync time.
func (r *LinkRepo) TouchExported(ctx context.Context, projectID int64) (*domain.ExportLink, error) {
	const q = `
update hydroshare_resources
set exported_at = now(), modified_at = now()
where project_id = $1
returning ` + linkColumns + `;`
	return scanLink(r.db.QueryRow(ctx, q, projectID))
}

func (r *LinkRepo) Delete(ctx context.Context, projectID int64) error {
	_, err := r.db.Exec(ctx, `delete from hydroshare_resources where project_id = $1;`, projectID)
	return err
}

// AutosyncCandidate is a stale autosync link plus its project owner.
type AutosyncCandidate struct {
	ProjectID int64
	UserID    string
	Resource  string
}

// ListAutosync returns links flagged for autosync whose project changed
// since the last export.
func (r *LinkRepo) ListAutosync(ctx context.Context, since time.Time) ([]AutosyncCandidate, error) {
	const q = `
select hydroshare_resources.project_id, projects.user_id::text, hydroshare_resources.resource
from hydroshare_resources
join projects on projects.id = hydroshare_resources.project_id
where autosync and projects.modified_at > hydroshare_resources.exported_at
  and projects.modified_at > $1
order by hydroshare_resources.exported_at;
`
	rows, err := r.db.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AutosyncCandidate, 0, 16)
	for rows.Next() {
		var c AutosyncCandidate
		if err := rows.Scan(&c.ProjectID, &c.UserID, &c.Resource); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanLink(row pgx.Row) (*domain.ExportLink, error) {
	var l domain.ExportLink
	err := row.Scan(&l.ID, &l.ProjectID, &l.Resource, &l.Title, &l.Autosync,
		&l.ExportedAt, &l.CreatedAt, &l.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}
