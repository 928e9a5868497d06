package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type CreateProject struct {
	Name               string
	AreaOfInterest     string // GeoJSON MultiPolygon, may be empty
	AreaOfInterestName string
	ModelPackage       string
	GISData            string
	WKAoI              string
}

func (r *Repo) Create(ctx context.Context, userDBID string, in CreateProject) (*domain.Project, error) {
	if in.Name == "" {
		return nil, domain.ErrNameRequired
	}
	if !domain.ValidModelPackage(in.ModelPackage) {
		return nil, fmt.Errorf("invalid model package %q", in.ModelPackage)
	}

	const q = `
insert into projects
  (user_id, name, area_of_interest, area_of_interest_name, model_package, gis_data, wkaoi)
values
  ($1::uuid, $2, st_geomfromgeojson(nullif($3,'')), nullif($4,''), $5, nullif($6,''), nullif($7,''))
returning id, user_id::text, name,
          coalesce(st_asgeojson(area_of_interest), ''),
          coalesce(area_of_interest_name, ''),
          is_private, model_package,
          coalesce(gis_data, ''), coalesce(wkaoi, ''),
          created_at, modified_at;
`
	return r.scanOne(r.db.QueryRow(ctx, q,
		userDBID, in.Name, in.AreaOfInterest, in.AreaOfInterestName,
		in.ModelPackage, in.GISData, in.WKAoI))
}

func (r *Repo) Get(ctx context.Context, userDBID string, id int64) (*domain.Project, error) {
	const q = `
select id, user_id::text, name,
       coalesce(st_asgeojson(area_of_interest), ''),
       coalesce(area_of_interest_name, ''),
       is_private, model_package,
       coalesce(gis_data, ''), coalesce(wkaoi, ''),
       created_at, modified_at
from projects
where id = $1 and user_id = $2::uuid;
`
	return r.scanOne(r.db.QueryRow(ctx, q, id, userDBID))
}

func (r *Repo) List(ctx context.Context, userDBID string) ([]domain.Project, error) {
	const q = `
select id, user_id::text, name,
       coalesce(area_of_interest_name, ''),
       is_private, model_package,
       created_at, modified_at
from projects
where user_id = $1::uuid
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, userDBID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.AreaOfInterestName,
			&p.IsPrivate, &p.ModelPackage, &p.CreatedAt, &p.ModifiedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type UpdateProject struct {
	Name    string
	GISData *string
}

func (r *Repo) Update(ctx context.Context, userDBID string, id int64, in UpdateProject) (*domain.Project, error) {
	const q = `
update projects
set name = coalesce(nullif($3,''), name),
    gis_data = coalesce($4, gis_data),
    modified_at = now()
where id = $1 and user_id = $2::uuid
returning id, user_id::text, name,
          coalesce(st_asgeojson(area_of_interest), ''),
          coalesce(area_of_interest_name, ''),
          is_private, model_package,
          coalesce(gis_data, ''), coalesce(wkaoi, ''),
          created_at, modified_at;
`
	return r.scanOne(r.db.QueryRow(ctx, q, id, userDBID, in.Name, in.GISData))
}

// MakePublic flips the privacy flag; called by the export chain once the
// remote resource has been created.
func (r *Repo) MakePublic(ctx context.Context, id int64) error {
	const q = `update projects set is_private = false, modified_at = now() where id = $1;`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userDBID string, id int64) (bool, error) {
	const q = `delete from projects where id = $1 and user_id = $2::uuid;`
	ct, err := r.db.Exec(ctx, q, id, userDBID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) scanOne(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var aoi string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &aoi, &p.AreaOfInterestName,
		&p.IsPrivate, &p.ModelPackage, &p.GISData, &p.WKAoI,
		&p.CreatedAt, &p.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if aoi != "" {
		p.AreaOfInterest = []byte(aoi)
	}
	return &p, nil
}
