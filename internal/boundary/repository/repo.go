package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/model-my-watershed/mmw-backend/internal/boundary/domain"
)

// Repo runs boundary queries against PostGIS. Table names come from the
// static layer registry, never from request input, so they are safe to
// splice into SQL.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// LayerShape returns the shape with the given id as a GeoJSON Feature.
// HUC tables carry their code in a "huc" property.
func (r *Repo) LayerShape(ctx context.Context, layer domain.Layer, id int64) ([]byte, error) {
	properties := ""
	if strings.HasPrefix(layer.TableName, "boundary_huc") {
		properties = fmt.Sprintf("'huc', %s", layer.TableName[len(layer.TableName)-5:])
	}

	q := fmt.Sprintf(`
select json_build_object(
  'type', 'Feature',
  'id', id,
  'geometry', st_asgeojson(geom)::json,
  'properties', json_build_object(%s))
from %s
where id = $1;
`, properties, layer.TableName)

	var shape []byte
	if err := r.db.QueryRow(ctx, q, id).Scan(&shape); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShapeNotFound
		}
		return nil, err
	}
	return shape, nil
}

// SplitIntoHUC12s finds every HUC-12 whose code is prefixed by the parent
// boundary's HUC code. The parent column name (huc08, huc10) is derived from
// the layer's table name.
func (r *Repo) SplitIntoHUC12s(ctx context.Context, layer domain.Layer, id int64) ([]domain.Subunit, error) {
	parts := strings.SplitN(layer.TableName, "_", 2)
	if len(parts) != 2 {
		return nil, domain.ErrUnsupportedLayer
	}
	hucColumn := parts[1]

	q := fmt.Sprintf(`
select 'huc12__' || boundary_huc12.id,
       boundary_huc12.huc12,
       st_asgeojson(boundary_huc12.geom_detailed)
from boundary_huc12, %[1]s
where huc12 like (%[2]s || '%%')
and %[1]s.id = $1;
`, layer.TableName, hucColumn)

	rows, err := r.db.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Subunit, 0, 16)
	for rows.Next() {
		var s domain.Subunit
		var geom string
		if err := rows.Scan(&s.ID, &s.Code, &geom); err != nil {
			return nil, err
		}
		s.Geometry = []byte(geom)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SearchLayer runs a case-insensitive substring match against one layer's
// name field, capped at 3 hits. Rank and label tagging happens in the
// service; the query only knows the table.
func (r *Repo) SearchLayer(ctx context.Context, layer domain.Layer, term string) ([]domain.SearchResult, error) {
	q := fmt.Sprintf(`
select id, name, st_x(st_centroid(geom)), st_y(st_centroid(geom))
from %s
where upper(name) like upper($1)
limit 3;
`, layer.TableName)

	rows, err := r.db.Query(ctx, q, "%"+term+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SearchResult, 0, 3)
	for rows.Next() {
		var res domain.SearchResult
		if err := rows.Scan(&res.ID, &res.Text, &res.X, &res.Y); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
