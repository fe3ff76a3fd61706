package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"cats-graphql/internal/domain/cats"
)

const catColumns = `
	id, cat_name, weight, birthdate, filename,
	ST_AsGeoJSON(location), owner,
	created_at, updated_at`

type CatsRepo struct {
	db *sql.DB
}

func NewCatsRepo(db *sql.DB) *CatsRepo {
	return &CatsRepo{db: db}
}

func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) (cats.Cat, error) {
	loc, err := encodePoint(c.Location)
	if err != nil {
		return cats.Cat{}, err
	}
	c.ID = uuid.NewString()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO cats (
			id, cat_name, weight, birthdate, filename,
			location, owner,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5, ST_SetSRID(ST_GeomFromGeoJSON($6),4326), $7,$8,$9)
		RETURNING `+catColumns,
		c.ID,
		c.Name,
		c.Weight,
		c.Birthdate,
		c.Filename,
		loc,
		c.Owner,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return scanCat(row)
}

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cats.Cat{}, cats.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+catColumns+` FROM cats WHERE id = $1`, id)
	return scanCat(row)
}

func (r *CatsRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.query(ctx, `SELECT `+catColumns+` FROM cats ORDER BY created_at ASC, id ASC`)
}

func (r *CatsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]cats.Cat, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+catColumns+`
		FROM cats
		WHERE owner = $1
		ORDER BY created_at ASC, id ASC
	`, ownerUserID)
}

// ListWithin usa ST_Covers: los puntos sobre el borde entran.
func (r *CatsRepo) ListWithin(ctx context.Context, area *geom.Polygon) ([]cats.Cat, error) {
	if area == nil {
		return nil, cats.ErrInvalidBounds
	}
	b, err := geojson.Marshal(area)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode polygon: %w", err)
	}
	return r.query(ctx, `
		SELECT `+catColumns+`
		FROM cats
		WHERE ST_Covers(ST_SetSRID(ST_GeomFromGeoJSON($1),4326), location)
		ORDER BY created_at ASC, id ASC
	`, string(b))
}

func (r *CatsRepo) Update(ctx context.Context, id string, p cats.Patch) (cats.Cat, error) {
	var loc *string
	if p.Location != nil {
		s, err := encodePoint(*p.Location)
		if err != nil {
			return cats.Cat{}, err
		}
		loc = &s
	}
	var updatedAt any
	if !p.UpdatedAt.IsZero() {
		updatedAt = p.UpdatedAt
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE cats
		SET
			cat_name = COALESCE($2::text, cat_name),
			weight = COALESCE($3::double precision, weight),
			birthdate = COALESCE($4::timestamptz, birthdate),
			filename = COALESCE($5::text, filename),
			location = COALESCE(ST_SetSRID(ST_GeomFromGeoJSON($6::text),4326), location),
			updated_at = COALESCE($7::timestamptz, updated_at)
		WHERE id = $1
		RETURNING `+catColumns,
		strings.TrimSpace(id),
		p.Name,
		p.Weight,
		p.Birthdate,
		p.Filename,
		loc,
		updatedAt,
	)
	return scanCat(row)
}

func (r *CatsRepo) Delete(ctx context.Context, id string) (cats.Cat, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM cats WHERE id = $1 RETURNING `+catColumns, strings.TrimSpace(id))
	return scanCat(row)
}

func (r *CatsRepo) query(ctx context.Context, q string, args ...any) ([]cats.Cat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cats.Cat, 0)
	for rows.Next() {
		c, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCat(row rowScanner) (cats.Cat, error) {
	var c cats.Cat
	var loc string
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Weight,
		&c.Birthdate,
		&c.Filename,
		&loc,
		&c.Owner,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cats.Cat{}, cats.ErrNotFound
		}
		return cats.Cat{}, err
	}

	p, err := decodePoint(loc)
	if err != nil {
		return cats.Cat{}, err
	}
	c.Location = p
	return c, nil
}

func encodePoint(p cats.Point) (string, error) {
	if len(p.Coordinates) != 2 {
		return "", fmt.Errorf("postgres: point needs 2 coordinates, got %d", len(p.Coordinates))
	}
	pt, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{p.Lng(), p.Lat()})
	if err != nil {
		return "", err
	}
	b, err := geojson.Marshal(pt)
	if err != nil {
		return "", fmt.Errorf("postgres: encode point: %w", err)
	}
	return string(b), nil
}

func decodePoint(s string) (cats.Point, error) {
	var g geom.T
	if err := geojson.Unmarshal([]byte(s), &g); err != nil {
		return cats.Point{}, fmt.Errorf("postgres: decode location: %w", err)
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return cats.Point{}, fmt.Errorf("postgres: location is %T, want point", g)
	}
	return cats.NewPoint(pt.Y(), pt.X()), nil
}
