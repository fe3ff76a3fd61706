package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"

	"cats-graphql/internal/domain/cats"
)

type catRepo struct {
	mu   sync.RWMutex
	byID map[string]cats.Cat
}

func NewCatRepo() cats.Repository {
	return &catRepo{
		byID: make(map[string]cats.Cat),
	}
}

func (r *catRepo) Create(ctx context.Context, c cats.Cat) (cats.Cat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = uuid.NewString()
	c = clone(c)
	r.byID[c.ID] = c
	return clone(c), nil
}

func (r *catRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	return clone(c), nil
}

func (r *catRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.filter(func(cats.Cat) bool { return true }), nil
}

func (r *catRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]cats.Cat, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	return r.filter(func(c cats.Cat) bool { return c.Owner == ownerUserID }), nil
}

func (r *catRepo) ListWithin(ctx context.Context, area *geom.Polygon) ([]cats.Cat, error) {
	return r.filter(func(c cats.Cat) bool { return cats.Covers(area, c.Location) }), nil
}

func (r *catRepo) Update(ctx context.Context, id string, p cats.Patch) (cats.Cat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	c = clone(p.Apply(c))
	r.byID[id] = c
	return clone(c), nil
}

func (r *catRepo) Delete(ctx context.Context, id string) (cats.Cat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	delete(r.byID, id)
	return c, nil
}

// filter devuelve copias ordenadas por CreatedAt (orden de inserción estable).
func (r *catRepo) filter(keep func(cats.Cat) bool) []cats.Cat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cats.Cat, 0)
	for _, c := range r.byID {
		if keep(c) {
			out = append(out, clone(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// clone evita compartir el slice de coordenadas con el caller.
func clone(c cats.Cat) cats.Cat {
	if c.Location.Coordinates != nil {
		c.Location.Coordinates = append([]float64(nil), c.Location.Coordinates...)
	}
	return c
}
