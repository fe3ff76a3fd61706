package cats

import (
	"context"
	"time"

	"github.com/twpayne/go-geom"
)

// Repository es el document store de cats. El adapter asigna el ID en Create
// y devuelve ErrNotFound cuando el id no existe (o no es un id válido para él).
type Repository interface {
	Create(ctx context.Context, c Cat) (Cat, error)
	GetByID(ctx context.Context, id string) (Cat, error)
	List(ctx context.Context) ([]Cat, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Cat, error)
	ListWithin(ctx context.Context, area *geom.Polygon) ([]Cat, error)

	// Update es find-and-update: devuelve el documento ya modificado.
	Update(ctx context.Context, id string, p Patch) (Cat, error)
	// Delete es find-and-delete: devuelve el documento previo al borrado.
	Delete(ctx context.Context, id string) (Cat, error)
}

// Patch: nil = no tocar.
type Patch struct {
	Name      *string
	Weight    *float64
	Birthdate *time.Time
	Filename  *string
	Location  *Point

	UpdatedAt time.Time
}

// Apply aplica el patch sobre c. Lo usan los adapters que no tienen update nativo.
func (p Patch) Apply(c Cat) Cat {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Weight != nil {
		c.Weight = *p.Weight
	}
	if p.Birthdate != nil {
		c.Birthdate = *p.Birthdate
	}
	if p.Filename != nil {
		c.Filename = *p.Filename
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	if !p.UpdatedAt.IsZero() {
		c.UpdatedAt = p.UpdatedAt
	}
	return c
}
