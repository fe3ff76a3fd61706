package cats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"cats-graphql/internal/ports/auth"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("cat not found")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrCreationFailed = errors.New("cat not created")
)

type Service struct {
	repo     Repository
	now      func() time.Time
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreateInput struct {
	Name      string    `validate:"required"`
	Weight    float64   `validate:"gte=0"`
	Birthdate time.Time `validate:"required"`
	Filename  string    `validate:"required"`
	Location  Point

	// Owner se ignora siempre: el dueño es el caller.
	Owner string `validate:"-"`
}

type UpdateInput struct {
	Name      *string
	Weight    *float64 `validate:"omitempty,gte=0"`
	Birthdate *time.Time
	Filename  *string
	Location  *Point `validate:"omitempty"`
}

func (s *Service) List(ctx context.Context) ([]Cat, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Cat{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Cat, error) {
	return s.repo.ListByOwner(ctx, normalizeID(ownerUserID))
}

// ListByArea devuelve los cats cuyo location cae dentro del rectángulo,
// borde incluido.
func (s *Service) ListByArea(ctx context.Context, b Bounds) ([]Cat, error) {
	poly, err := b.Polygon()
	if err != nil {
		return nil, err
	}
	return s.repo.ListWithin(ctx, poly)
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, in CreateInput) (Cat, error) {
	if err := requireToken(caller); err != nil {
		return Cat{}, err
	}
	owner := normalizeID(caller.ID)
	if owner == "" {
		return Cat{}, ErrNotAuthorized
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Filename = strings.TrimSpace(in.Filename)
	if err := s.validateStruct(in); err != nil {
		return Cat{}, err
	}
	if err := validatePoint(in.Location); err != nil {
		return Cat{}, err
	}

	now := s.now()
	c := Cat{
		Name:      in.Name,
		Weight:    in.Weight,
		Birthdate: in.Birthdate,
		Filename:  in.Filename,
		Location:  in.Location,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Cat{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}
	if created.ID == "" {
		return Cat{}, ErrCreationFailed
	}
	return created, nil
}

// Update solo lo puede hacer el owner.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id string, in UpdateInput) (Cat, error) {
	if err := requireToken(caller); err != nil {
		return Cat{}, err
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Cat{}, err
	}
	if err := requireOwner(caller, current); err != nil {
		return Cat{}, err
	}
	return s.apply(ctx, current.ID, in)
}

// Delete solo lo puede hacer el owner. Devuelve el snapshot previo.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id string) (Cat, error) {
	if err := requireToken(caller); err != nil {
		return Cat{}, err
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Cat{}, err
	}
	if err := requireOwner(caller, current); err != nil {
		return Cat{}, err
	}
	return s.repo.Delete(ctx, current.ID)
}

func (s *Service) UpdateAsAdmin(ctx context.Context, caller auth.Caller, id string, in UpdateInput) (Cat, error) {
	if err := requireAdmin(caller); err != nil {
		return Cat{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Cat{}, ErrNotFound
	}
	return s.apply(ctx, id, in)
}

func (s *Service) DeleteAsAdmin(ctx context.Context, caller auth.Caller, id string) (Cat, error) {
	if err := requireAdmin(caller); err != nil {
		return Cat{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Cat{}, ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) apply(ctx context.Context, id string, in UpdateInput) (Cat, error) {
	// omitempty de validator no distingue puntero a "" de nil; lo chequeamos acá.
	for _, f := range []**string{&in.Name, &in.Filename} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			return Cat{}, ErrInvalidInput
		}
		*f = &v
	}
	if err := s.validateStruct(in); err != nil {
		return Cat{}, err
	}
	if in.Location != nil {
		if err := validatePoint(*in.Location); err != nil {
			return Cat{}, err
		}
	}

	return s.repo.Update(ctx, id, Patch{
		Name:      in.Name,
		Weight:    in.Weight,
		Birthdate: in.Birthdate,
		Filename:  in.Filename,
		Location:  in.Location,
		UpdatedAt: s.now(),
	})
}

func (s *Service) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func validatePoint(p Point) error {
	if p.Type != PointType || len(p.Coordinates) != 2 {
		return fmt.Errorf("%w: location must be a GeoJSON Point [lng, lat]", ErrInvalidInput)
	}
	if !(Coordinates{Lat: p.Lat(), Lng: p.Lng()}).inRange() {
		return fmt.Errorf("%w: location out of range", ErrInvalidInput)
	}
	return nil
}
