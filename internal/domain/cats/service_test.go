package cats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/twpayne/go-geom"

	"cats-graphql/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID      map[string]Cat
	seq       int
	createErr error
	dropID    bool // simula un store que no devuelve el registro creado
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Cat{}}
}

func (r *testRepo) Create(ctx context.Context, c Cat) (Cat, error) {
	if r.createErr != nil {
		return Cat{}, r.createErr
	}
	if r.dropID {
		return Cat{}, nil
	}
	r.seq++
	c.ID = fmt.Sprintf("cat-%d", r.seq)
	r.byID[c.ID] = c
	return c, nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) List(ctx context.Context) ([]Cat, error) {
	out := make([]Cat, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, owner string) ([]Cat, error) {
	out := make([]Cat, 0)
	for _, c := range r.byID {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *testRepo) ListWithin(ctx context.Context, area *geom.Polygon) ([]Cat, error) {
	out := make([]Cat, 0)
	for _, c := range r.byID {
		if Covers(area, c.Location) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, id string, p Patch) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	c = p.Apply(c)
	r.byID[id] = c
	return c, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	delete(r.byID, id)
	return c, nil
}

// -------------------------
// Helpers
// -------------------------

var (
	owner    = auth.Caller{ID: "owner-1", Role: auth.RoleUser, Token: "t-owner"}
	stranger = auth.Caller{ID: "other-1", Role: auth.RoleUser, Token: "t-other"}
	admin    = auth.Caller{ID: "admin-1", Role: auth.RoleAdmin, Token: "t-admin"}
)

func validInput() CreateInput {
	return CreateInput{
		Name:      "Miri",
		Weight:    4.2,
		Birthdate: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		Filename:  "miri.jpg",
		Location:  NewPoint(60.17, 24.94),
	}
}

func seedCat(t *testing.T, svc *Service, caller auth.Caller) Cat {
	t.Helper()
	c, err := svc.Create(context.Background(), caller, validInput())
	if err != nil {
		t.Fatalf("seed Create error: %v", err)
	}
	return c
}

func strPtr(s string) *string { return &s }

// -------------------------
// Tests
// -------------------------

func TestService_Create_OwnerIsAlwaysCaller(t *testing.T) {
	svc := NewService(newTestRepo())

	in := validInput()
	in.Owner = "someone-else"

	c, err := svc.Create(context.Background(), owner, in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if c.Owner != owner.ID {
		t.Fatalf("expected owner %q, got %q", owner.ID, c.Owner)
	}
}

func TestService_Create_RoundTrip(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	in := validInput()
	created, err := svc.Create(context.Background(), owner, in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Name != in.Name || got.Weight != in.Weight || !got.Birthdate.Equal(in.Birthdate) ||
		got.Filename != in.Filename || got.Location.Lat() != in.Location.Lat() || got.Location.Lng() != in.Location.Lng() {
		t.Fatalf("round trip mismatch: in=%#v got=%#v", in, got)
	}
	if got.CreatedAt != now {
		t.Fatalf("expected CreatedAt to be now")
	}
}

func TestService_Create_RequiresToken(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Create(context.Background(), auth.Caller{ID: "owner-1"}, validInput())
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestService_Create_InvalidInput(t *testing.T) {
	svc := NewService(newTestRepo())

	in := validInput()
	in.Name = "  "
	if _, err := svc.Create(context.Background(), owner, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}

	in = validInput()
	in.Location = Point{Type: "Point", Coordinates: []float64{200, 10}}
	if _, err := svc.Create(context.Background(), owner, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad location, got %v", err)
	}
}

func TestService_Create_PersistenceReturnsNothing(t *testing.T) {
	repo := newTestRepo()
	repo.dropID = true
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), owner, validInput()); !errors.Is(err, ErrCreationFailed) {
		t.Fatalf("expected ErrCreationFailed, got %v", err)
	}

	repo.dropID = false
	repo.createErr = errors.New("write concern")
	if _, err := svc.Create(context.Background(), owner, validInput()); !errors.Is(err, ErrCreationFailed) {
		t.Fatalf("expected ErrCreationFailed on store error, got %v", err)
	}
}

func TestService_Update_OwnerOnly(t *testing.T) {
	svc := NewService(newTestRepo())
	c := seedCat(t, svc, owner)

	cases := []struct {
		name   string
		caller auth.Caller
		ok     bool
	}{
		{"owner", owner, true},
		{"owner with padded id", auth.Caller{ID: " OWNER-1 ", Token: "x"}, true},
		{"stranger", stranger, false},
		{"admin is not owner", admin, false},
		{"owner without token", auth.Caller{ID: owner.ID}, false},
	}

	for _, tc := range cases {
		_, err := svc.Update(context.Background(), tc.caller, c.ID, UpdateInput{Name: strPtr("Renamed")})
		if tc.ok && err != nil {
			t.Fatalf("%s: expected success, got %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("%s: expected ErrNotAuthorized, got %v", tc.name, err)
		}
	}
}

func TestService_Update_AppliesOnlyGivenFields(t *testing.T) {
	svc := NewService(newTestRepo())
	c := seedCat(t, svc, owner)

	w := 5.5
	updated, err := svc.Update(context.Background(), owner, c.ID, UpdateInput{Weight: &w})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Weight != 5.5 || updated.Name != c.Name || updated.Filename != c.Filename {
		t.Fatalf("unexpected update result %#v", updated)
	}

	if _, err := svc.Update(context.Background(), owner, c.ID, UpdateInput{Name: strPtr(" ")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	neg := -1.0
	if _, err := svc.Update(context.Background(), owner, c.ID, UpdateInput{Weight: &neg}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative weight, got %v", err)
	}
}

func TestService_Update_MissingCat(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.Update(context.Background(), owner, "nope", UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// sin token se rechaza antes de buscar
	if _, err := svc.Update(context.Background(), auth.Caller{}, "nope", UpdateInput{}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestService_Delete_ReturnsSnapshot(t *testing.T) {
	svc := NewService(newTestRepo())
	c := seedCat(t, svc, owner)

	if _, err := svc.Delete(context.Background(), stranger, c.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for stranger, got %v", err)
	}

	deleted, err := svc.Delete(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted.ID != c.ID || deleted.Name != c.Name {
		t.Fatalf("expected pre-deletion snapshot, got %#v", deleted)
	}
	if _, err := svc.GetByID(context.Background(), c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cat gone, got %v", err)
	}
}

func TestService_AdminOps_RoleOnly(t *testing.T) {
	svc := NewService(newTestRepo())
	c := seedCat(t, svc, owner)

	notAdmins := []auth.Caller{
		owner,
		{ID: "x", Role: "superadmin", Token: "t"},
		{ID: "x", Role: "admin,user", Token: "t"},
		{ID: "x", Role: auth.RoleAdmin}, // sin token
	}
	for _, caller := range notAdmins {
		if _, err := svc.UpdateAsAdmin(context.Background(), caller, c.ID, UpdateInput{Name: strPtr("x")}); !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("UpdateAsAdmin(%#v): expected ErrNotAuthorized, got %v", caller, err)
		}
		if _, err := svc.DeleteAsAdmin(context.Background(), caller, c.ID); !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("DeleteAsAdmin(%#v): expected ErrNotAuthorized, got %v", caller, err)
		}
	}

	updated, err := svc.UpdateAsAdmin(context.Background(), admin, c.ID, UpdateInput{Name: strPtr("By admin")})
	if err != nil {
		t.Fatalf("UpdateAsAdmin error: %v", err)
	}
	if updated.Name != "By admin" || updated.Owner != owner.ID {
		t.Fatalf("unexpected admin update %#v", updated)
	}

	if _, err := svc.DeleteAsAdmin(context.Background(), admin, c.ID); err != nil {
		t.Fatalf("DeleteAsAdmin error: %v", err)
	}
	if _, err := svc.DeleteAsAdmin(context.Background(), admin, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestService_ListByOwner(t *testing.T) {
	svc := NewService(newTestRepo())
	seedCat(t, svc, owner)
	seedCat(t, svc, owner)
	seedCat(t, svc, stranger)

	got, err := svc.ListByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cats, got %d", len(got))
	}
}

func TestService_ListByArea(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	place := func(lat, lng float64) {
		in := validInput()
		in.Location = NewPoint(lat, lng)
		if _, err := svc.Create(context.Background(), owner, in); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	place(60.2, 24.9) // dentro
	place(61.0, 25.0) // esquina TR, borde incluido
	place(59.0, 24.0) // esquina BL, borde incluido
	place(62.0, 24.5) // fuera (norte)

	got, err := svc.ListByArea(context.Background(), Bounds{
		TopRight:   Coordinates{Lat: 61.0, Lng: 25.0},
		BottomLeft: Coordinates{Lat: 59.0, Lng: 24.0},
	})
	if err != nil {
		t.Fatalf("ListByArea error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 cats in area, got %d", len(got))
	}

	_, err = svc.ListByArea(context.Background(), Bounds{
		TopRight:   Coordinates{Lat: 59.0, Lng: 24.0},
		BottomLeft: Coordinates{Lat: 61.0, Lng: 25.0},
	})
	if !errors.Is(err, ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds for reversed corners, got %v", err)
	}
}
