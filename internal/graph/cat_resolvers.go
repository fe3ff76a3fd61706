package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"cats-graphql/internal/domain/cats"
	"cats-graphql/internal/middleware"
	"cats-graphql/internal/platform/apperror"
)

func (s *Schema) resolveCats(p graphql.ResolveParams) (interface{}, error) {
	list, err := s.cats.List(p.Context)
	if err != nil {
		return nil, err
	}
	s.primeOwners(p, list)
	return list, nil
}

// catById devuelve null si no existe.
func (s *Schema) resolveCatByID(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	c, err := s.cats.GetByID(p.Context, id)
	if errors.Is(err, cats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Schema) resolveCatsByOwner(p graphql.ResolveParams) (interface{}, error) {
	ownerID, _ := p.Args["ownerId"].(string)
	list, err := s.cats.ListByOwner(p.Context, ownerID)
	if err != nil {
		return nil, err
	}
	s.primeOwners(p, list)
	return list, nil
}

func (s *Schema) resolveCatsByArea(p graphql.ResolveParams) (interface{}, error) {
	tr, err := coordinatesArg(p.Args["topRight"])
	if err != nil {
		return nil, err
	}
	bl, err := coordinatesArg(p.Args["bottomLeft"])
	if err != nil {
		return nil, err
	}

	list, err := s.cats.ListByArea(p.Context, cats.Bounds{TopRight: tr, BottomLeft: bl})
	if err != nil {
		return nil, err
	}
	s.primeOwners(p, list)
	return list, nil
}

func (s *Schema) resolveCreateCat(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)

	loc, err := locationArg(p.Args["location"])
	if err != nil {
		return nil, err
	}
	in := cats.CreateInput{
		Location: loc,
	}
	in.Name, _ = p.Args["cat_name"].(string)
	in.Weight, _ = p.Args["weight"].(float64)
	in.Birthdate, _ = p.Args["birthdate"].(time.Time)
	in.Filename, _ = p.Args["filename"].(string)

	return s.cats.Create(p.Context, caller, in)
}

func (s *Schema) resolveUpdateCat(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)

	in, err := updateInputArgs(p.Args)
	if err != nil {
		return nil, err
	}
	return s.cats.Update(p.Context, caller, id, in)
}

func (s *Schema) resolveDeleteCat(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)
	return s.cats.Delete(p.Context, caller, id)
}

func (s *Schema) resolveUpdateCatAsAdmin(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)

	in, err := updateInputArgs(p.Args)
	if err != nil {
		return nil, err
	}
	return s.cats.UpdateAsAdmin(p.Context, caller, id, in)
}

func (s *Schema) resolveDeleteCatAsAdmin(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)
	return s.cats.DeleteAsAdmin(p.Context, caller, id)
}

// resolveCatOwner hace un lookup al servicio de identidad por cat
// (deduplicado por el OwnerLoader del request si existe).
func (s *Schema) resolveCatOwner(p graphql.ResolveParams) (interface{}, error) {
	var owner string
	switch c := p.Source.(type) {
	case cats.Cat:
		owner = c.Owner
	case *cats.Cat:
		owner = c.Owner
	default:
		return nil, nil
	}

	var (
		doc interface{}
		err error
	)
	if l, ok := ownerLoaderFrom(p.Context); ok {
		doc, err = l.Load(p.Context, owner)
	} else {
		doc, err = s.identity.GetUser(p.Context, owner)
	}
	if err != nil {
		ae := apperror.WithOperation(toGraphQLError(err), "Cat.owner")
		s.metrics.ObserveOperation("Cat.owner", string(ae.Kind))
		return nil, ae
	}
	return doc, nil
}

// primeOwners solo precarga si la query pide owner.
func (s *Schema) primeOwners(p graphql.ResolveParams, list []cats.Cat) {
	if len(list) == 0 || !selectsField(p.Info, "owner") {
		return
	}
	if l, ok := ownerLoaderFrom(p.Context); ok {
		l.Prime(p.Context, list)
	}
}

func selectsField(info graphql.ResolveInfo, name string) bool {
	for _, f := range info.FieldASTs {
		if f == nil || f.SelectionSet == nil {
			continue
		}
		for _, sel := range f.SelectionSet.Selections {
			if field, ok := sel.(*ast.Field); ok && field.Name != nil && field.Name.Value == name {
				return true
			}
		}
	}
	return false
}

func coordinatesArg(v interface{}) (cats.Coordinates, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return cats.Coordinates{}, fmt.Errorf("%w: coordinates required", cats.ErrInvalidBounds)
	}
	lat, okLat := toFloat(m["lat"])
	lng, okLng := toFloat(m["lng"])
	if !okLat || !okLng {
		return cats.Coordinates{}, fmt.Errorf("%w: lat and lng required", cats.ErrInvalidBounds)
	}
	return cats.Coordinates{Lat: lat, Lng: lng}, nil
}

func locationArg(v interface{}) (cats.Point, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return cats.Point{}, fmt.Errorf("%w: location required", cats.ErrInvalidInput)
	}
	typ, _ := m["type"].(string)
	if typ == "" {
		typ = cats.PointType
	}

	raw, _ := m["coordinates"].([]interface{})
	coords := make([]float64, 0, len(raw))
	for _, c := range raw {
		f, ok := toFloat(c)
		if !ok {
			return cats.Point{}, fmt.Errorf("%w: coordinates must be numbers", cats.ErrInvalidInput)
		}
		coords = append(coords, f)
	}
	return cats.Point{Type: typ, Coordinates: coords}, nil
}

func updateInputArgs(args map[string]interface{}) (cats.UpdateInput, error) {
	var in cats.UpdateInput
	if v, ok := args["cat_name"].(string); ok {
		in.Name = &v
	}
	if v, ok := toFloat(args["weight"]); ok {
		in.Weight = &v
	}
	if v, ok := args["birthdate"].(time.Time); ok {
		in.Birthdate = &v
	}
	if v, ok := args["filename"].(string); ok {
		in.Filename = &v
	}
	if raw, ok := args["location"]; ok && raw != nil {
		loc, err := locationArg(raw)
		if err != nil {
			return cats.UpdateInput{}, err
		}
		in.Location = &loc
	}
	return in, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
