// Package graph arma el schema GraphQL (graphql-go) sobre cats.Service y el
// proxy de identidad.
package graph

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"cats-graphql/internal/adapters/identity"
	"cats-graphql/internal/domain/cats"
	"cats-graphql/internal/platform/apperror"
	"cats-graphql/internal/platform/logger"
	"cats-graphql/internal/platform/metrics"
	"cats-graphql/internal/ports/auth"
)

// Identity es lo que el schema necesita del servicio de identidad.
type Identity interface {
	UserLookup
	ListUsers(ctx context.Context) ([]identity.Document, error)
	CheckToken(ctx context.Context, token string) (identity.Document, error)
	Login(ctx context.Context, cred identity.Credentials) (identity.Document, error)
	Register(ctx context.Context, user identity.Document) (identity.Document, error)
	UpdateSelf(ctx context.Context, caller auth.Caller, user identity.Document) (identity.Document, error)
	DeleteSelf(ctx context.Context, caller auth.Caller) (identity.Document, error)
	UpdateAsAdmin(ctx context.Context, caller auth.Caller, id string, user identity.Document) (identity.Document, error)
	DeleteAsAdmin(ctx context.Context, caller auth.Caller, id string) (identity.Document, error)
}

type Options struct {
	Cats     *cats.Service
	Identity Identity
	Metrics  *metrics.Metrics
	Logger   logger.Logger
}

type Schema struct {
	schema   graphql.Schema
	cats     *cats.Service
	identity Identity
	metrics  *metrics.Metrics
	log      logger.Logger
}

func NewSchema(opts Options) (*Schema, error) {
	if opts.Cats == nil {
		return nil, fmt.Errorf("graph: cats service is required")
	}
	if opts.Identity == nil {
		return nil, fmt.Errorf("graph: identity client is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Schema{
		cats:     opts.Cats,
		identity: opts.Identity,
		metrics:  opts.Metrics,
		log:      log,
	}

	userType := defineUserType()
	locationType := defineLocationType()
	catType := s.defineCatType(locationType, userType)
	tokenMessageType := defineTokenMessageType(userType)
	userMessageType := defineUserMessageType(userType)

	coordinatesInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "Coordinates",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
	locationInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LocationInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"type":        &graphql.InputObjectFieldConfig{Type: graphql.String, DefaultValue: cats.PointType},
			"coordinates": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))},
		},
	})
	credentialsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "Credentials",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	userInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"user_name": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	userModify := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserModify",
		Fields: graphql.InputObjectConfigFieldMap{
			"user_name": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"email":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"password":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}
	catPatchArgs := graphql.FieldConfigArgument{
		"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		"cat_name":  &graphql.ArgumentConfig{Type: graphql.String},
		"weight":    &graphql.ArgumentConfig{Type: graphql.Float},
		"birthdate": &graphql.ArgumentConfig{Type: DateTime},
		"filename":  &graphql.ArgumentConfig{Type: graphql.String},
		"location":  &graphql.ArgumentConfig{Type: locationInput},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"cats": &graphql.Field{
				Type:    graphql.NewList(catType),
				Resolve: s.resolve("cats", s.resolveCats),
			},
			"catById": &graphql.Field{
				Type:    catType,
				Args:    idArg,
				Resolve: s.resolve("catById", s.resolveCatByID),
			},
			"catsByOwner": &graphql.Field{
				Type: graphql.NewList(catType),
				Args: graphql.FieldConfigArgument{
					"ownerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: s.resolve("catsByOwner", s.resolveCatsByOwner),
			},
			"catsByArea": &graphql.Field{
				Type: graphql.NewList(catType),
				Args: graphql.FieldConfigArgument{
					"topRight":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(coordinatesInput)},
					"bottomLeft": &graphql.ArgumentConfig{Type: graphql.NewNonNull(coordinatesInput)},
				},
				Resolve: s.resolve("catsByArea", s.resolveCatsByArea),
			},
			"users": &graphql.Field{
				Type:    graphql.NewList(userType),
				Resolve: s.resolve("users", s.resolveUsers),
			},
			"userById": &graphql.Field{
				Type:    userType,
				Args:    idArg,
				Resolve: s.resolve("userById", s.resolveUserByID),
			},
			"checkToken": &graphql.Field{
				Type:    tokenMessageType,
				Resolve: s.resolve("checkToken", s.resolveCheckToken),
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createCat": &graphql.Field{
				Type: catType,
				Args: graphql.FieldConfigArgument{
					"cat_name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"weight":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"birthdate": &graphql.ArgumentConfig{Type: graphql.NewNonNull(DateTime)},
					"filename":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"location":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(locationInput)},
					"owner": &graphql.ArgumentConfig{
						Type:        graphql.ID,
						Description: "Ignored: the owner is always the caller.",
					},
				},
				Resolve: s.resolve("createCat", s.resolveCreateCat),
			},
			"updateCat": &graphql.Field{
				Type:    catType,
				Args:    catPatchArgs,
				Resolve: s.resolve("updateCat", s.resolveUpdateCat),
			},
			"deleteCat": &graphql.Field{
				Type:    catType,
				Args:    idArg,
				Resolve: s.resolve("deleteCat", s.resolveDeleteCat),
			},
			"updateCatAsAdmin": &graphql.Field{
				Type:    catType,
				Args:    catPatchArgs,
				Resolve: s.resolve("updateCatAsAdmin", s.resolveUpdateCatAsAdmin),
			},
			"deleteCatAsAdmin": &graphql.Field{
				Type:    catType,
				Args:    idArg,
				Resolve: s.resolve("deleteCatAsAdmin", s.resolveDeleteCatAsAdmin),
			},
			"login": &graphql.Field{
				Type: tokenMessageType,
				Args: graphql.FieldConfigArgument{
					"credentials": &graphql.ArgumentConfig{Type: graphql.NewNonNull(credentialsInput)},
				},
				Resolve: s.resolve("login", s.resolveLogin),
			},
			"register": &graphql.Field{
				Type: userMessageType,
				Args: graphql.FieldConfigArgument{
					"user": &graphql.ArgumentConfig{Type: graphql.NewNonNull(userInput)},
				},
				Resolve: s.resolve("register", s.resolveRegister),
			},
			"updateUser": &graphql.Field{
				Type: userMessageType,
				Args: graphql.FieldConfigArgument{
					"user": &graphql.ArgumentConfig{Type: graphql.NewNonNull(userModify)},
				},
				Resolve: s.resolve("updateUser", s.resolveUpdateUser),
			},
			"deleteUser": &graphql.Field{
				Type:    userMessageType,
				Resolve: s.resolve("deleteUser", s.resolveDeleteUser),
			},
			"updateUserAsAdmin": &graphql.Field{
				Type: userMessageType,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"user": &graphql.ArgumentConfig{Type: graphql.NewNonNull(userModify)},
				},
				Resolve: s.resolve("updateUserAsAdmin", s.resolveUpdateUserAsAdmin),
			},
			"deleteUserAsAdmin": &graphql.Field{
				Type:    userMessageType,
				Args:    idArg,
				Resolve: s.resolve("deleteUserAsAdmin", s.resolveDeleteUserAsAdmin),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: build schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

func (s *Schema) GraphQL() graphql.Schema {
	return s.schema
}

// resolve envuelve un resolver raíz: traduce el error, anota la operación
// (path) y cuenta el resultado. El error se devuelve sin envolver para que
// graphql-go lea Extensions().
func (s *Schema) resolve(field string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		out, err := fn(p)
		if err != nil {
			ae := apperror.WithOperation(toGraphQLError(err), field)
			s.metrics.ObserveOperation(field, string(ae.Kind))
			if ae.Kind == apperror.KindInternal {
				s.log.Error("resolver failed", map[string]any{
					"field": field,
					"err":   ae.Detail(),
				})
			}
			return nil, ae
		}
		s.metrics.ObserveOperation(field, "ok")
		return out, nil
	}
}

// ---- Types ----

func defineUserType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return userID(p.Source), nil
				},
			},
			"user_name": &graphql.Field{Type: graphql.String, Resolve: docField("user_name")},
			"email":     &graphql.Field{Type: graphql.String, Resolve: docField("email")},
			"role":      &graphql.Field{Type: graphql.String, Resolve: docField("role")},
		},
	})
}

func defineLocationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"type": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, ok := p.Source.(cats.Point)
					if !ok {
						return nil, nil
					}
					return pt.Type, nil
				},
			},
			"coordinates": &graphql.Field{
				Type: graphql.NewList(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, ok := p.Source.(cats.Point)
					if !ok {
						return nil, nil
					}
					return pt.Coordinates, nil
				},
			},
		},
	})
}

func (s *Schema) defineCatType(locationType, userType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Cat",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.ID, Resolve: catField(func(c cats.Cat) interface{} { return c.ID })},
			"cat_name":  &graphql.Field{Type: graphql.String, Resolve: catField(func(c cats.Cat) interface{} { return c.Name })},
			"weight":    &graphql.Field{Type: graphql.Float, Resolve: catField(func(c cats.Cat) interface{} { return c.Weight })},
			"birthdate": &graphql.Field{Type: DateTime, Resolve: catField(func(c cats.Cat) interface{} { return c.Birthdate })},
			"filename":  &graphql.Field{Type: graphql.String, Resolve: catField(func(c cats.Cat) interface{} { return c.Filename })},
			"location":  &graphql.Field{Type: locationType, Resolve: catField(func(c cats.Cat) interface{} { return c.Location })},
			"owner": &graphql.Field{
				Type:    userType,
				Resolve: s.resolveCatOwner,
			},
		},
	})
}

func defineTokenMessageType(userType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenMessage",
		Fields: graphql.Fields{
			"token":   &graphql.Field{Type: graphql.String, Resolve: docField("token")},
			"message": &graphql.Field{Type: graphql.String, Resolve: docField("message")},
			"user":    &graphql.Field{Type: userType, Resolve: docField("user")},
		},
	})
}

func defineUserMessageType(userType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "UserMessage",
		Fields: graphql.Fields{
			"message": &graphql.Field{Type: graphql.String, Resolve: docField("message")},
			"user":    &graphql.Field{Type: userType, Resolve: docField("user")},
		},
	})
}

func catField(get func(cats.Cat) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		switch c := p.Source.(type) {
		case cats.Cat:
			return get(c), nil
		case *cats.Cat:
			if c == nil {
				return nil, nil
			}
			return get(*c), nil
		}
		return nil, nil
	}
}

func docField(key string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		doc, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		return doc[key], nil
	}
}

// userID acepta "id" o "_id" (el servicio de identidad usa Mongo).
func userID(source interface{}) interface{} {
	doc, ok := source.(map[string]interface{})
	if !ok {
		return nil
	}
	if v, ok := doc["id"]; ok && v != nil {
		return v
	}
	return doc["_id"]
}
