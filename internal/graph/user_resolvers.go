package graph

import (
	"github.com/graphql-go/graphql"

	"cats-graphql/internal/adapters/identity"
	"cats-graphql/internal/middleware"
)

// Todas las operaciones de usuario son un único request al servicio de
// identidad; la respuesta se devuelve tal cual.

func (s *Schema) resolveUsers(p graphql.ResolveParams) (interface{}, error) {
	return s.identity.ListUsers(p.Context)
}

func (s *Schema) resolveUserByID(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	return s.identity.GetUser(p.Context, id)
}

func (s *Schema) resolveCheckToken(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	return s.identity.CheckToken(p.Context, caller.Token)
}

func (s *Schema) resolveLogin(p graphql.ResolveParams) (interface{}, error) {
	m, _ := p.Args["credentials"].(map[string]interface{})
	cred := identity.Credentials{}
	cred.Username, _ = m["username"].(string)
	cred.Password, _ = m["password"].(string)
	return s.identity.Login(p.Context, cred)
}

func (s *Schema) resolveRegister(p graphql.ResolveParams) (interface{}, error) {
	return s.identity.Register(p.Context, documentArg(p.Args["user"]))
}

func (s *Schema) resolveUpdateUser(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	return s.identity.UpdateSelf(p.Context, caller, documentArg(p.Args["user"]))
}

func (s *Schema) resolveDeleteUser(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	return s.identity.DeleteSelf(p.Context, caller)
}

func (s *Schema) resolveUpdateUserAsAdmin(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)
	return s.identity.UpdateAsAdmin(p.Context, caller, id, documentArg(p.Args["user"]))
}

func (s *Schema) resolveDeleteUserAsAdmin(p graphql.ResolveParams) (interface{}, error) {
	caller, _ := middleware.GetCaller(p.Context)
	id, _ := p.Args["id"].(string)
	return s.identity.DeleteAsAdmin(p.Context, caller, id)
}

// documentArg copia solo los campos presentes del input.
func documentArg(v interface{}) identity.Document {
	m, _ := v.(map[string]interface{})
	doc := make(identity.Document, len(m))
	for k, val := range m {
		if val != nil {
			doc[k] = val
		}
	}
	return doc
}
