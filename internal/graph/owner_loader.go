package graph

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cats-graphql/internal/adapters/identity"
	"cats-graphql/internal/domain/cats"
)

const primeConcurrency = 8

type UserLookup interface {
	GetUser(ctx context.Context, id string) (identity.Document, error)
}

type ownerResult struct {
	doc identity.Document
	err error
}

// OwnerLoader resuelve Cat.owner una vez por id dentro de un request.
// El resultado es el mismo que hacer un GetUser por cat.
type OwnerLoader struct {
	users UserLookup

	group singleflight.Group

	mu   sync.Mutex
	memo map[string]ownerResult
}

func NewOwnerLoader(users UserLookup) *OwnerLoader {
	return &OwnerLoader{
		users: users,
		memo:  make(map[string]ownerResult),
	}
}

func (l *OwnerLoader) Load(ctx context.Context, id string) (identity.Document, error) {
	id = strings.TrimSpace(id)

	l.mu.Lock()
	r, ok := l.memo[id]
	l.mu.Unlock()
	if ok {
		return r.doc, r.err
	}

	v, _, _ := l.group.Do(id, func() (interface{}, error) {
		doc, err := l.users.GetUser(ctx, id)
		res := ownerResult{doc: doc, err: err}
		// un ctx cancelado no es una respuesta del upstream; no se memoiza.
		if ctx.Err() == nil {
			l.mu.Lock()
			l.memo[id] = res
			l.mu.Unlock()
		}
		return res, nil
	})
	res := v.(ownerResult)
	return res.doc, res.err
}

// Prime precarga los owners de una lista de cats en paralelo (acotado).
// Los errores quedan memoizados y salen cuando se resuelve cada Cat.owner.
func (l *OwnerLoader) Prime(ctx context.Context, list []cats.Cat) {
	seen := make(map[string]struct{}, len(list))

	g := new(errgroup.Group)
	g.SetLimit(primeConcurrency)
	for _, c := range list {
		id := strings.TrimSpace(c.Owner)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		g.Go(func() error {
			_, _ = l.Load(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

type loaderKey struct{}

func withOwnerLoader(ctx context.Context, l *OwnerLoader) context.Context {
	return context.WithValue(ctx, loaderKey{}, l)
}

func ownerLoaderFrom(ctx context.Context) (*OwnerLoader, bool) {
	l, ok := ctx.Value(loaderKey{}).(*OwnerLoader)
	return l, ok && l != nil
}
