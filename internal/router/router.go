package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "cats-graphql/docs"
	mem "cats-graphql/internal/adapters/storage/memory"
	"cats-graphql/internal/domain/cats"
	"cats-graphql/internal/graph"
	"cats-graphql/internal/middleware"
	"cats-graphql/internal/platform/logger"
	"cats-graphql/internal/platform/metrics"
	"cats-graphql/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, in-memory.
	CatsRepo cats.Repository

	Identity graph.Identity

	Logger   logger.Logger
	Metrics  *metrics.Metrics
	GraphiQL bool
}

func NewRouter(opts Options) (http.Handler, error) {
	if opts.Identity == nil {
		return nil, errors.New("router: identity client is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	repo := opts.CatsRepo
	if repo == nil {
		repo = mem.NewCatRepo()
	}

	schema, err := graph.NewSchema(graph.Options{
		Cats:     cats.NewService(repo),
		Identity: opts.Identity,
		Metrics:  opts.Metrics,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", health)
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthContext(opts.AuthVerifier))

		gql := schema.Handler(opts.GraphiQL)
		r.Get("/graphql", gql.ServeHTTP)
		r.Post("/graphql", gql.ServeHTTP)
	})

	return r, nil
}

// health godoc
// @Summary Liveness probe
// @Tags ops
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
