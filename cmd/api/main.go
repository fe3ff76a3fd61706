package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cats-graphql/internal/adapters/identity"
	mongostore "cats-graphql/internal/adapters/storage/mongo"
	pg "cats-graphql/internal/adapters/storage/postgres"
	"cats-graphql/internal/domain/cats"
	"cats-graphql/internal/platform/config"
	"cats-graphql/internal/platform/logger"
	"cats-graphql/internal/platform/metrics"
	"cats-graphql/internal/ports/auth"
	"cats-graphql/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := identity.NewClient(identity.Config{
		BaseURL: cfg.AuthURL,
		Timeout: cfg.IdentityTimeout,
		Metrics: m,
	})
	if err != nil {
		return err
	}

	var verifier auth.AuthVerifier
	if cfg.DevAuth {
		log.Warn("DEV_AUTH enabled: X-Debug-User-* headers are trusted", nil)
	} else {
		verifier = identity.NewVerifier(client)
	}

	h, err := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		CatsRepo:     repo,
		Identity:     client,
		Logger:       log,
		Metrics:      m,
		GraphiQL:     cfg.GraphiQL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":  cfg.Addr(),
			"store": cfg.StoreDriver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore abre el backend elegido por STORE_DRIVER y prepara índices/esquema.
func openStore(ctx context.Context, cfg *config.Config) (cats.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		repo := mongostore.NewCatsRepo(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	case config.StorePostgres:
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = db.Close() }

		if err := pg.EnsureSchema(ctx, db); err != nil {
			closeFn()
			return nil, nil, err
		}
		return pg.NewCatsRepo(db), closeFn, nil

	default:
		// nil => el router usa el repo in-memory
		return nil, func() {}, nil
	}
}
