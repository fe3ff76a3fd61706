package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const DefaultDatabase = "cats"

// Open conecta a Mongo y hace ping antes de devolver la base.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, nil, fmt.Errorf("mongo: empty uri")
	}
	database = strings.TrimSpace(database)
	if database == "" {
		database = DefaultDatabase
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return client, client.Database(database), nil
}
