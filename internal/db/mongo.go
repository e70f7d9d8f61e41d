package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo держит клиента и выбранную базу документного хранилища.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongo подключается к MongoDB и проверяет соединение ping'ом.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: не удалось подключиться: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping не прошёл: %w", err)
	}

	return &Mongo{Client: client, Database: client.Database(database)}, nil
}

// PingContext проверяет доступность кластера (для health check).
func (m *Mongo) PingContext(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close отключает клиента.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
