package mongodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

var (
	clientInstance *mongo.Client
	dbInstance     *mongo.Database
	initOnce       sync.Once
	initErr        error
)

var errNotInitialized = errors.New("mongodb client is not initialized, call InitMongoDB first")

// InitMongoDB connects the process-wide client and selects dbName. Later calls return
// the result of the first one.
func InitMongoDB(ctx context.Context, uri, dbName string) error {
	initOnce.Do(func() {
		log.Info().Str("database", dbName).Msg("Initializing MongoDB client")

		clientOptions := options.Client().
			ApplyURI(uri).
			SetConnectTimeout(10 * time.Second).
			SetServerSelectionTimeout(10 * time.Second).
			SetMonitor(otelmongo.NewMonitor())

		client, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			initErr = err
			return
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			initErr = err
			return
		}

		clientInstance = client
		dbInstance = client.Database(dbName)
		log.Info().Msg("MongoDB client initialized successfully.")
	})
	return initErr
}

// GetDB returns the database selected by InitMongoDB, or nil before initialization.
func GetDB() *mongo.Database {
	return dbInstance
}

// Ping checks the primary with a short timeout. Used by the health endpoint.
func Ping(ctx context.Context) error {
	if clientInstance == nil {
		return errNotInitialized
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return clientInstance.Ping(pingCtx, readpref.Primary())
}

// CloseMongoDB disconnects the client. It should be called on shutdown.
func CloseMongoDB(ctx context.Context) {
	if clientInstance == nil {
		return
	}
	log.Info().Msg("Closing MongoDB connection.")
	if err := clientInstance.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Error closing MongoDB connection")
	}
}
