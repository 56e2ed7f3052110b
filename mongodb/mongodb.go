package mongodb

import (
	"context"
	"fmt"

	"finzora/api/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// Backend stores each collection as a MongoDB collection. Documents carry
// the owning user under user_id and a composite _id so fixed ids such as
// budget_food stay unique per user.
type Backend struct {
	client   *mongo.Client
	database string
}

func Connect(mongoURI, database string) (*Backend, error) {
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(mongoURI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		logger.Get().Error("failed to connect to MongoDB",
			zap.String("database", database),
			zap.Error(err))
		return nil, fmt.Errorf("error connecting to MongoDB: %v", err)
	}

	logger.Get().Info("successfully connected to MongoDB",
		zap.String("database", database))
	return &Backend{client: client, database: database}, nil
}

func (b *Backend) Name() string { return "mongo" }

func (b *Backend) collection(name string) *mongo.Collection {
	return b.client.Database(b.database).Collection(name)
}

func (b *Backend) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB",
			zap.Error(err))
		return err
	}
	logger.Get().Info("successfully disconnected from MongoDB")
	return nil
}
