package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oraclevm/oracle-vm/internal/config"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	PriceRootCollection: {
		{Indexes: map[string]int{"root": 1}},
	},
	AggregatedPriceCollection: {
		{Indexes: map[string]int{"computed_at": -1}},
	},
	SettlementProofCollection: {
		{Indexes: map[string]int{"height": 1}},
		{Indexes: map[string]int{"settlement_id": 1}},
	},
	LastProcessedHeightCollection: {{Indexes: map[string]int{}}},
}

// Setup creates the collections and indexes the service relies on. It is
// safe to run against an already initialised database.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, idxs := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range idxs {
			if len(idx.Indexes) == 0 {
				continue
			}
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and Indexes created successfully.")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	err := database.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	// NamespaceExists
	if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
		return nil
	}
	return fmt.Errorf("failed to create collection %s: %w", name, err)
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	keys := bson.D{}
	for field, order := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: order})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}
	return nil
}
