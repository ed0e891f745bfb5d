package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oraclevm/oracle-vm/internal/db/model"
)

func (db *Database) SavePriceRoot(ctx context.Context, doc *model.PriceRootDocument) error {
	_, err := db.collection(model.PriceRootCollection).InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKey(err) {
			return &DuplicateKeyError{
				Key:     fmt.Sprint(doc.Height),
				Message: "price root already anchored at height",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetPriceRoot(ctx context.Context, height uint64) (*model.PriceRootDocument, error) {
	var doc model.PriceRootDocument
	err := db.collection(model.PriceRootCollection).
		FindOne(ctx, bson.M{"_id": height}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     fmt.Sprint(height),
				Message: "no price root anchored at height",
			}
		}
		return nil, err
	}
	return &doc, nil
}

func (db *Database) SaveAggregatedPrice(ctx context.Context, doc *model.AggregatedPriceDocument) error {
	opts := options.Update().SetUpsert(true)
	_, err := db.collection(model.AggregatedPriceCollection).
		UpdateOne(ctx, bson.M{"_id": doc.Root}, bson.M{"$setOnInsert": doc}, opts)
	return err
}

// GetRecentAggregatedPrices returns up to limit aggregates, newest first.
func (db *Database) GetRecentAggregatedPrices(ctx context.Context, limit int64) ([]model.AggregatedPriceDocument, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "computed_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.AggregatedPriceCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.AggregatedPriceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
