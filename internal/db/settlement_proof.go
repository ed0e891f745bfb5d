package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oraclevm/oracle-vm/internal/db/model"
)

func (db *Database) SaveSettlementProof(ctx context.Context, doc *model.SettlementProofDocument) error {
	_, err := db.collection(model.SettlementProofCollection).InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKey(err) {
			return &DuplicateKeyError{
				Key:     doc.ID,
				Message: "settlement proof already exists",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetSettlementProof(ctx context.Context, id string) (*model.SettlementProofDocument, error) {
	var doc model.SettlementProofDocument
	err := db.collection(model.SettlementProofCollection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "settlement proof not found",
			}
		}
		return nil, err
	}
	return &doc, nil
}
