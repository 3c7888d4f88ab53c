package db

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes both binaries rely on. The unique email
// index is what turns a second registration into a duplicate-key error.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	if err != nil {
		return err
	}

	_, err = database.Collection("jobs").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// worker claim scan
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "runAt", Value: 1}},
		},
		{
			// admin cursor listing, newest first
			Keys: bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}},
		},
	})

	return err
}
