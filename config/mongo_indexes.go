package config

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes sets up the completed_interviews indexes: one
// archived document per session, and the owner history read path.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("completed_interviews")

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "completed_at", Value: -1}},
		},
	})
	return err
}
