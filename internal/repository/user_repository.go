package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/models"
)

// MongoUserRepository reads public profile projections from the users
// collection owned by the auth service. The chat service never writes
// to it.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(coll *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{coll: coll}
}

// userDoc covers both historical id shapes: ObjectID documents written
// by the auth service and plain string ids.
type userDoc struct {
	ID       any    `bson:"_id"`
	Name     string `bson:"name"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
	City     string `bson:"city"`
	State    string `bson:"state"`
	Country  string `bson:"country"`
}

func (r *MongoUserRepository) FindProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	filter := bson.M{"_id": userID}
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		filter = bson.M{"_id": oid}
	}

	projection := bson.M{
		"name": 1, "username": 1, "email": 1,
		"city": 1, "state": 1, "country": 1,
	}
	var doc userDoc
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(projection)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", apperr.ErrUnavailable, err)
	}

	profile := &models.UserProfile{
		ID:       userID,
		Name:     doc.Name,
		Username: doc.Username,
		Email:    doc.Email,
		City:     doc.City,
		State:    doc.State,
		Country:  doc.Country,
	}
	if profile.Name == "" {
		profile.Name = "Unknown User"
	}
	return profile, nil
}
