package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/models"
)

// MessageStore is the persistence contract for chat messages. Messages
// are append-only: no edit, no retraction.
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) (*models.Message, error)
	// ListByRoom returns the full room history ascending by timestamp.
	ListByRoom(ctx context.Context, roomID string) ([]*models.Message, error)
	// ListByParticipant returns every message the user sent or
	// received, descending by timestamp.
	ListByParticipant(ctx context.Context, userID string) ([]*models.Message, error)
}

type MongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(coll *mongo.Collection) *MongoMessageRepository {
	ix := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roomId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("room_timestamp_idx"),
		},
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("sender_timestamp_idx"),
		},
		{
			Keys:    bson.D{{Key: "receiverId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("receiver_timestamp_idx"),
		},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), ix)
	return &MongoMessageRepository{coll: coll}
}

func (r *MongoMessageRepository) Insert(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: insert message: %v", apperr.ErrUnavailable, err)
	}
	return m, nil
}

func (r *MongoMessageRepository) ListByRoom(ctx context.Context, roomID string) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list by room: %v", apperr.ErrUnavailable, err)
	}
	return decodeAll(ctx, cur)
}

func (r *MongoMessageRepository) ListByParticipant(ctx context.Context, userID string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": userID},
		bson.M{"receiverId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list by participant: %v", apperr.ErrUnavailable, err)
	}
	return decodeAll(ctx, cur)
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]*models.Message, error) {
	defer cur.Close(ctx)
	out := []*models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", apperr.ErrUnavailable, err)
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", apperr.ErrUnavailable, err)
	}
	return out, nil
}
