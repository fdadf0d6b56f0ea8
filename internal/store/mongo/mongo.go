package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docsync/internal/store"
)

const collectionName = "documents"

type document struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store persists document content in a MongoDB collection keyed by id.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
}

// New connects to Mongo and binds the documents collection.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Store{client: client, col: client.Database(dbName).Collection(collectionName)}, nil
}

func (s *Store) Load(ctx context.Context, id string) (string, error) {
	var doc document
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

func (s *Store) Save(ctx context.Context, id string, content string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"content": content, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
