package server

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const jobsCollection = "jobs"

// MongoJobStore persists jobs in MongoDB so they survive restarts and are
// visible to every server replica.
type MongoJobStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoJobStore connects to MongoDB and verifies the connection.
func NewMongoJobStore(ctx context.Context, uri, database string) (*MongoJobStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoJobStore{
		client: client,
		coll:   client.Database(database).Collection(jobsCollection),
	}, nil
}

// Create inserts a new job.
func (s *MongoJobStore) Create(ctx context.Context, job *Job) error {
	if _, err := s.coll.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// Update replaces an existing job record.
func (s *MongoJobStore) Update(ctx context.Context, job *Job) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Get returns a job by ID.
func (s *MongoJobStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	return &job, nil
}

// List returns jobs newest first.
func (s *MongoJobStore) List(ctx context.Context, limit int) ([]*Job, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer cur.Close(ctx)

	var jobs []*Job
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

// Close disconnects from MongoDB.
func (s *MongoJobStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoJobStore implements JobStore.
var _ JobStore = (*MongoJobStore)(nil)
