package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lnsongxf/gametheory/pkg/market"
)

// ErrUnavailable is returned when the database cannot be reached.
var ErrUnavailable = stderrors.New("store unavailable")

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// DefaultMongoConfig returns settings for a local MongoDB.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "schoolchoice",
		Collection: "problems",
		Timeout:    5 * time.Second,
	}
}

// MongoStore keeps one document per problem. Lists are stored as plain
// arrays so the collection stays readable from other tools.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

type mongoRecord struct {
	ID            string           `bson:"_id"`
	CreatedAt     time.Time        `bson:"created_at"`
	Capacity      []int            `bson:"capacity"`
	Priority      [][]int          `bson:"priority"`
	Preference    [][]int          `bson:"preference"`
	OutsideOption bool             `bson:"outside_option"`
	Matchings     map[string][]int `bson:"matchings"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	def := DefaultMongoConfig()
	if cfg.URI == "" {
		cfg.URI = def.URI
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := NewMongoStoreFromClient(client, cfg.Database, cfg.Collection)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient uses an existing client. Close does not
// disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Save(ctx context.Context, p *Problem) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	rec := toRecord(p)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save problem %s: %w", p.ID, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*Problem, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var rec mongoRecord
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("load problem %s: %w", id, err)
	}
	return fromRecord(rec)
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"priority": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer cur.Close(ctx)

	var summaries []Summary
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("list problems: %w", err)
		}
		summaries = append(summaries, Summary{
			ID:         rec.ID,
			CreatedAt:  rec.CreatedAt.UTC(),
			Students:   len(rec.Preference),
			Schools:    len(rec.Capacity),
			Mechanisms: slices.Sorted(maps.Keys(rec.Matchings)),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return summaries, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete problem %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toRecord(p *Problem) mongoRecord {
	capacity, priority, preference := p.Market.Input()
	matchings := make(map[string][]int, len(p.Matchings))
	for name, mt := range p.Matchings {
		matchings[name] = mt.Assignment()
	}
	return mongoRecord{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		Capacity:      capacity,
		Priority:      priority,
		Preference:    preference,
		OutsideOption: p.Market.OutsideForced(),
		Matchings:     matchings,
	}
}

func fromRecord(rec mongoRecord) (*Problem, error) {
	var opts []market.Option
	if rec.OutsideOption {
		opts = append(opts, market.WithOutsideOption())
	}
	m, err := market.New(rec.Capacity, rec.Priority, rec.Preference, opts...)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", rec.ID, err)
	}
	matchings := make(map[string]*market.Matching, len(rec.Matchings))
	for name, assignment := range rec.Matchings {
		mt, err := market.FromAssignment(m, assignment)
		if err != nil {
			return nil, fmt.Errorf("problem %s: matching %s: %w", rec.ID, name, err)
		}
		matchings[name] = mt
	}
	return &Problem{ID: rec.ID, CreatedAt: rec.CreatedAt.UTC(), Market: m, Matchings: matchings}, nil
}

var _ Store = (*MongoStore)(nil)
