// Package store persists scrape snapshots in MongoDB so a profile's metrics
// can be followed over time.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

const (
	// DefaultHistoryLimit caps History when the caller passes no limit.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit is the largest page History returns.
	MaxHistoryLimit = 500

	connectAttempts = 3
)

// Snapshot is one successful scrape.
type Snapshot struct {
	ID         string           `bson:"_id" json:"id"`
	Platform   string           `bson:"platform" json:"platform"`
	URL        string           `bson:"url" json:"url"`
	Result     extractor.Result `bson:"result" json:"result"`
	ScrapedAt  time.Time        `bson:"scraped_at" json:"scraped_at"`
	DurationMs int64            `bson:"duration_ms" json:"duration_ms"`
}

// NewSnapshot builds a snapshot with a fresh ID.
func NewSnapshot(platform, url string, result extractor.Result, took time.Duration, now time.Time) Snapshot {
	return Snapshot{
		ID:         uuid.NewString(),
		Platform:   platform,
		URL:        url,
		Result:     result,
		ScrapedAt:  now.UTC(),
		DurationMs: took.Milliseconds(),
	}
}

// MongoStore records snapshots in a single collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     utils.Logger
	now        func() time.Time
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the
// history index exists.
func NewMongoStore(ctx context.Context, cfg config.StoreConfig, logger utils.Logger) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("MongoDB connection string is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("MongoDB database and collection names are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = utils.NewComponentLogger("store")
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(20).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(10 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := retry.DoWithData(
		func() (*mongo.Client, error) {
			connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			client, err := mongo.Connect(connectCtx, clientOptions)
			if err != nil {
				return nil, err
			}
			if err := client.Ping(connectCtx, nil); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
			return client, nil
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("MongoDB connect failed (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
		logger:     logger,
		now:        time.Now,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Infof("Connected to MongoDB database %s, collection %s", cfg.Database, cfg.Collection)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "url", Value: 1}, {Key: "scraped_at", Value: -1}},
		Options: options.Index().SetName("platform_url_scraped_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Record inserts a snapshot for a successful scrape.
func (s *MongoStore) Record(ctx context.Context, platform, url string, result extractor.Result, took time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap := NewSnapshot(platform, url, result, took, s.now())
	if _, err := s.collection.InsertOne(ctx, snap); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// History returns the most recent snapshots for a profile, newest first.
func (s *MongoStore) History(ctx context.Context, platform, url string, limit int) ([]Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, historyFilter(platform, url), historyOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := make([]Snapshot, 0)
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}
	return snapshots, nil
}

func historyFilter(platform, url string) bson.D {
	filter := bson.D{{Key: "platform", Value: platform}}
	if url != "" {
		filter = append(filter, bson.E{Key: "url", Value: url})
	}
	return filter
}

func historyOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// Ping checks MongoDB connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
