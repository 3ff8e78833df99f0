package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/extractor"
)

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*3600))
	result := extractor.Result{Posts: 89, Followers: 1234, Following: 567}

	snap := NewSnapshot(extractor.Instagram, "https://www.instagram.com/a/", result, 2500*time.Millisecond, now)

	if _, err := uuid.Parse(snap.ID); err != nil {
		t.Errorf("snapshot ID %q is not a UUID: %v", snap.ID, err)
	}
	if !snap.ScrapedAt.Equal(now) || snap.ScrapedAt.Location() != time.UTC {
		t.Errorf("ScrapedAt = %v, want %v in UTC", snap.ScrapedAt, now)
	}
	if snap.DurationMs != 2500 {
		t.Errorf("DurationMs = %d", snap.DurationMs)
	}
	if diff := cmp.Diff(result, snap.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	other := NewSnapshot(extractor.Instagram, "https://www.instagram.com/a/", result, 0, now)
	if other.ID == snap.ID {
		t.Error("snapshot IDs should be unique")
	}
}

func TestSnapshotBSON(t *testing.T) {
	snap := Snapshot{
		ID:       "id-1",
		Platform: extractor.LinkedIn,
		URL:      "https://www.linkedin.com/in/x",
		Result:   extractor.Result{Followers: 3400},
	}
	data, err := bson.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc struct {
		ID     string `bson:"_id"`
		Result struct {
			Followers int64 `bson:"followers"`
		} `bson:"result"`
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if doc.ID != "id-1" {
		t.Errorf("_id = %v", doc.ID)
	}
	if doc.Result.Followers != 3400 {
		t.Errorf("result.followers = %d", doc.Result.Followers)
	}
}

func TestHistoryFilter(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		url      string
		want     bson.D
	}{
		{
			name:     "platform only",
			platform: "twitter",
			want:     bson.D{{Key: "platform", Value: "twitter"}},
		},
		{
			name:     "platform and url",
			platform: "twitter",
			url:      "https://x.com/a",
			want:     bson.D{{Key: "platform", Value: "twitter"}, {Key: "url", Value: "https://x.com/a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, historyFilter(tt.platform, tt.url)); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-3, DefaultHistoryLimit},
		{5, 5},
		{MaxHistoryLimit, MaxHistoryLimit},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := *historyOptions(7).Limit; got != 7 {
		t.Errorf("historyOptions limit = %d", got)
	}
}

func TestNewMongoStore_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewMongoStore(ctx, config.StoreConfig{}, nil); err == nil {
		t.Error("expected error without URI")
	}
	if _, err := NewMongoStore(ctx, config.StoreConfig{URI: "mongodb://localhost"}, nil); err == nil {
		t.Error("expected error without database and collection")
	}
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("SOCIALSCRAPEXTER_TEST_MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("set SOCIALSCRAPEXTER_TEST_MONGO_URI to run MongoDB integration tests")
	}

	ctx := context.Background()
	s, err := NewMongoStore(ctx, config.StoreConfig{
		URI:        uri,
		Database:   "socialscrapexter_test",
		Collection: "snapshots_" + uuid.NewString()[:8],
		Timeout:    5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewMongoStore failed: %v", err)
	}
	defer func() {
		_ = s.collection.Drop(ctx)
		_ = s.Close(ctx)
	}()

	base := time.Now()
	url := "https://www.instagram.com/a/"
	for i := 0; i < 3; i++ {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if err := s.Record(ctx, extractor.Instagram, url, extractor.Result{Followers: int64(100 + i)}, time.Second); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	history, err := s.History(ctx, extractor.Instagram, url, 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(history))
	}
	if history[0].Result.Followers != 102 || history[1].Result.Followers != 101 {
		t.Errorf("history not newest first: %+v", history)
	}
}
