// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "MongoDB Archive Handler"
//   Timestamp: "2025-12-08T10:34:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Implemented MongoDB adapter for the record archive"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Interface Segregation"
//   Quality_Check: "Connection pooling, error handling, and index creation implemented"
// }}

package store

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB implements the Store interface
type MongoDB struct {
	client  *mongo.Client
	db      *mongo.Database
	records *mongo.Collection
	skips   *mongo.Collection
}

// Ensure MongoDB implements Store interface
var _ Store = (*MongoDB)(nil)

// NewMongoDB creates a new MongoDB connection
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("无法 ping MongoDB: %w", err)
	}

	db := client.Database("qa_harvest")
	m := &MongoDB{
		client:  client,
		db:      db,
		records: db.Collection("records"),
		skips:   db.Collection("skips"),
	}

	if err := m.createIndexes(); err != nil {
		return nil, fmt.Errorf("无法创建索引: %w", err)
	}

	log.Info("MongoDB 连接成功")
	return m, nil
}

// createIndexes creates necessary indexes
func (m *MongoDB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recordIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "source_url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "emitted_at", Value: -1}},
		},
	}

	if _, err := m.records.Indexes().CreateMany(ctx, recordIndexes); err != nil {
		return fmt.Errorf("创建 records 索引失败: %w", err)
	}

	skipIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "run_id", Value: 1},
				{Key: "stage", Value: 1},
			},
		},
	}

	if _, err := m.skips.Indexes().CreateMany(ctx, skipIndexes); err != nil {
		return fmt.Errorf("创建 skips 索引失败: %w", err)
	}

	return nil
}

// InsertRecord inserts an emitted record mirror
func (m *MongoDB) InsertRecord(rec *ArchivedRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.records.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil // Already exists, ignore
	}
	return err
}

// RecentRecords returns the most recently emitted records
func (m *MongoDB) RecentRecords(limit int) ([]*ArchivedRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "emitted_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.records.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*ArchivedRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// CountRecords returns the number of archived records
func (m *MongoDB) CountRecords() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.records.CountDocuments(ctx, bson.M{})
	return int(count), err
}

// InsertSkip inserts a skip audit entry
func (m *MongoDB) InsertSkip(entry *SkipEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.skips.InsertOne(ctx, entry)
	return err
}

// SkipCounts returns per-stage skip counts for a run
func (m *MongoDB) SkipCounts(runID string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"run_id": runID}}},
		{{Key: "$group", Value: bson.M{"_id": "$stage", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := m.skips.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int)
	for cursor.Next(ctx) {
		var row struct {
			Stage string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Stage] = row.Count
	}

	return counts, cursor.Err()
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("断开 MongoDB 连接失败: %w", err)
	}

	log.Info("MongoDB 连接已关闭")
	return nil
}

// Ping checks if the connection is alive
func (m *MongoDB) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.client.Ping(ctx, nil)
}
