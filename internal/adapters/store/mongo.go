package store

import (
	"context"
	"fmt"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "player_reports"

// MongoReportStore persists reports in MongoDB.
type MongoReportStore struct {
	reports *mongo.Collection
}

func NewMongoReportStore(db *mongo.Database) *MongoReportStore {
	return &MongoReportStore{reports: db.Collection(reportsCollection)}
}

// EnsureIndexes creates the index counting relies on.
func (s *MongoReportStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "targetUserId", Value: 1}},
		Options: options.Index().SetName("target_user"),
	})
	if err != nil {
		return fmt.Errorf("create report index: %w", err)
	}
	return nil
}

func (s *MongoReportStore) AddReport(ctx context.Context, r core.Report) error {
	if _, err := s.reports.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *MongoReportStore) CountReportsAgainst(ctx context.Context, userID domain.UserID) (int, error) {
	n, err := s.reports.CountDocuments(ctx, bson.M{"targetUserId": userID})
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return int(n), nil
}
