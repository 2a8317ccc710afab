package store

import (
	"context"
	"testing"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoReportStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("add report", func(mt *mtest.T) {
		s := &MongoReportStore{reports: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := s.AddReport(context.Background(), core.Report{ID: "1", ReporterID: "ana", TargetUserID: "carlos", TargetName: "Carlos"})

		require.NoError(mt, err)
	})

	mt.Run("count reports", func(mt *mtest.T) {
		s := &MongoReportStore{reports: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := s.CountReportsAgainst(context.Background(), "carlos")

		require.NoError(mt, err)
		require.Equal(mt, 3, n)
	})

	mt.Run("insert failure is wrapped", func(mt *mtest.T) {
		s := &MongoReportStore{reports: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := s.AddReport(context.Background(), core.Report{ID: "1"})

		require.Error(mt, err)
		require.Contains(mt, err.Error(), "insert report")
	})
}
