package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/Sketch/internal/config"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func configFor(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func newRedisStore(t *testing.T) (*RedisReportStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReportStore(client), mr
}

func TestRedisReportStore_CountAndLog(t *testing.T) {
	r := require.New(t)
	s, mr := newRedisStore(t)
	ctx := context.Background()

	// Given two reports against Carlos
	r.NoError(s.AddReport(ctx, core.Report{ID: "1", ReporterID: "ana", TargetUserID: "carlos", TargetName: "Carlos", Reason: "spam"}))
	r.NoError(s.AddReport(ctx, core.Report{ID: "2", ReporterID: "beto", TargetUserID: "carlos", TargetName: "Carlos"}))

	// Then the counter and the log agree
	n, err := s.CountReportsAgainst(ctx, "carlos")
	r.NoError(err)
	r.Equal(2, n)
	got, err := s.Reports(ctx, "carlos")
	r.NoError(err)
	r.Len(got, 2)
	r.Equal("spam", got[0].Reason)
	r.Equal("beto", string(got[1].ReporterID))

	v, err := mr.Get("reports:carlos:count")
	r.NoError(err)
	r.Equal("2", v)
}

func TestRedisReportStore_UnknownTarget(t *testing.T) {
	r := require.New(t)
	s, _ := newRedisStore(t)

	n, err := s.CountReportsAgainst(context.Background(), "nobody")

	r.NoError(err)
	r.Zero(n)
}

func TestRedisReportStore_ServerDown(t *testing.T) {
	r := require.New(t)
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.CountReportsAgainst(context.Background(), "carlos")
	r.Error(err)
	r.Error(s.AddReport(context.Background(), core.Report{TargetUserID: "carlos"}))
}

func TestOpen_Redis(t *testing.T) {
	r := require.New(t)
	mr := miniredis.RunT(t)

	s, closeFn, err := Open(context.Background(), config.StoreConfig{Driver: "redis", RedisAddr: mr.Addr()})

	r.NoError(err)
	r.IsType(&RedisReportStore{}, s)
	r.NoError(closeFn(context.Background()))
}
