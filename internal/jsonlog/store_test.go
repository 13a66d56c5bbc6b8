package jsonlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/actmon/internal/archive"
	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), FileName), nil)
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	records, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)

	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	require.Empty(t, latest)
}

func TestStore_AppendAndReadAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Append(ctx, []activity.Record{{ProjectPath: `C:\Work\a`, Timestamp: 10}}))
	require.NoError(t, s.Append(ctx, []activity.Record{
		{ProjectPath: "/w/b", Timestamp: 20},
		{ProjectPath: "/w/c", Timestamp: 20},
	}))
	require.NoError(t, s.Append(ctx, nil))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []activity.Record{
		{ProjectPath: "C:/Work/a", Timestamp: 10},
		{ProjectPath: "/w/b", Timestamp: 20},
		{ProjectPath: "/w/c", Timestamp: 20},
	}, records)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"projectPath\""))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_ReadsLegacyFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	legacy := `[{"projectPath":"C:/Users/me/Github/app","timestamp":1700000000000},
	{"projectPath":"C:/Users/me/Github/app","timestamp":1600000000000}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"C:/Users/me/Github/app": 1700000000000}, latest)
}

func TestStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(4242) }
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.ReadAll(ctx)
	require.ErrorIs(t, err, repository.ErrCorrupt)

	require.NoError(t, s.Append(ctx, []activity.Record{{ProjectPath: "/w/a", Timestamp: 1}}))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []activity.Record{{ProjectPath: "/w/a", Timestamp: 1}}, records)

	backup, err := os.ReadFile(s.Path() + ".corrupt-4242")
	require.NoError(t, err)
	require.Equal(t, "{not json", string(backup))
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Append(ctx, []activity.Record{
		{ProjectPath: "/w/a", Timestamp: 1000},
		{ProjectPath: "/w/b", Timestamp: 3000},
		{ProjectPath: "/w/a", Timestamp: 2000},
	}))

	all, err := s.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []int64{3000, 2000, 1000}, timestamps(all))

	onlyA, err := s.List(ctx, activity.ListOptions{ProjectPath: "/w/a/"})
	require.NoError(t, err)
	require.Equal(t, []int64{2000, 1000}, timestamps(onlyA))

	page, err := s.List(ctx, activity.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, []int64{2000}, timestamps(page))

	past, err := s.List(ctx, activity.ListOptions{Offset: 10})
	require.NoError(t, err)
	require.Empty(t, past)
}

func TestStore_Compaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Append(ctx, []activity.Record{
		{ProjectPath: "/w/a", Timestamp: 100},
		{ProjectPath: "/w/a", Timestamp: 200},
		{ProjectPath: "/w/b", Timestamp: 150},
		{ProjectPath: "/w/a", Timestamp: 5000},
	}))

	cutoff := time.UnixMilli(1000)
	old, err := s.ListBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, []int64{100, 200}, timestamps(old))

	n, err := s.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(len(old)), n)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []activity.Record{
		{ProjectPath: "/w/b", Timestamp: 150},
		{ProjectPath: "/w/a", Timestamp: 5000},
	}, records)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"/w/a": 5000, "/w/b": 150}, latest)

	n, err = s.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Zero(t, n)

	old, err = s.ListBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Empty(t, old)
}

func TestStore_CompactArchivesOnlyRemovedRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Append(ctx, []activity.Record{
		{ProjectPath: "/w/a", Timestamp: 100},
		{ProjectPath: "/w/a", Timestamp: 200},
		{ProjectPath: "/w/b", Timestamp: 150},
	}))
	svc := activity.NewService(s, nil)
	archiveDir := t.TempDir()

	res, err := svc.Compact(ctx, time.UnixMilli(1000), archiveDir)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Archived)

	archived, err := archive.ReadJSONL[activity.Record](res.ArchivePath)
	require.NoError(t, err)
	require.Equal(t, []activity.Record{{ProjectPath: "/w/a", Timestamp: 100}}, archived)

	res, err = svc.Compact(ctx, time.UnixMilli(1000), archiveDir)
	require.NoError(t, err)
	require.Zero(t, res.Archived)
	require.Empty(t, res.ArchivePath)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{200, 150}, timestamps(records))
}

func timestamps(records []activity.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out
}
