package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAssignsIDAndTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, err := s.Record(ctx, Event{SessionID: "s1", Kind: KindLocked, Pan: 100, Tilt: 20, Zoom: 1.5})
	require.NoError(t, err)

	assert.Len(t, e.ID, 26, "ULID string length")
	assert.False(t, e.CreatedAt.IsZero())
}

func TestStore_RecentNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	kinds := []Kind{KindTrackingOn, KindLocked, KindUnlocked, KindLost}
	for i, k := range kinds {
		_, err := s.Record(ctx, Event{SessionID: "s1", Kind: k, CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	events, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, KindLost, events[0].Kind)
	assert.Equal(t, KindUnlocked, events[1].Kind)
	assert.Equal(t, KindLocked, events[2].Kind)
	assert.True(t, events[0].CreatedAt.Equal(base.Add(3*time.Second)))
}

func TestStore_CountByKind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, e := range []Event{
		{SessionID: "a", Kind: KindLocked},
		{SessionID: "a", Kind: KindLocked},
		{SessionID: "a", Kind: KindCommandFailed, Detail: "timeout"},
		{SessionID: "b", Kind: KindLocked},
	} {
		_, err := s.Record(ctx, e)
		require.NoError(t, err)
	}

	counts, err := s.CountByKind(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, map[Kind]int{KindLocked: 2, KindCommandFailed: 1}, counts)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Event{SessionID: "s", Kind: KindRecovered})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	events, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFromTracking(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := FromTracking("sess", tracking.Event{
		Kind: tracking.EventRecovered,
		At:   at,
		Pose: tracking.Pose{Pan: 114, Tilt: 14},
		Zoom: 1,
	})

	assert.Equal(t, KindRecovered, e.Kind)
	assert.Equal(t, "sess", e.SessionID)
	assert.Equal(t, 114.0, e.Pan)
	assert.Equal(t, at, e.CreatedAt)
}
