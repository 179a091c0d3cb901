package tracklog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/landmarks"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "track.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPathRoundTrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session, err := db.BeginSession("hallway walk", start)
	require.NoError(t, err)
	require.NotEmpty(t, session)

	pts := []engine.PathPoint{
		{X: 0, Y: 0.6, Step: 1, Time: start.Add(time.Second)},
		{X: 0.1, Y: 1.2, Step: 2, Time: start.Add(2 * time.Second)},
		{X: 0.2, Y: 1.9, Step: 3, Time: start.Add(3 * time.Second)},
	}
	for _, p := range pts {
		require.NoError(t, db.InsertPathPoint(session, p))
	}

	got, err := db.PathPoints(session)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, p := range got {
		assert.Equal(t, pts[i].Step, p.Step)
		assert.InDelta(t, pts[i].X, p.X, 1e-12)
		assert.InDelta(t, pts[i].Y, p.Y, 1e-12)
		assert.Equal(t, pts[i].Time.UnixNano(), p.Time.UnixNano())
	}
}

func TestPathPointsAreScopedToSession(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	start := time.Now()
	a, err := db.BeginSession("a", start)
	require.NoError(t, err)
	b, err := db.BeginSession("b", start.Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, db.InsertPathPoint(a, engine.PathPoint{Step: 1, Time: start}))

	got, err := db.PathPoints(b)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLatestLandmarks(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session, err := db.BeginSession("snapshot test", start)
	require.NoError(t, err)

	old := []landmarks.Landmark{
		{ID: 1, X: 0.1, Y: 0.2, Quality: 1},
		{ID: 2, X: 0.3, Y: 0.4, Quality: 1},
	}
	require.NoError(t, db.InsertLandmarkSnapshot(session, old, start))

	// A later snapshot supersedes the first one.
	latest := []landmarks.Landmark{
		{ID: 1, X: 0.15, Y: 0.25, Quality: 5},
		{ID: 2, X: 0.3, Y: 0.4, Quality: 3},
		{ID: 3, X: 1.0, Y: 1.0, Quality: 1},
	}
	require.NoError(t, db.InsertLandmarkSnapshot(session, latest, start.Add(time.Minute)))

	got, err := db.LatestLandmarks(session)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.InDelta(t, 0.15, got[0].X, 1e-12)
	assert.Equal(t, 5, got[0].Quality)
	assert.Equal(t, int64(3), got[2].ID)
}

func TestEmptyLandmarkSnapshot(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	session, err := db.BeginSession("empty", time.Now())
	require.NoError(t, err)
	require.NoError(t, db.InsertLandmarkSnapshot(session, nil, time.Now()))

	got, err := db.LatestLandmarks(session)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first, err := db.BeginSession("first", start)
	require.NoError(t, err)
	second, err := db.BeginSession("second", start.Add(time.Hour))
	require.NoError(t, err)

	got, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0], "newest first")
	assert.Equal(t, first, got[1])
}
