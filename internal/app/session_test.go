package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/clock"
	"github.com/evcraddock/field-visits/internal/config"
	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "visits.db")
	cfg.TimeZone = "Africa/Maputo"
	cfg.Monitor.Enabled = false
	return cfg
}

func morning(t *testing.T) *clock.Manual {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Maputo")
	require.NoError(t, err)
	return clock.NewManual(time.Date(2026, 2, 8, 8, 0, 0, 0, loc))
}

func TestSessionPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	clk := morning(t)

	s, err := Open(context.Background(), cfg, WithClock(clk))
	require.NoError(t, err)

	c, err := s.Manager.AddClient(lifecycle.NewClient{Name: "Vulcan", ContactPerson: "Joana"})
	require.NoError(t, err)
	v, err := s.Manager.ScheduleVisit(lifecycle.ScheduleVisitInput{
		ClientID: c.ID, Date: "2026-02-08", Time: "09:00", Type: visit.Prospecting,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), cfg, WithClock(clk))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	reloaded, err := s.Manager.Client(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ProspectingCount)

	rv, err := s.Manager.Visit(v.ID)
	require.NoError(t, err)
	assert.Equal(t, visit.StatusScheduled, rv.Status)

	feed, err := s.Feed.List(0)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.Equal(t, "Schedule updated", feed[len(feed)-1].Title)
	assert.Equal(t, alert.LevelSuccess, feed[len(feed)-1].Level)
}

func TestSessionMonitorAlertsThroughFeed(t *testing.T) {
	cfg := testConfig(t)
	clk := morning(t)
	rec := &alert.Recorder{}

	s, err := Open(context.Background(), cfg, WithClock(clk), WithAlertSink(rec))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	c, err := s.Manager.AddClient(lifecycle.NewClient{Name: "ICB Mining", ContactPerson: "Rui"})
	require.NoError(t, err)
	_, err = s.Manager.ScheduleVisit(lifecycle.ScheduleVisitInput{
		ClientID: c.ID, Date: "2026-02-08", Time: "09:00", Type: visit.Technical,
	})
	require.NoError(t, err)
	rec.Reset()

	clk.Advance(45 * time.Minute)
	assert.Equal(t, 1, s.Monitor.Tick(context.Background()))

	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "Imminent visit: ICB Mining", rec.Alerts()[0].Title)

	feed, err := s.Feed.List(1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, alert.LevelInfo, feed[0].Level)
	assert.Equal(t, "Your Technical visit starts in 15 minutes.", feed[0].Body)
}

func TestSessionUrgentDigest(t *testing.T) {
	cfg := testConfig(t)
	clk := morning(t)

	s, err := Open(context.Background(), cfg, WithClock(clk))
	require.NoError(t, err)
	for _, title := range []string{"Quote for Vulcan", "Call ICB"} {
		_, err := s.Manager.AddTask(lifecycle.NewTask{Title: title, Priority: task.High})
		require.NoError(t, err)
	}
	_, err = s.Manager.AddTask(lifecycle.NewTask{Title: "Later", Priority: task.Low})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), cfg, WithClock(clk))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	feed, err := s.Feed.List(1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, alert.LevelWarning, feed[0].Level)
	assert.Equal(t, "You have 2 urgent tasks due today", feed[0].Body)
}

type failingBackend struct{}

func (failingBackend) CreateEntity(syncer.Kind, any) (string, error) {
	return "", errors.New("backend offline")
}

func (failingBackend) UpdateEntity(syncer.Kind, string, any) error {
	return errors.New("backend offline")
}

func (failingBackend) DeleteEntity(syncer.Kind, string) error {
	return errors.New("backend offline")
}

func (failingBackend) Load() (store.Snapshot, error) {
	return store.Snapshot{}, nil
}

func TestSessionSyncFailureKeepsLocalState(t *testing.T) {
	cfg := testConfig(t)

	s, err := Open(context.Background(), cfg, WithClock(morning(t)), WithBackend(failingBackend{}))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	tk, err := s.Manager.AddTask(lifecycle.NewTask{Title: "Survey site"})
	require.NoError(t, err)
	s.Sync.Flush()

	_, err = s.Manager.Task(tk.ID)
	assert.NoError(t, err)

	st, ok := s.Sync.State(syncer.KindTask, tk.ID)
	require.True(t, ok)
	assert.Equal(t, syncer.StatusFailed, st.Status)

	feed, err := s.Feed.List(0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, alert.LevelWarning, feed[0].Level)
	assert.Equal(t, "Sync failed", feed[0].Title)
	assert.Contains(t, feed[0].Body, "backend offline")
}

func TestOpenRejectsBadZone(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeZone = "Nowhere/Special"

	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
