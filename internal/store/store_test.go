package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.Load(Snapshot{
		Clients: []*client.Client{{ID: "c1", Name: "Vulcan", ProspectingCount: 1}},
		Visits: []*visit.Visit{{
			ID: "v1", ClientID: "c1", Date: "2026-02-08", Time: "09:00",
			Status: visit.StatusScheduled, Type: visit.Prospecting,
			PlannedServices: []string{"Cloud & Backups"},
		}},
		Tasks: []*task.Task{{ID: "t1", Title: "Call", Priority: task.High}},
	})
	return s
}

func TestUpdateCommitsAllChanges(t *testing.T) {
	s := seeded(t)

	err := s.Update(func(tx *Tx) error {
		c, ok := tx.Client("c1")
		require.True(t, ok)
		c.ProspectingCount++
		tx.PutClient(c)
		tx.PutVisit(&visit.Visit{ID: "v2", ClientID: "c1", Status: visit.StatusScheduled, Type: visit.Prospecting})
		return nil
	})
	require.NoError(t, err)

	c, ok := s.GetClient("c1")
	require.True(t, ok)
	assert.Equal(t, 2, c.ProspectingCount)
	_, ok = s.GetVisit("v2")
	assert.True(t, ok)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := seeded(t)
	boom := errors.New("boom")

	err := s.Update(func(tx *Tx) error {
		c, _ := tx.Client("c1")
		c.ProspectingCount = 9
		tx.PutClient(c)
		tx.DeleteVisit("v1")
		tx.DeleteTask("t1")
		return boom
	})
	require.ErrorIs(t, err, boom)

	c, _ := s.GetClient("c1")
	assert.Equal(t, 1, c.ProspectingCount)
	_, ok := s.GetVisit("v1")
	assert.True(t, ok)
	_, ok = s.GetTask("t1")
	assert.True(t, ok)
}

func TestTxSeesOwnWrites(t *testing.T) {
	s := New()

	err := s.Update(func(tx *Tx) error {
		tx.PutTask(&task.Task{ID: "t1", Title: "Quote"})
		got, ok := tx.Task("t1")
		require.True(t, ok)
		assert.Equal(t, "Quote", got.Title)
		assert.True(t, tx.DeleteTask("t1"))
		assert.False(t, tx.DeleteTask("t1"))
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Tasks)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := seeded(t)

	snap := s.Snapshot()
	snap.Clients[0].Name = "changed"
	snap.Visits[0].PlannedServices[0] = "changed"

	c, _ := s.GetClient("c1")
	v, _ := s.GetVisit("v1")
	assert.Equal(t, "Vulcan", c.Name)
	assert.Equal(t, "Cloud & Backups", v.PlannedServices[0])
}

func TestGetReturnsCopy(t *testing.T) {
	s := seeded(t)

	v, ok := s.GetVisit("v1")
	require.True(t, ok)
	v.Status = visit.StatusCancelled

	again, _ := s.GetVisit("v1")
	assert.Equal(t, visit.StatusScheduled, again.Status)
}

func TestGetMissing(t *testing.T) {
	s := New()

	c, ok := s.GetClient("nope")
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestLoadReplacesEverything(t *testing.T) {
	s := seeded(t)

	s.Load(Snapshot{Clients: []*client.Client{{ID: "c9", Name: "ICB"}}})

	snap := s.Snapshot()
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "c9", snap.Clients[0].ID)
	assert.Empty(t, snap.Visits)
	assert.Empty(t, snap.Tasks)
	assert.Equal(t, "ICB", snap.Client("c9").Name)
	assert.Nil(t, snap.Client("c1"))
}

func TestConcurrentReadersSeeWholeUpdates(t *testing.T) {
	s := seeded(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Update(func(tx *Tx) error {
				c, _ := tx.Client("c1")
				c.ProspectingCount++
				tx.PutClient(c)
				v, _ := tx.Visit("v1")
				v.Notes = c.Name
				tx.PutVisit(v)
				return nil
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := s.Snapshot()
			assert.GreaterOrEqual(t, snap.Clients[0].ProspectingCount, 1)
		}
	}()
	wg.Wait()

	c, _ := s.GetClient("c1")
	assert.Equal(t, 201, c.ProspectingCount)
}
