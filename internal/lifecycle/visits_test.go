package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/visit"
)

func schedule(t *testing.T, f *fixture, typ visit.VisitType) *visit.Visit {
	t.Helper()
	v, err := f.m.ScheduleVisit(ScheduleVisitInput{
		ClientID: "c1", Date: "2026-02-08", Time: "09:00", Type: typ,
	})
	require.NoError(t, err)
	return v
}

func TestScheduleProspectingVisitIncrementsCounter(t *testing.T) {
	f := newFixture(t)

	v, err := f.m.ScheduleVisit(ScheduleVisitInput{
		ClientID:        "c1",
		Date:            "2026-02-08",
		Time:            "09:00",
		Type:            visit.Prospecting,
		PlannedServices: []string{"CCTV & Electronic Security", " ", "CCTV & Electronic Security", "Cloud & Backups"},
		Notes:           "  bring catalogue ",
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", v.ID)
	assert.Equal(t, visit.StatusScheduled, v.Status)
	assert.Equal(t, []string{"CCTV & Electronic Security", "Cloud & Backups"}, v.PlannedServices)
	assert.Equal(t, "bring catalogue", v.Notes)
	assert.Empty(t, v.Opportunities)
	assert.Equal(t, 1, f.counter(t, "c1"))

	stored, err := f.m.Visit(v.ID)
	require.NoError(t, err)
	assert.Equal(t, visit.StatusScheduled, stored.Status)

	assert.Equal(t, []alert.Alert{{
		Title: "Schedule updated",
		Body:  "Visit booked for 2026-02-08 at 09:00 with Hotel VIP Executive",
	}}, f.sink.Alerts())

	assert.Equal(t, []syncCall{
		{syncer.OpCreate, syncer.KindVisit, "id-1"},
		{syncer.OpUpdate, syncer.KindClient, "c1"},
	}, f.sync.Calls())
}

func TestScheduleOtherTypesLeaveCounter(t *testing.T) {
	f := newFixture(t)

	schedule(t, f, visit.FollowUp)
	schedule(t, f, visit.Technical)

	assert.Equal(t, 0, f.counter(t, "c1"))
	for _, c := range f.sync.Calls() {
		assert.NotEqual(t, syncer.KindClient, c.Kind)
	}
}

func TestCounterIsNotClamped(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		schedule(t, f, visit.Prospecting)
	}

	assert.Equal(t, 5, f.counter(t, "c1"))
}

func TestCounterUnaffectedByOutcome(t *testing.T) {
	f := newFixture(t)

	a := schedule(t, f, visit.Prospecting)
	b := schedule(t, f, visit.Prospecting)
	c := schedule(t, f, visit.Prospecting)
	require.Equal(t, 3, f.counter(t, "c1"))

	_, err := f.m.CompleteVisit(a.ID, nil)
	require.NoError(t, err)
	_, err = f.m.CancelVisit(b.ID)
	require.NoError(t, err)
	require.NoError(t, f.m.DeleteVisit(c.ID))

	assert.Equal(t, 3, f.counter(t, "c1"))
}

func TestScheduleValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    ScheduleVisitInput
		field string
	}{
		{"missing client", ScheduleVisitInput{Date: "2026-02-08", Time: "09:00", Type: visit.Prospecting}, "client_id"},
		{"unknown client", ScheduleVisitInput{ClientID: "nope", Date: "2026-02-08", Time: "09:00", Type: visit.Prospecting}, "client_id"},
		{"missing date", ScheduleVisitInput{ClientID: "c1", Time: "09:00", Type: visit.Prospecting}, "date"},
		{"missing time", ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Type: visit.Prospecting}, "time"},
		{"malformed date", ScheduleVisitInput{ClientID: "c1", Date: "08/02/2026", Time: "09:00", Type: visit.Prospecting}, "date"},
		{"malformed time", ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "9am", Type: visit.Prospecting}, "time"},
		{"unknown type", ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "09:00", Type: "demo"}, "type"},
		{"past date", ScheduleVisitInput{ClientID: "c1", Date: "2026-02-07", Time: "09:00", Type: visit.Prospecting}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			v, err := f.m.ScheduleVisit(tt.in)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)

			assert.Empty(t, f.store.Snapshot().Visits)
			assert.Equal(t, 0, f.counter(t, "c1"))
			assert.Zero(t, f.sink.Len())
			assert.Empty(t, f.sync.Calls())
		})
	}
}

func TestScheduleEarlierToday(t *testing.T) {
	f := newFixture(t)

	// Only the calendar day is checked, so an earlier time today is accepted.
	_, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "06:00", Type: visit.FollowUp})
	assert.NoError(t, err)
}

func TestScheduleUsesConfiguredLocation(t *testing.T) {
	f := newFixture(t)
	// 23:30 UTC on the 7th is already the 8th in CAT.
	f.clock.Set(time.Date(2026, 2, 7, 23, 30, 0, 0, time.UTC))

	_, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-07", Time: "23:45", Type: visit.FollowUp})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteVisitAttachesOpportunities(t *testing.T) {
	f := newFixture(t)
	v := schedule(t, f, visit.Prospecting)

	value := 125000.0
	done, err := f.m.CompleteVisit(v.ID, []visit.Opportunity{
		{ServiceType: "CCTV & Electronic Security", Description: "12 cameras", Value: &value},
		{ID: "kept", ServiceType: "Cloud & Backups"},
	})
	require.NoError(t, err)

	assert.Equal(t, visit.StatusCompleted, done.Status)
	require.Len(t, done.Opportunities, 2)
	assert.NotEmpty(t, done.Opportunities[0].ID)
	assert.Equal(t, 125000.0, *done.Opportunities[0].Value)
	assert.Equal(t, "kept", done.Opportunities[1].ID)
	assert.Nil(t, done.Opportunities[1].Value)
	assert.Equal(t, 1, f.counter(t, "c1"))

	value = 1
	stored, _ := f.m.Visit(v.ID)
	assert.Equal(t, 125000.0, *stored.Opportunities[0].Value)

	calls := f.sync.Calls()
	assert.Equal(t, syncCall{syncer.OpUpdate, syncer.KindVisit, v.ID}, calls[len(calls)-1])
}

func TestCompleteVisitRejectsBadOpportunities(t *testing.T) {
	f := newFixture(t)
	v := schedule(t, f, visit.Technical)

	neg := -10.0
	_, err := f.m.CompleteVisit(v.ID, []visit.Opportunity{{ServiceType: "IT Hardware & Equipment", Value: &neg}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.m.CompleteVisit(v.ID, []visit.Opportunity{{ServiceType: "  "}})
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := f.m.Visit(v.ID)
	assert.Equal(t, visit.StatusScheduled, stored.Status)
	assert.Empty(t, stored.Opportunities)
}

func TestCompleteVisitUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.CompleteVisit("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "visit", nf.Kind)
	assert.Equal(t, "missing", nf.ID)
}

func TestCompleteCancelledVisit(t *testing.T) {
	f := newFixture(t)
	v := schedule(t, f, visit.Prospecting)
	_, err := f.m.CancelVisit(v.ID)
	require.NoError(t, err)
	before := f.sync.Calls()

	value := 10.0
	_, err = f.m.CompleteVisit(v.ID, []visit.Opportunity{{ServiceType: "Cloud & Backups", Value: &value}})
	require.ErrorIs(t, err, ErrInvalidTransition)

	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, visit.StatusCancelled, terr.From)
	assert.Equal(t, visit.StatusCompleted, terr.To)

	stored, _ := f.m.Visit(v.ID)
	assert.Equal(t, visit.StatusCancelled, stored.Status)
	assert.Empty(t, stored.Opportunities)
	assert.Equal(t, before, f.sync.Calls())
}

func TestTerminalVisitsNeverTransition(t *testing.T) {
	for _, terminal := range []visit.Status{visit.StatusCompleted, visit.StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t)
			v := schedule(t, f, visit.FollowUp)
			_, err := f.m.UpdateVisitStatus(v.ID, terminal)
			require.NoError(t, err)
			snapshot, _ := f.m.Visit(v.ID)

			_, err = f.m.CompleteVisit(v.ID, nil)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			for _, target := range []visit.Status{visit.StatusCompleted, visit.StatusCancelled, visit.StatusScheduled} {
				_, err = f.m.UpdateVisitStatus(v.ID, target)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}

			after, _ := f.m.Visit(v.ID)
			assert.Equal(t, snapshot, after)
		})
	}
}

func TestUpdateVisitStatus(t *testing.T) {
	f := newFixture(t)
	v := schedule(t, f, visit.FollowUp)

	_, err := f.m.UpdateVisitStatus(v.ID, "postponed")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.m.UpdateVisitStatus(v.ID, visit.StatusScheduled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.m.UpdateVisitStatus("missing", visit.StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)

	done, err := f.m.UpdateVisitStatus(v.ID, visit.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, visit.StatusCompleted, done.Status)
	assert.Empty(t, done.Opportunities)
}

func TestDeleteVisit(t *testing.T) {
	f := newFixture(t)
	v := schedule(t, f, visit.Prospecting)
	_, err := f.m.CompleteVisit(v.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.m.DeleteVisit(v.ID))
	_, err = f.m.Visit(v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.m.DeleteVisit(v.ID), ErrNotFound)
	assert.Equal(t, 1, f.counter(t, "c1"))

	calls := f.sync.Calls()
	assert.Equal(t, syncCall{syncer.OpDelete, syncer.KindVisit, v.ID}, calls[len(calls)-1])
}

func TestVisitsFilterAndOrder(t *testing.T) {
	f := newFixture(t)
	late, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-09", Time: "08:00", Type: visit.FollowUp})
	require.NoError(t, err)
	early, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "10:00", Type: visit.FollowUp})
	require.NoError(t, err)
	_, err = f.m.CancelVisit(late.ID)
	require.NoError(t, err)

	all := f.m.Visits(VisitFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)

	scheduled := f.m.Visits(VisitFilter{Status: visit.StatusScheduled})
	require.Len(t, scheduled, 1)
	assert.Equal(t, early.ID, scheduled[0].ID)

	assert.Empty(t, f.m.Visits(VisitFilter{ClientID: "other"}))
}

func TestScheduleStoresPaddedTime(t *testing.T) {
	f := newFixture(t)
	ten, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "10:00", Type: visit.FollowUp})
	require.NoError(t, err)
	nine, err := f.m.ScheduleVisit(ScheduleVisitInput{ClientID: "c1", Date: "2026-02-08", Time: "9:00", Type: visit.FollowUp})
	require.NoError(t, err)

	assert.Equal(t, "09:00", nine.Time)
	stored, err := f.m.Visit(nine.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", stored.Time)

	all := f.m.Visits(VisitFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, nine.ID, all[0].ID)
	assert.Equal(t, ten.ID, all[1].ID)

	sent := f.sink.Alerts()
	require.NotEmpty(t, sent)
	assert.Contains(t, sent[len(sent)-1].Body, "at 09:00")
}
