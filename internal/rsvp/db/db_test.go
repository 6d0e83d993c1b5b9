package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"campus-events/internal/apperr"
	"campus-events/internal/database/dbtest"
	"campus-events/internal/models"
	"campus-events/internal/rsvp/db"
)

type fixture struct {
	bun    *bun.DB
	store  *db.DB
	user   *models.User
	events []*models.Event
}

func newFixture(t *testing.T, eventDates ...string) *fixture {
	t.Helper()
	bunDB := dbtest.NewTestDB(t)
	ctx := context.Background()

	user := &models.User{Name: "Sam", Email: "sam@campus.edu", PasswordHash: "x", Role: models.RoleUser}
	_, err := bunDB.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	f := &fixture{bun: bunDB, store: &db.DB{Bun: bunDB}, user: user}
	for i, date := range eventDates {
		d, err := time.Parse(models.DateLayout, date)
		require.NoError(t, err)
		ev := &models.Event{
			Title:       date,
			Description: "d",
			Date:        d,
			Time:        "10:00",
			Location:    "Quad",
			Organizer:   "Club",
			Category:    models.CategoryClubActivities,
		}
		_, err = bunDB.NewInsert().Model(ev).Exec(ctx)
		require.NoError(t, err, "event %d", i)
		f.events = append(f.events, ev)
	}
	return f
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.bun.NewSelect().Model((*models.RSVP)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestGetRSVPMissing(t *testing.T) {
	f := newFixture(t, "2024-10-01")
	_, err := f.store.GetRSVP(context.Background(), f.user.ID, f.events[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInsertRSVPCoalescesDuplicate(t *testing.T) {
	f := newFixture(t, "2024-10-01")
	ctx := context.Background()
	eventID := f.events[0].ID

	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: eventID, Status: models.RSVPAttending}))
	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: eventID, Status: models.RSVPUnavailable}))

	assert.Equal(t, 1, f.count(t))
	got, err := f.store.GetRSVP(ctx, f.user.ID, eventID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPUnavailable, got.Status)
}

func TestInsertRSVPUnknownEvent(t *testing.T) {
	f := newFixture(t)
	err := f.store.InsertRSVP(context.Background(), &models.RSVP{UserID: f.user.ID, EventID: 999, Status: models.RSVPAttending})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateRSVPStatus(t *testing.T) {
	f := newFixture(t, "2024-10-01")
	ctx := context.Background()
	eventID := f.events[0].ID

	err := f.store.UpdateRSVPStatus(ctx, f.user.ID, eventID, models.RSVPAttending)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: eventID, Status: models.RSVPAttending}))
	require.NoError(t, f.store.UpdateRSVPStatus(ctx, f.user.ID, eventID, models.RSVPUnavailable))

	got, err := f.store.GetRSVP(ctx, f.user.ID, eventID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPUnavailable, got.Status)
}

func TestListEventsForUser(t *testing.T) {
	f := newFixture(t, "2024-11-01", "2024-10-01", "2024-12-01")
	ctx := context.Background()

	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: f.events[0].ID, Status: models.RSVPUnavailable}))
	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: f.events[1].ID, Status: models.RSVPAttending}))

	mine, err := f.store.ListEventsForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-10-01", mine[0].Title)
	assert.Equal(t, models.RSVPAttending, mine[0].RSVPStatus)
	assert.Equal(t, "2024-11-01", mine[1].Title)
	assert.Equal(t, models.RSVPUnavailable, mine[1].RSVPStatus)

	other, err := f.store.ListEventsForUser(ctx, f.user.ID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListRSVPsForEvent(t *testing.T) {
	f := newFixture(t, "2024-10-01", "2024-10-02")
	ctx := context.Background()

	require.NoError(t, f.store.InsertRSVP(ctx, &models.RSVP{UserID: f.user.ID, EventID: f.events[0].ID, Status: models.RSVPAttending}))

	got, err := f.store.ListRSVPsForEvent(ctx, f.events[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.user.ID, got[0].UserID)

	none, err := f.store.ListRSVPsForEvent(ctx, f.events[1].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
