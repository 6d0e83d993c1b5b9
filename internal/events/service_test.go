package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-events/internal/apperr"
	"campus-events/internal/database/dbtest"
	"campus-events/internal/events"
	"campus-events/internal/events/db"
	"campus-events/internal/logger"
	"campus-events/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.DomainEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type recordingImages struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (r *recordingImages) Remove(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, ref)
	return r.err
}

func (r *recordingImages) Removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

func ofType(t models.DomainEventType) any {
	return mock.MatchedBy(func(ev models.DomainEvent) bool { return ev.Type == t })
}

func validInput() models.EventInput {
	return models.EventInput{
		Title:       "Hack Night",
		Description: "Bring a laptop",
		Date:        "2024-10-03",
		Time:        "19:00",
		Location:    "Lab 2",
		Organizer:   "CS Society",
		Category:    "workshops",
	}
}

func newService(t *testing.T, pub *MockPublisher, images *recordingImages) *events.EventService {
	return events.NewEventService(&db.DB{Bun: dbtest.NewTestDB(t)}, images, pub, logger.NewNop(), models.OrderDateAsc)
}

func TestCreateEventPublishes(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, ofType(models.EventCreated)).Return(nil).Once()
	svc := newService(t, pub, &recordingImages{})

	ev, err := svc.CreateEvent(context.Background(), 1, validInput())
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, models.CategoryWorkshops, ev.Category)
	pub.AssertExpectations(t)
}

func TestCreateEventPublishFailureIsNotSurfaced(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := newService(t, pub, &recordingImages{})

	_, err := svc.CreateEvent(context.Background(), 1, validInput())
	assert.NoError(t, err)
}

func TestCreateEventValidation(t *testing.T) {
	images := &recordingImages{}
	svc := newService(t, &MockPublisher{}, images)

	tests := []struct {
		name   string
		mutate func(in *models.EventInput)
	}{
		{"missing title", func(in *models.EventInput) { in.Title = "  " }},
		{"missing organizer", func(in *models.EventInput) { in.Organizer = "" }},
		{"bad date", func(in *models.EventInput) { in.Date = "03/10/2024" }},
		{"unknown category", func(in *models.EventInput) { in.Category = "parties" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Image = "orphan.png"
			tt.mutate(&in)
			_, err := svc.CreateEvent(context.Background(), 1, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	// every rejected upload is cleaned up
	assert.Eventually(t, func() bool { return len(images.Removed()) == len(tests) }, time.Second, 10*time.Millisecond)
}

func TestCreateEventAcceptsTimestampDate(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := newService(t, pub, &recordingImages{})

	in := validInput()
	in.Date = "2024-10-03T00:00:00Z"
	ev, err := svc.CreateEvent(context.Background(), 1, in)
	require.NoError(t, err)
	assert.Equal(t, "2024-10-03", ev.Date.Format(models.DateLayout))
}

func TestListByCategoryRejectsUnknownCategory(t *testing.T) {
	svc := newService(t, &MockPublisher{}, &recordingImages{})
	_, err := svc.ListByCategory(context.Background(), "parties", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCalendarEvents(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := newService(t, pub, &recordingImages{})
	ctx := context.Background()

	for _, date := range []string{"2024-09-30", "2024-10-01", "2024-10-20"} {
		in := validInput()
		in.Title = date
		in.Date = date
		_, err := svc.CreateEvent(ctx, 1, in)
		require.NoError(t, err)
	}

	october, err := svc.CalendarEvents(ctx, "2024-10")
	require.NoError(t, err)
	require.Len(t, october, 2)
	assert.Equal(t, "2024-10-01", october[0].Title)

	all, err := svc.CalendarEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.CalendarEvents(ctx, "October")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateEventRemovesReplacedImage(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, ofType(models.EventCreated)).Return(nil)
	pub.On("Publish", mock.Anything, ofType(models.EventUpdated)).Return(nil).Twice()
	images := &recordingImages{}
	svc := newService(t, pub, images)
	ctx := context.Background()

	in := validInput()
	in.Image = "first.png"
	ev, err := svc.CreateEvent(ctx, 1, in)
	require.NoError(t, err)

	in = validInput()
	in.Title = "Renamed"
	updated, err := svc.UpdateEvent(ctx, 1, ev.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "first.png", updated.Image)

	in.Image = "second.png"
	updated, err = svc.UpdateEvent(ctx, 1, ev.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "second.png", updated.Image)

	assert.Eventually(t, func() bool {
		removed := images.Removed()
		return len(removed) == 1 && removed[0] == "first.png"
	}, time.Second, 10*time.Millisecond)
	pub.AssertExpectations(t)
}

func TestUpdateMissingEventIsNotFound(t *testing.T) {
	images := &recordingImages{}
	svc := newService(t, &MockPublisher{}, images)

	in := validInput()
	in.Image = "upload.png"
	_, err := svc.UpdateEvent(context.Background(), 1, 404, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Eventually(t, func() bool { return len(images.Removed()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDeleteEventSucceedsWhenImageRemovalFails(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, ofType(models.EventCreated)).Return(nil)
	pub.On("Publish", mock.Anything, ofType(models.EventDeleted)).Return(nil).Once()
	images := &recordingImages{err: errors.New("disk gone")}
	svc := newService(t, pub, images)
	ctx := context.Background()

	in := validInput()
	in.Image = "poster.png"
	ev, err := svc.CreateEvent(ctx, 1, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, 1, ev.ID))
	assert.Eventually(t, func() bool { return len(images.Removed()) == 1 }, time.Second, 10*time.Millisecond)

	_, err = svc.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.DeleteEvent(ctx, 1, ev.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	pub.AssertExpectations(t)
}
