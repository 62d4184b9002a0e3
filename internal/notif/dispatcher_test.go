package notif

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
	"cleanuptracker/internal/notif/mocks"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Notification.MaxRetries = 2
	cfg.Notification.RetryDelay = time.Millisecond
	cfg.Notification.SendBuffer = 16
	cfg.Notification.WriteTimeout = time.Second
	return cfg
}

func validEventDraft() common.EventDraft {
	return common.EventDraft{
		Name:        "Cleanup Drive",
		Description: "Bring gloves",
		Date:        "2025-03-01",
		Time:        "10:00",
		Location:    "Park A",
	}
}

// assignID mimics the store assigning the event id.
func assignID(id uint64) func(context.Context, *dbmysql.Event) error {
	return func(_ context.Context, ev *dbmysql.Event) error {
		ev.EventID = id
		return nil
	}
}

func TestDispatcher_SubmitEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().RecordEvent(ctx, gomock.Any()).DoAndReturn(assignID(11)),
		store.EXPECT().UserIDs(gomock.Any()).Return([]string{"u1", "u2", "u3"}, nil),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(11), "New event: Cleanup Drive", []string{"u1", "u2", "u3"}).
			Return(nil, nil),
	)

	res, err := d.SubmitEvent(ctx, validEventDraft())

	require.NoError(t, err)
	assert.EqualValues(t, 11, res.EventID)
	assert.Equal(t, 3, res.Notified)
	assert.Nil(t, res.Degraded)

	require.Equal(t, 1, announcer.count())
	a := announcer.announced[0]
	assert.EqualValues(t, 11, a.EventID)
	assert.Equal(t, "Cleanup Drive", a.EventName)
	assert.Equal(t, "Bring gloves", a.Description)
	assert.Equal(t, "2025-03-01", a.Date)
	assert.Equal(t, "10:00", a.Time)
	assert.Equal(t, "Park A", a.Location)
}

func TestDispatcher_ValidationHasNoSideEffects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	draft := validEventDraft()
	draft.Location = ""

	_, err := d.SubmitEvent(context.Background(), draft)

	assert.ErrorIs(t, err, common.ErrValidation)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"location"}, verr.Fields)
	assert.Zero(t, announcer.count())
}

func TestDispatcher_DuplicateIsNotAnnounced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).Return(common.ErrDuplicate)

	_, err := d.SubmitEvent(context.Background(), validEventDraft())

	assert.ErrorIs(t, err, common.ErrDuplicate)
	assert.Zero(t, announcer.count())
}

func TestDispatcher_StoreUnavailableOnRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).
		Return(errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp: refused")))

	_, err := d.SubmitEvent(context.Background(), validEventDraft())

	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Zero(t, announcer.count())
}

func TestDispatcher_RetriesFailedRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	transient := errors.Join(common.ErrStoreUnavailable, errors.New("deadlock"))
	gomock.InOrder(
		store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(3)),
		store.EXPECT().UserIDs(gomock.Any()).Return([]string{"u1", "u2", "u3"}, nil),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(3), gomock.Any(), []string{"u1", "u2", "u3"}).
			Return([]string{"u2"}, transient),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(3), gomock.Any(), []string{"u2"}).
			Return(nil, nil),
	)

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err)
	assert.Equal(t, 3, res.Notified)
	assert.Nil(t, res.Degraded)
	assert.Equal(t, 1, announcer.count())
}

func TestDispatcher_DegradedAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	transient := errors.New("lock wait timeout")
	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(4))
	store.EXPECT().UserIDs(gomock.Any()).Return([]string{"u1", "u2"}, nil)
	store.EXPECT().FanOutNotifications(gomock.Any(), uint64(4), gomock.Any(), []string{"u1", "u2"}).
		Return([]string{"u2"}, transient)
	store.EXPECT().FanOutNotifications(gomock.Any(), uint64(4), gomock.Any(), []string{"u2"}).
		Return([]string{"u2"}, transient).Times(2)

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err, "a recorded event is a success even when delivery degrades")
	assert.EqualValues(t, 4, res.EventID)
	assert.Equal(t, 1, res.Notified)
	require.NotNil(t, res.Degraded)
	assert.Equal(t, []string{"u2"}, res.Degraded.Failed)
	assert.ErrorIs(t, res.Degraded, common.ErrDeliveryDegraded)
	assert.ErrorIs(t, res.Degraded, transient)
	assert.Equal(t, 1, announcer.count(), "announced exactly once")
}

func TestDispatcher_RecipientSetUnreadable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	cause := errors.New("users table locked")
	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(5))
	store.EXPECT().UserIDs(gomock.Any()).Return(nil, cause).Times(3)

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err)
	require.NotNil(t, res.Degraded)
	assert.Empty(t, res.Degraded.Failed)
	assert.ErrorIs(t, res.Degraded, cause)
	assert.Equal(t, 1, announcer.count())
}

func TestDispatcher_RetriesRecipientRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	gomock.InOrder(
		store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(5)),
		store.EXPECT().UserIDs(gomock.Any()).Return(nil, errors.New("users table locked")),
		store.EXPECT().UserIDs(gomock.Any()).Return([]string{"u1", "u2"}, nil),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(5), gomock.Any(), []string{"u1", "u2"}).
			Return(nil, nil),
	)

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.Nil(t, res.Degraded)
	assert.Equal(t, 1, announcer.count())
}

func TestDispatcher_ZeroRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(6))
	store.EXPECT().UserIDs(gomock.Any()).Return([]string{}, nil)
	store.EXPECT().FanOutNotifications(gomock.Any(), uint64(6), gomock.Any(), []string{}).Return(nil, nil)

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err)
	assert.Zero(t, res.Notified)
	assert.Nil(t, res.Degraded)
	assert.Equal(t, 1, announcer.count())
}

func TestDispatcher_FanOutOutlivesCallerCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	d := NewDispatcher(testConfig(), store, announcer, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev *dbmysql.Event) error {
				ev.EventID = 8
				cancel()
				return nil
			}),
		store.EXPECT().UserIDs(gomock.Any()).
			DoAndReturn(func(ctx context.Context) ([]string, error) {
				require.NoError(t, ctx.Err())
				return []string{"u1"}, nil
			}),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(8), gomock.Any(), []string{"u1"}).
			Return([]string{"u1"}, errors.New("timeout")),
		store.EXPECT().FanOutNotifications(gomock.Any(), uint64(8), gomock.Any(), []string{"u1"}).
			Return(nil, nil),
	)

	res, err := d.SubmitEvent(ctx, validEventDraft())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Nil(t, res.Degraded)
	assert.Equal(t, 1, announcer.count())
}

func TestDispatcher_FanOutTimeoutStopsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	announcer := &fakeAnnouncer{}
	cfg := testConfig()
	cfg.Notification.RetryDelay = time.Hour
	cfg.Notification.FanOutTimeout = 20 * time.Millisecond
	d := NewDispatcher(cfg, store, announcer, zaptest.NewLogger(t).Sugar())

	store.EXPECT().RecordEvent(gomock.Any(), gomock.Any()).DoAndReturn(assignID(9))
	store.EXPECT().UserIDs(gomock.Any()).Return([]string{"u1"}, nil)
	store.EXPECT().FanOutNotifications(gomock.Any(), uint64(9), gomock.Any(), []string{"u1"}).
		Return([]string{"u1"}, errors.New("timeout"))

	res, err := d.SubmitEvent(context.Background(), validEventDraft())

	require.NoError(t, err)
	require.NotNil(t, res.Degraded)
	assert.Equal(t, []string{"u1"}, res.Degraded.Failed)
	assert.Equal(t, 1, announcer.count())
}
