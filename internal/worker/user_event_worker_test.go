package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loginify/internal/model"
	"loginify/internal/repository"
	"loginify/internal/testutil"
)

func TestHandle_PersistsEvent(t *testing.T) {
	repo := repository.NewUserEventRepository(testutil.NewDB(t))
	w := NewUserEventWorker(nil, repo, "q", zap.NewNop())

	body, err := json.Marshal(model.UserEvent{
		ID:               42,
		Type:             model.UserEventUpdated,
		Username:         "alice2",
		PreviousUsername: "alice",
		Email:            "a@x.com",
		OccurredAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), body))

	events, err := repo.ListByUsername(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice2", events[0].Username)
	assert.Equal(t, uint(1), events[0].ID)
}

func TestHandle_RejectsMalformed(t *testing.T) {
	repo := repository.NewUserEventRepository(testutil.NewDB(t))
	w := NewUserEventWorker(nil, repo, "q", zap.NewNop())

	err := w.handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, errMalformedEvent)

	err = w.handle(context.Background(), []byte(`{"email":"a@x.com"}`))
	assert.ErrorIs(t, err, errMalformedEvent)
}

func TestClose_WithoutStart(t *testing.T) {
	w := NewUserEventWorker(nil, nil, "q", zap.NewNop())
	w.Close()
}

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAck) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

func TestSettle(t *testing.T) {
	storeErr := errors.New("database is down")
	cases := []struct {
		name        string
		err         error
		redelivered bool
		wantAck     bool
		wantRequeue bool
	}{
		{"persisted", nil, false, true, false},
		{"malformed", fmt.Errorf("%w: bad json", errMalformedEvent), false, false, false},
		{"store failure first delivery", storeErr, false, false, true},
		{"store failure redelivered", storeErr, true, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewUserEventWorker(nil, nil, "q", zap.NewNop())
			w.retryDelay = time.Millisecond
			ack := &recordingAck{}

			w.settle(context.Background(), amqp.Delivery{Acknowledger: ack, Redelivered: tc.redelivered}, tc.err)

			assert.Equal(t, tc.wantAck, ack.acked)
			assert.Equal(t, !tc.wantAck, ack.nacked)
			assert.Equal(t, tc.wantRequeue, ack.requeue)
		})
	}
}

func TestSettle_RetryDelayStopsOnCancel(t *testing.T) {
	w := NewUserEventWorker(nil, nil, "q", zap.NewNop())
	w.retryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ack := &recordingAck{}

	start := time.Now()
	w.settle(ctx, amqp.Delivery{Acknowledger: ack}, errors.New("database is down"))

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, ack.requeue)
}
