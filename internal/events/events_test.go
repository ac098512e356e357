package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"feastly/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(orderID uint) Event {
	order := &models.Order{
		RestaurantID:          3,
		Status:                models.OrderStatusPending,
		EstimatedDeliveryTime: time.Date(2024, 5, 1, 12, 45, 0, 0, time.UTC),
	}
	order.ID = orderID
	return NewEvent(OrderCreated, order)
}

func TestHub_DeliversToSubscribersOfOrder(t *testing.T) {
	hub := NewHub(4)
	ctx := context.Background()

	mine, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()
	other, unsubscribeOther := hub.Subscribe(2)
	defer unsubscribeOther()

	require.NoError(t, hub.Publish(ctx, sampleEvent(1)))

	select {
	case evt := <-mine:
		assert.Equal(t, uint(1), evt.OrderID)
		assert.Equal(t, OrderCreated, evt.Type)
		assert.Equal(t, models.OrderStatusPending, evt.Status)
	case <-time.After(time.Second):
		t.Fatal("expected an event for order 1")
	}

	select {
	case evt := <-other:
		t.Fatalf("order 2 subscriber got %v", evt)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)

	ch, unsubscribe := hub.Subscribe(9)
	assert.Equal(t, 1, hub.Subscribers(9))

	unsubscribe()
	unsubscribe() // second call is a no-op

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers(9))

	assert.NoError(t, hub.Publish(context.Background(), sampleEvent(9)))
}

func TestHub_DropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub(1)
	ctx := context.Background()

	ch, unsubscribe := hub.Subscribe(5)
	defer unsubscribe()

	require.NoError(t, hub.Publish(ctx, sampleEvent(5)))
	require.NoError(t, hub.Publish(ctx, sampleEvent(5)))

	assert.Len(t, ch, 1)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	hub := NewHub(2)
	ch, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	boom := errors.New("boom")
	fanout := Fanout{failingPublisher{err: boom}, hub, Discard{}}

	err := fanout.Publish(context.Background(), sampleEvent(1))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1, "later publishers still run after a failure")

	assert.NoError(t, Fanout{hub}.Publish(context.Background(), sampleEvent(1)))
}

func TestDecodeEvent(t *testing.T) {
	payload, err := json.Marshal(sampleEvent(12))
	require.NoError(t, err)

	evt, err := DecodeEvent(ChannelName(12), payload)
	require.NoError(t, err)
	assert.Equal(t, uint(12), evt.OrderID)
	assert.Equal(t, "orders:12", ChannelName(12))

	_, err = DecodeEvent("orders:12", []byte("{"))
	assert.Error(t, err)

	_, err = DecodeEvent("other:12", payload)
	assert.Error(t, err)
}

func TestKafkaSink_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var evt Event
		if err := json.Unmarshal(val, &evt); err != nil {
			return err
		}
		if evt.OrderID != 7 {
			return errors.New("wrong order id")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaSinkWithProducer(producer, "orders")

	assert.NoError(t, sink.Publish(context.Background(), sampleEvent(7)))
	assert.ErrorIs(t, sink.Publish(context.Background(), sampleEvent(7)), sarama.ErrOutOfBrokers)

	require.NoError(t, sink.Close())
}
