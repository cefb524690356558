package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDispatcher_PublishWithoutRedisGoesStraightToHub(t *testing.T) {
	hub := NewHub(staticRoster{}, 0, zap.NewNop())
	d := New(nil, hub, zap.NewNop())

	sub := hub.Subscribe(domain.Actor{ID: "nurse-1", Role: domain.RoleNurse})
	d.Publish(escalationEvent(t))

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, "escalation:created", events[0].Name)
}

func TestDispatcher_PublishNilEventIsNoOp(t *testing.T) {
	hub := NewHub(staticRoster{}, 0, zap.NewNop())
	d := New(nil, hub, zap.NewNop())

	sub := hub.Subscribe(domain.Actor{ID: "nurse-1", Role: domain.RoleNurse})
	d.Publish(nil)
	assert.Empty(t, drain(sub))
}

func TestDispatcher_PublishAppendsToStream(t *testing.T) {
	client := setupRedis(t)
	hub := NewHub(staticRoster{}, 0, zap.NewNop())
	d := New(client, hub, zap.NewNop())

	ev := escalationEvent(t)
	d.Publish(ev)

	var entries []redis.XMessage
	require.Eventually(t, func() bool {
		var err error
		entries, err = client.XRange(context.Background(), Stream, "-", "+").Result()
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	data, ok := entries[0].Values["data"].(string)
	require.True(t, ok)
	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, ev.Name, got.Name)
	assert.Equal(t, ev.EntityID, got.EntityID)
	assert.Equal(t, ev.Seq, got.Seq)
}

func TestDispatcher_StreamKeepsCommitOrderForOneEntity(t *testing.T) {
	client := setupRedis(t)
	hub := NewHub(staticRoster{}, 0, zap.NewNop())
	d := New(client, hub, zap.NewNop())

	// Successive commits to the same escalation, published back to back the
	// way two writers racing on refetched base versions would.
	const n = 20
	for seq := int64(1); seq <= n; seq++ {
		typ := domain.EventUpdated
		if seq == 1 {
			typ = domain.EventCreated
		}
		ev, err := domain.NewEvent(typ, domain.KindEscalation, "esc-1",
			domain.Escalation{ID: "esc-1", MotherID: "mother-1", CHWID: "chw-1",
				Status: domain.EscalationPending}, time.Now().UTC())
		require.NoError(t, err)
		ev.Seq = seq
		d.Publish(ev)
	}
	d.Close()

	entries, err := client.XRange(context.Background(), Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, n)
	for i, entry := range entries {
		data, ok := entry.Values["data"].(string)
		require.True(t, ok)
		var got domain.Event
		require.NoError(t, json.Unmarshal([]byte(data), &got))
		assert.Equal(t, int64(i+1), got.Seq, "stream entry %d out of order", i)
	}
}

func TestStreamConsumer_DeliversStreamEventsToHub(t *testing.T) {
	client := setupRedis(t)
	hub := NewHub(staticRoster{}, 0, zap.NewNop())

	sub := hub.Subscribe(domain.Actor{ID: "nurse-1", Role: domain.RoleNurse})

	// Publish first so the stream exists before the consumer group is created;
	// the group starts at "0" and replays the entry.
	d := New(client, hub, zap.NewNop())
	ev := escalationEvent(t)
	d.Publish(ev)
	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), Stream).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewStreamConsumer(client, hub, "test-consumer", zap.NewNop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Start(ctx)
	}()

	select {
	case got := <-sub.C:
		assert.Equal(t, ev.Name, got.Name)
		assert.Equal(t, ev.EntityID, got.EntityID)
	case <-time.After(5 * time.Second):
		t.Fatal("event never reached the hub")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}
