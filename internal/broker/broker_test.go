package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu       sync.Mutex
	sent     []published
	handlers map[string]mqtt.MessageHandler
	subErr   error
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = map[string]mqtt.MessageHandler{}
	}
	c.handlers[topic] = cb
	return doneToken{err: c.subErr}
}

func (c *fakeClient) onTopic(topic string) []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []published
	for _, p := range c.sent {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recorder struct {
	mu  sync.Mutex
	got []store.Transition
	err error
}

func (r *recorder) Dispatch(t store.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, t)
	return r.err
}

func TestPublisher_StateAndEvents(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "water/state", "water/events", zerolog.Nop())

	s := domain.Default(time.Now())
	s.Alerts = []domain.Alert{{ID: "alert-1", Title: "Low Tank Level"}}
	s.Faults = []domain.Fault{{ID: "fault-1", Type: domain.FaultDryRun}}
	p.Observe(s)
	p.Observe(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(client.onTopic("water/state")) == 1 && len(client.onTopic("water/events")) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	state := client.onTopic("water/state")[0]
	assert.True(t, state.retained)
	var decoded domain.DashboardState
	require.NoError(t, json.Unmarshal(state.payload, &decoded))
	assert.Equal(t, 75.0, decoded.TankLevels.TopTank.Level)

	kinds := map[string]bool{}
	for _, e := range client.onTopic("water/events") {
		assert.False(t, e.retained)
		var ev Event
		require.NoError(t, json.Unmarshal(e.payload, &ev))
		kinds[ev.Kind] = true
	}
	assert.Equal(t, map[string]bool{"alert": true, "fault": true}, kinds)
}

func TestPublisher_ForgetsDismissedEvents(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "s", "e", zerolog.Nop())

	s := domain.Default(time.Now())
	s.Alerts = []domain.Alert{{ID: "alert-1"}, {ID: "alert-2"}}
	p.Observe(s)
	s.Alerts = []domain.Alert{{ID: "alert-2"}}
	p.Observe(s)

	assert.Len(t, p.seenAlerts, 1)
	assert.Contains(t, p.seenAlerts, "alert-2")
	assert.Len(t, p.events, 2)
}

func TestPublisher_CoalescesState(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "s", "e", zerolog.Nop())

	for i := 1; i <= 5; i++ {
		s := domain.Default(time.Now())
		s.SimulationSpeed = float64(i)
		p.Observe(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool { return len(client.onTopic("s")) == 1 }, time.Second, 5*time.Millisecond)
	var decoded domain.DashboardState
	require.NoError(t, json.Unmarshal(client.onTopic("s")[0].payload, &decoded))
	assert.Equal(t, 5.0, decoded.SimulationSpeed)
}

func TestHandleCommand(t *testing.T) {
	r := &recorder{}

	require.NoError(t, HandleCommand([]byte(`{"type":"ACKNOWLEDGE_ALERT","payload":"alert-9"}`), r))
	require.NoError(t, HandleCommand([]byte(`{"type":"PAUSE_SIMULATION"}`), r))
	assert.Equal(t, []store.Transition{store.AcknowledgeAlert{ID: "alert-9"}, store.PauseSimulation{}}, r.got)

	assert.Error(t, HandleCommand([]byte(`not json`), r))
	assert.ErrorIs(t, HandleCommand([]byte(`{"type":"EXPLODE"}`), r), store.ErrUnknownTransition)
	assert.Len(t, r.got, 2)

	r.err = store.ErrNotFound
	assert.ErrorIs(t, HandleCommand([]byte(`{"type":"RESOLVE_FAULT","payload":"f"}`), r), store.ErrNotFound)
}

func TestListenCommands(t *testing.T) {
	client := &fakeClient{}
	r := &recorder{}
	require.NoError(t, ListenCommands(client, "water/commands", r, zerolog.Nop()))

	handler := client.handlers["water/commands"]
	require.NotNil(t, handler)
	handler(nil, fakeMessage{topic: "water/commands", payload: []byte(`{"type":"SET_SIMULATION_SPEED","payload":3}`)})
	handler(nil, fakeMessage{topic: "water/commands", payload: []byte(`garbage`)})

	assert.Equal(t, []store.Transition{store.SetSimulationSpeed{Speed: 3}}, r.got)

	failing := &fakeClient{subErr: errors.New("not authorized")}
	assert.Error(t, ListenCommands(failing, "water/commands", r, zerolog.Nop()))
}
