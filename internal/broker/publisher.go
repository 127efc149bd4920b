package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

// Client is the part of mqtt.Client the broker package uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

const (
	KindAlert = "alert"
	KindFault = "fault"
)

// Event announces a newly raised alert or fault.
type Event struct {
	Kind  string        `json:"kind"`
	Alert *domain.Alert `json:"alert,omitempty"`
	Fault *domain.Fault `json:"fault,omitempty"`
}

// Publisher mirrors committed state onto MQTT: the latest snapshot on the
// state topic (retained) and every new alert or fault on the event topic.
type Publisher struct {
	client     Client
	stateTopic string
	eventTopic string
	logger     zerolog.Logger

	latest chan domain.DashboardState
	events chan Event

	seenAlerts map[string]struct{}
	seenFaults map[string]struct{}
}

func NewPublisher(client Client, stateTopic, eventTopic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client:     client,
		stateTopic: stateTopic,
		eventTopic: eventTopic,
		logger:     logger,
		latest:     make(chan domain.DashboardState, 1),
		events:     make(chan Event, 64),
		seenAlerts: map[string]struct{}{},
		seenFaults: map[string]struct{}{},
	}
}

// Observe is a store subscriber. It never blocks the dispatching goroutine:
// older snapshots are dropped in favour of the newest one. Only ids still in
// the snapshot are remembered.
func (p *Publisher) Observe(s domain.DashboardState) {
	alerts := make(map[string]struct{}, len(s.Alerts))
	for i := range s.Alerts {
		a := s.Alerts[i]
		alerts[a.ID] = struct{}{}
		if _, ok := p.seenAlerts[a.ID]; !ok {
			p.enqueue(Event{Kind: KindAlert, Alert: &a})
		}
	}
	faults := make(map[string]struct{}, len(s.Faults))
	for i := range s.Faults {
		f := s.Faults[i]
		faults[f.ID] = struct{}{}
		if _, ok := p.seenFaults[f.ID]; !ok {
			p.enqueue(Event{Kind: KindFault, Fault: &f})
		}
	}
	p.seenAlerts, p.seenFaults = alerts, faults

	for {
		select {
		case p.latest <- s:
			return
		default:
		}
		select {
		case <-p.latest:
		default:
		}
	}
}

func (p *Publisher) enqueue(e Event) {
	select {
	case p.events <- e:
	default:
		p.logger.Warn().Str("kind", e.Kind).Msg("event queue full, dropping")
	}
}

// Run publishes queued messages until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-p.latest:
			if err := p.publish(p.stateTopic, true, s); err != nil {
				p.logger.Error().Err(err).Msg("publish state")
			}
		case e := <-p.events:
			if err := p.publish(p.eventTopic, false, e); err != nil {
				p.logger.Error().Err(err).Str("kind", e.Kind).Msg("publish event")
			}
		}
	}
}

func (p *Publisher) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
