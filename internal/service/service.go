package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/broker"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/engine"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/repository"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/jmoiron/sqlx"
)

var ErrCloudDisabled = errors.New("cloud services not enabled")

type Dispatcher interface {
	Dispatch(t store.Transition) error
}

// Services is the persistence side used by the ingestor.
type Services struct {
	Repos     *repository.Repos
	Snapshots *SnapshotService
}

func New(db *sqlx.DB) *Services {
	repos := repository.New(db)
	return &Services{
		Repos:     repos,
		Snapshots: &SnapshotService{repos: repos, now: time.Now},
	}
}

type stateSaver interface {
	SaveState(ctx context.Context, snap *domain.Snapshot, alerts []domain.Alert, faults []domain.Fault) error
	SaveEvents(ctx context.Context, alerts []domain.Alert, faults []domain.Fault) error
}

type SnapshotService struct {
	repos stateSaver
	now   func() time.Time
}

// FromMQTT persists a dashboard state published on the state topic.
func (s *SnapshotService) FromMQTT(topic string, payload []byte) error {
	var st domain.DashboardState
	if err := json.Unmarshal(payload, &st); err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}
	snap := domain.SnapshotOf(st, s.now())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.repos.SaveState(ctx, &snap, st.Alerts, st.Faults)
}

// EventFromMQTT persists one alert or fault announced on the event topic.
func (s *SnapshotService) EventFromMQTT(topic string, payload []byte) error {
	var e broker.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}
	var (
		alerts []domain.Alert
		faults []domain.Fault
	)
	switch {
	case e.Kind == broker.KindAlert && e.Alert != nil:
		alerts = []domain.Alert{*e.Alert}
	case e.Kind == broker.KindFault && e.Fault != nil:
		faults = []domain.Fault{*e.Fault}
	default:
		return fmt.Errorf("decode %s: malformed %q event", topic, e.Kind)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.repos.SaveEvents(ctx, alerts, faults)
}

// Dashboard is the command surface shared by the HTTP API and the MQTT
// command listener.
type Dashboard struct {
	Store  *store.Store
	Driver *engine.Driver
}

func (d *Dashboard) GetState() domain.DashboardState { return d.Store.GetState() }

func (d *Dashboard) Subscribe(fn func(domain.DashboardState)) func() {
	return d.Store.Subscribe(fn)
}

// Dispatch forwards t to the store. Scenario changes also load the
// scenario preset.
func (d *Dashboard) Dispatch(t store.Transition) error {
	if sc, ok := t.(store.SetScenario); ok {
		return d.Driver.ApplyScenario(sc.Scenario)
	}
	return d.Store.Dispatch(t)
}

func (d *Dashboard) Tick(ctx context.Context) error { return d.Driver.Tick(ctx) }
