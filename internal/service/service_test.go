package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/broker"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/cloud"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/engine"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func counter() simulation.IDFunc {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type fakeSaver struct {
	snap   domain.Snapshot
	alerts []domain.Alert
	faults []domain.Fault
	err    error
}

func (f *fakeSaver) SaveState(_ context.Context, snap *domain.Snapshot, alerts []domain.Alert, faults []domain.Fault) error {
	f.snap, f.alerts, f.faults = *snap, alerts, faults
	return f.err
}

func (f *fakeSaver) SaveEvents(_ context.Context, alerts []domain.Alert, faults []domain.Fault) error {
	f.alerts, f.faults = alerts, faults
	return f.err
}

func TestSnapshotService_FromMQTT(t *testing.T) {
	saver := &fakeSaver{}
	svc := &SnapshotService{repos: saver, now: func() time.Time { return now }}

	st := domain.Default(now)
	st.CurrentScenario = domain.ScenarioLeakage
	st.Alerts = []domain.Alert{{ID: "alert-1", Title: "Possible Leak Detected"}}
	payload, err := json.Marshal(st)
	require.NoError(t, err)

	require.NoError(t, svc.FromMQTT("water/state", payload))
	assert.Equal(t, now, saver.snap.Timestamp)
	assert.Equal(t, domain.ScenarioLeakage, saver.snap.Scenario)
	assert.Equal(t, 75.0, saver.snap.TopLevel)
	require.Len(t, saver.alerts, 1)
	assert.Empty(t, saver.faults)

	assert.Error(t, svc.FromMQTT("water/state", []byte("{")))

	saver.err = errors.New("db down")
	assert.ErrorIs(t, svc.FromMQTT("water/state", payload), saver.err)
}

func TestSnapshotService_EventFromMQTT(t *testing.T) {
	saver := &fakeSaver{}
	svc := &SnapshotService{repos: saver, now: func() time.Time { return now }}

	alert := domain.Alert{ID: "alert-1", Type: domain.AlertWarning, Title: "Low Tank Level", Priority: domain.PriorityMedium}
	payload, err := json.Marshal(broker.Event{Kind: broker.KindAlert, Alert: &alert})
	require.NoError(t, err)
	require.NoError(t, svc.EventFromMQTT("water/events", payload))
	assert.Equal(t, []domain.Alert{alert}, saver.alerts)
	assert.Empty(t, saver.faults)

	fault := domain.Fault{ID: "fault-1", Type: domain.FaultDryRun, Severity: domain.SeverityCritical}
	payload, err = json.Marshal(broker.Event{Kind: broker.KindFault, Fault: &fault})
	require.NoError(t, err)
	require.NoError(t, svc.EventFromMQTT("water/events", payload))
	assert.Equal(t, []domain.Fault{fault}, saver.faults)
	assert.Empty(t, saver.alerts)

	assert.Error(t, svc.EventFromMQTT("water/events", []byte(`{"kind":"alert"}`)))
	assert.Error(t, svc.EventFromMQTT("water/events", []byte(`{"kind":"rumour","alert":{"id":"x"}}`)))
	assert.Error(t, svc.EventFromMQTT("water/events", []byte(`[`)))

	saver.err = errors.New("db down")
	assert.ErrorIs(t, svc.EventFromMQTT("water/events", payload), saver.err)
}

func newTestDashboard(t *testing.T, scenario domain.Scenario) *Dashboard {
	t.Helper()
	dash, err := NewDashboard(engine.Config{
		Rand:   simulation.NewRand(1),
		IDs:    counter(),
		Now:    func() time.Time { return now },
		Logger: zerolog.Nop(),
	}, 2, scenario)
	require.NoError(t, err)
	return dash
}

func TestNewDashboard(t *testing.T) {
	dash := newTestDashboard(t, domain.ScenarioLeakage)
	s := dash.GetState()
	assert.Equal(t, 2.0, s.SimulationSpeed)
	assert.Equal(t, domain.ScenarioLeakage, s.CurrentScenario)
	assert.Len(t, s.UsageData, simulation.UsageWindowDays)
	assert.Len(t, s.EnvironmentalData, 25)
	assert.Len(t, s.Alerts, 1)
	assert.True(t, s.IsSimulationRunning)

	plain := newTestDashboard(t, domain.ScenarioNormal)
	assert.Empty(t, plain.GetState().Alerts)
}

func TestDashboard_DispatchLoadsScenarioPreset(t *testing.T) {
	dash := newTestDashboard(t, domain.ScenarioNormal)

	require.NoError(t, dash.Dispatch(store.SetScenario{Scenario: domain.ScenarioPowerFailure}))
	s := dash.GetState()
	assert.Equal(t, domain.ScenarioPowerFailure, s.CurrentScenario)
	assert.True(t, s.BatteryStatus.IsOnBattery)
	assert.Equal(t, 60.0, s.TankLevels.TopTank.Level)

	require.NoError(t, dash.Dispatch(store.PauseSimulation{}))
	assert.False(t, dash.GetState().IsSimulationRunning)
	require.NoError(t, dash.Tick(context.Background()))
	assert.Equal(t, 60.0, dash.GetState().TankLevels.TopTank.Level)

	assert.ErrorIs(t, dash.Dispatch(store.SetScenario{Scenario: "drought"}), store.ErrInvalidTransition)
}

type fakeSender struct {
	mu     sync.Mutex
	alerts []string
	faults []string
}

func (f *fakeSender) SendAlertNotification(_ context.Context, a domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a.ID)
	return nil
}

func (f *fakeSender) SendFaultNotification(_ context.Context, fl domain.Fault) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, fl.ID)
	return nil
}

func (f *fakeSender) sent() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts), len(f.faults)
}

type fakeLog struct {
	mu     sync.Mutex
	items  []cloud.EventItem
	closed []string
}

func (f *fakeLog) PutEvent(_ context.Context, item cloud.EventItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	return nil
}

func (f *fakeLog) CloseEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeLog) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), len(f.closed)
}

func TestNotifier(t *testing.T) {
	sender, log := &fakeSender{}, &fakeLog{}
	n := NewNotifier(sender, log, 600, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	s := domain.Default(now)
	s.Alerts = []domain.Alert{
		{ID: "alert-1", Type: domain.AlertEmergency, Priority: domain.PriorityHigh, Timestamp: now},
		{ID: "alert-2", Type: domain.AlertInfo, Priority: domain.PriorityLow, Timestamp: now},
	}
	s.Faults = []domain.Fault{
		{ID: "fault-1", Severity: domain.SeverityCritical, Timestamp: now},
		{ID: "fault-2", Severity: domain.SeverityMinor, Timestamp: now},
	}
	n.Observe(s)
	n.Observe(s)

	require.Eventually(t, func() bool {
		items, _ := log.counts()
		a, f := sender.sent()
		return items == 4 && a == 1 && f == 1
	}, time.Second, 5*time.Millisecond)

	s.Alerts[1].IsAcknowledged = true
	s.Faults[0].IsResolved = true
	n.Observe(s)
	n.Observe(s)

	require.Eventually(t, func() bool {
		_, closed := log.counts()
		return closed == 2
	}, time.Second, 5*time.Millisecond)

	log.mu.Lock()
	assert.ElementsMatch(t, []string{"alert-2", "fault-1"}, log.closed)
	assert.Equal(t, "alert", log.items[0].Kind)
	log.mu.Unlock()

	sender.mu.Lock()
	assert.Equal(t, []string{"alert-1"}, sender.alerts)
	assert.Equal(t, []string{"fault-1"}, sender.faults)
	sender.mu.Unlock()
}

func TestNotifier_ClosesDismissedEvents(t *testing.T) {
	log := &fakeLog{}
	n := NewNotifier(nil, log, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	s := domain.Default(now)
	s.Alerts = []domain.Alert{
		{ID: "alert-1", Type: domain.AlertWarning, Priority: domain.PriorityMedium},
		{ID: "alert-2", Type: domain.AlertInfo, Priority: domain.PriorityLow, IsAcknowledged: true},
	}
	n.Observe(s)

	s.Alerts = nil
	n.Observe(s)

	require.Eventually(t, func() bool {
		items, closed := log.counts()
		return items == 2 && closed == 1
	}, time.Second, 5*time.Millisecond)

	log.mu.Lock()
	assert.Equal(t, []string{"alert-1"}, log.closed)
	log.mu.Unlock()
	assert.Empty(t, n.alerts)
	assert.Empty(t, n.faults)
}

func TestNotifier_WithoutSender(t *testing.T) {
	log := &fakeLog{}
	n := NewNotifier(nil, log, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	s := domain.Default(now)
	s.Faults = []domain.Fault{{ID: "fault-1", Severity: domain.SeverityCritical}}
	n.Observe(s)

	require.Eventually(t, func() bool {
		items, _ := log.counts()
		return items == 1
	}, time.Second, 5*time.Millisecond)
}

type fakeReports struct {
	key         string
	contentType string
	body        []byte
	prefix      string
}

func (f *fakeReports) ListReports(_ context.Context, prefix string) ([]string, error) {
	f.prefix = prefix
	if f.key == "" {
		return nil, nil
	}
	return []string{f.key}, nil
}

func (f *fakeReports) UploadReport(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.key, f.body, f.contentType = key, data, contentType
	return "https://reports.example/" + key, nil
}

func TestReportService_ArchiveUsage(t *testing.T) {
	reports := &fakeReports{}
	svc := &ReportService{Reports: reports}

	st := domain.Default(now)
	st.UsageData = []domain.UsageData{{Date: now, Usage: 600, Predicted: 640}, {Date: now, Usage: 900, Predicted: 800}}

	url, err := svc.ArchiveUsage(context.Background(), st, now)
	require.NoError(t, err)
	assert.Equal(t, "usage/2026-03-04T100000.json", reports.key)
	assert.Equal(t, "https://reports.example/usage/2026-03-04T100000.json", url)
	assert.Equal(t, "application/json", reports.contentType)

	var got UsageReport
	require.NoError(t, json.Unmarshal(reports.body, &got))
	assert.Equal(t, 1500.0, got.TotalUsage)
	assert.Equal(t, 1440.0, got.TotalPredicted)
	assert.Len(t, got.Days, 2)

	keys, err := svc.ListArchives(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usage/", reports.prefix)
	assert.Equal(t, []string{"usage/2026-03-04T100000.json"}, keys)

	empty, err := (&ReportService{Reports: &fakeReports{}}).ListArchives(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = (&ReportService{}).ArchiveUsage(context.Background(), st, now)
	assert.ErrorIs(t, err, ErrCloudDisabled)
	_, err = (&ReportService{}).ListArchives(context.Background())
	assert.ErrorIs(t, err, ErrCloudDisabled)

	var disabled *Cloud
	assert.Nil(t, disabled.Reports())
}

type failingDispatcher struct{ err error }

func (f failingDispatcher) Dispatch(store.Transition) error { return f.err }

func TestMaintenanceService(t *testing.T) {
	svc := &MaintenanceService{
		FailureRatePerYear: 0.3,
		ServiceInterval:    365 * 24 * time.Hour,
		LastService:        now.Add(-400 * 24 * time.Hour),
		Now:                func() time.Time { return now },
		IDs:                counter(),
	}

	pred := svc.Predict(domain.PumpStatus{TotalRuntime: 120.5})
	assert.Equal(t, 120.5, pred.HoursRun)
	assert.GreaterOrEqual(t, pred.CurrentHealth, 0.0)
	assert.LessOrEqual(t, pred.CurrentHealth, 100.0)
	assert.GreaterOrEqual(t, pred.FailureRisk90Days, pred.FailureRisk30Days)
	assert.NotEmpty(t, pred.Recommendation)

	st := store.New(domain.Default(now), zerolog.Nop())
	_, raised, err := svc.Check(st.GetState(), st)
	require.NoError(t, err)
	require.True(t, raised)

	alerts := st.GetState().Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, "Maintenance Due", alerts[0].Title)
	assert.Equal(t, domain.AlertInfo, alerts[0].Type)

	_, raised, err = svc.Check(st.GetState(), st)
	require.NoError(t, err)
	assert.False(t, raised)
	assert.Len(t, st.GetState().Alerts, 1)

	boom := errors.New("rejected")
	_, raised, err = svc.Check(domain.Default(now), failingDispatcher{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.False(t, raised)
}

func TestMaintenanceService_RuntimeDrivesRisk(t *testing.T) {
	svc := &MaintenanceService{
		FailureRatePerYear: 0.3,
		RatedHours:         2000,
		ServiceInterval:    365 * 24 * time.Hour,
		LastService:        now.Add(-30 * 24 * time.Hour),
		Now:                func() time.Time { return now },
		IDs:                counter(),
	}

	fresh := svc.Predict(domain.PumpStatus{TotalRuntime: 0})
	worn := svc.Predict(domain.PumpStatus{TotalRuntime: 100_000})
	assert.Greater(t, worn.FailureRisk30Days, fresh.FailureRisk30Days)
	assert.Less(t, worn.CurrentHealth, fresh.CurrentHealth)
	assert.Equal(t, "Pump operating normally", fresh.Recommendation)
	assert.Equal(t, "URGENT: Schedule immediate pump inspection", worn.Recommendation)

	low := store.New(domain.Default(now), zerolog.Nop())
	_, raised, err := svc.Check(low.GetState(), low)
	require.NoError(t, err)
	assert.False(t, raised)

	initial := domain.Default(now)
	initial.PumpStatus.TotalRuntime = 100_000
	high := store.New(initial, zerolog.Nop())
	pred, raised, err := svc.Check(high.GetState(), high)
	require.NoError(t, err)
	require.True(t, raised)
	assert.Greater(t, pred.FailureRisk30Days, 50.0)
	require.Len(t, high.GetState().Alerts, 1)
	assert.Equal(t, "Maintenance Due", high.GetState().Alerts[0].Title)

	unrecorded := *svc
	unrecorded.LastService = time.Time{}
	p := unrecorded.Predict(domain.PumpStatus{})
	assert.Equal(t, now, p.NextServiceDate)
	assert.Zero(t, p.DaysUntilService)
}

func TestGenerateRecommendation(t *testing.T) {
	assert.Equal(t, "URGENT: Schedule immediate pump inspection", generateRecommendation(0.6, 90))
	assert.Equal(t, "URGENT: Schedule immediate pump inspection", generateRecommendation(0.1, 50))
	assert.Equal(t, "Schedule pump maintenance within next 30 days", generateRecommendation(0.35, 90))
	assert.Equal(t, "Plan pump maintenance within next 90 days", generateRecommendation(0.2, 90))
	assert.Equal(t, "Pump operating normally", generateRecommendation(0.05, 95))
}
