package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseInterval  = 5 * time.Second
	DefaultEventInterval = 30 * time.Second

	AlertProbability  = 0.10
	FaultProbability  = 0.05
	OutageProbability = 0.01

	environmentHours = 24
)

type Config struct {
	BaseInterval  time.Duration
	EventInterval time.Duration
	Rand          simulation.Rand
	IDs           simulation.IDFunc
	Now           func() time.Time
	Logger        zerolog.Logger
}

// Driver runs the tick and event timers against a Store. Both tickers are
// owned by the goroutine started in Run, so they are never replaced
// concurrently and never overlap.
type Driver struct {
	store *store.Store
	cfg   Config

	// rndMu serializes draws; Tick may be called from the HTTP layer while
	// the loop is running.
	rndMu sync.Mutex

	control chan schedule
}

type schedule struct {
	running bool
	speed   float64
}

func New(st *store.Store, cfg Config) *Driver {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = DefaultBaseInterval
	}
	if cfg.EventInterval <= 0 {
		cfg.EventInterval = DefaultEventInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = simulation.NewRand(0)
	}
	if cfg.IDs == nil {
		cfg.IDs = simulation.NewID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Driver{
		store:   st,
		cfg:     cfg,
		control: make(chan schedule, 1),
	}
}

// TickInterval is the tick period at the given speed.
func (d *Driver) TickInterval(speed float64) time.Duration {
	if !(speed > 0) {
		speed = 1
	}
	f := float64(d.cfg.BaseInterval) / speed
	if f >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if f < float64(time.Millisecond) {
		return time.Millisecond
	}
	return time.Duration(f)
}

// Run blocks until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	unsubscribe := d.store.Subscribe(func(s domain.DashboardState) {
		d.notify(schedule{running: s.IsSimulationRunning, speed: s.SimulationSpeed})
	})
	defer unsubscribe()

	st := d.store.GetState()
	current := schedule{running: st.IsSimulationRunning, speed: st.SimulationSpeed}

	tick := time.NewTicker(d.TickInterval(current.speed))
	events := time.NewTicker(d.cfg.EventInterval)
	defer tick.Stop()
	defer events.Stop()
	if !current.running {
		tick.Stop()
		events.Stop()
	}

	d.cfg.Logger.Info().
		Bool("running", current.running).
		Float64("speed", current.speed).
		Dur("interval", d.TickInterval(current.speed)).
		Msg("simulation driver started")

	for {
		select {
		case <-ctx.Done():
			d.cfg.Logger.Info().Msg("simulation driver stopped")
			return nil

		case next := <-d.control:
			if next == current {
				continue
			}
			switch {
			case !next.running:
				tick.Stop()
				events.Stop()
			case !current.running:
				tick.Reset(d.TickInterval(next.speed))
				events.Reset(d.cfg.EventInterval)
			default:
				tick.Reset(d.TickInterval(next.speed))
			}
			d.cfg.Logger.Debug().
				Bool("running", next.running).
				Float64("speed", next.speed).
				Msg("simulation rescheduled")
			current = next

		case <-tick.C:
			if !current.running {
				continue
			}
			if err := d.Tick(ctx); err != nil {
				d.cfg.Logger.Error().Err(err).Msg("tick failed")
			}

		case <-events.C:
			if !current.running {
				continue
			}
			if err := d.EmitEvents(ctx); err != nil {
				d.cfg.Logger.Error().Err(err).Msg("event emission failed")
			}
		}
	}
}

// notify keeps only the latest schedule in the control channel.
func (d *Driver) notify(s schedule) {
	for {
		select {
		case d.control <- s:
			return
		default:
		}
		select {
		case <-d.control:
		default:
		}
	}
}

// Tick runs one simulation step. Each stage consumes the values computed
// by the stage before it in this tick, not the stored ones.
func (d *Driver) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.rndMu.Lock()
	defer d.rndMu.Unlock()

	s := d.store.GetState()
	if !s.IsSimulationRunning {
		return nil
	}
	now := d.cfg.Now()
	rnd := d.cfg.Rand

	top := simulation.TankLevel(rnd, s.TankLevels.TopTank.Level, s.TankLevels.TopTank.Capacity, s.PumpStatus.IsRunning, true)
	bottom := simulation.TankLevel(rnd, s.TankLevels.BottomTank.Level, s.TankLevels.BottomTank.Capacity, s.PumpStatus.IsRunning, false)
	if err := d.store.Dispatch(store.UpdateTankLevels{TopTank: &top, BottomTank: &bottom}); err != nil {
		return fmt.Errorf("tank levels: %w", err)
	}

	shouldRun := simulation.ShouldPumpRun(top.Level, bottom.Level, s.PumpStatus.IsRunning)
	var target float64
	if shouldRun {
		target = simulation.PumpCycleMinutes
	}
	pump := simulation.PumpStatus(rnd, now, s.PumpStatus, shouldRun, target)
	if err := d.store.Dispatch(store.UpdatePumpStatus{Status: pump}); err != nil {
		return fmt.Errorf("pump status: %w", err)
	}

	if simulation.DryRunBlocked(top.Level, bottom.Level, s.PumpStatus.IsRunning) && !openFault(s.Faults, domain.FaultDryRun) {
		f := simulation.NewFault(d.cfg.IDs, now, domain.FaultDryRun, domain.SeverityCritical, simulation.DryRunDescription)
		if err := d.store.Dispatch(store.AddFault{Fault: f}); err != nil {
			return fmt.Errorf("dry run fault: %w", err)
		}
		d.cfg.Logger.Warn().Float64("bottom_level", bottom.Level).Msg("pump blocked by dry-run guard")
	}

	flows := simulation.FlowRates(rnd, pump.IsRunning, s.CurrentScenario)
	if err := d.store.Dispatch(store.UpdateFlowRates{Rates: flows}); err != nil {
		return fmt.Errorf("flow rates: %w", err)
	}

	onBattery := s.CurrentScenario == domain.ScenarioPowerFailure || simulation.Chance(rnd, OutageProbability)
	battery := simulation.BatteryStatus(rnd, s.BatteryStatus, onBattery)
	if err := d.store.Dispatch(store.UpdateBatteryStatus{Status: battery}); err != nil {
		return fmt.Errorf("battery status: %w", err)
	}

	ai := simulation.AIPredictions(rnd, now, top.Level, s.UsageData, simulation.ScenarioConfidence(s.CurrentScenario))
	if err := d.store.Dispatch(store.UpdateAIPredictions{Predictions: ai}); err != nil {
		return fmt.Errorf("ai predictions: %w", err)
	}
	return nil
}

// EmitEvents rolls independently for one alert and one fault.
func (d *Driver) EmitEvents(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.rndMu.Lock()
	defer d.rndMu.Unlock()

	now := d.cfg.Now()
	if simulation.Chance(d.cfg.Rand, AlertProbability) {
		a := simulation.RandomAlert(d.cfg.Rand, now, d.cfg.IDs)
		if err := d.store.Dispatch(store.AddAlert{Alert: a}); err != nil {
			return fmt.Errorf("add alert: %w", err)
		}
		d.cfg.Logger.Info().Str("id", a.ID).Str("title", a.Title).Msg("alert raised")
	}
	if simulation.Chance(d.cfg.Rand, FaultProbability) {
		f := simulation.RandomFault(d.cfg.Rand, now, d.cfg.IDs)
		if err := d.store.Dispatch(store.AddFault{Fault: f}); err != nil {
			return fmt.Errorf("add fault: %w", err)
		}
		d.cfg.Logger.Info().Str("id", f.ID).Str("type", string(f.Type)).Msg("fault raised")
	}
	return nil
}

// Seed fills usage and environmental history when it is missing.
func (d *Driver) Seed() error {
	d.rndMu.Lock()
	defer d.rndMu.Unlock()

	s := d.store.GetState()
	now := d.cfg.Now()
	if len(s.UsageData) == 0 {
		if err := d.store.Dispatch(store.UpdateUsageData{Data: simulation.WeeklyUsage(d.cfg.Rand, now)}); err != nil {
			return err
		}
	}
	if len(s.EnvironmentalData) == 0 {
		if err := d.store.Dispatch(store.UpdateEnvironmentalData{Data: simulation.Environmental(d.cfg.Rand, now, environmentHours)}); err != nil {
			return err
		}
	}
	return nil
}

// ApplyScenario switches scenario and loads its preset. Seeded alerts and
// faults are added on top of the existing ones.
func (d *Driver) ApplyScenario(sc domain.Scenario) error {
	if _, err := domain.ParseScenario(string(sc)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidTransition, err)
	}
	d.rndMu.Lock()
	defer d.rndMu.Unlock()

	if err := d.store.Dispatch(store.SetScenario{Scenario: sc}); err != nil {
		return err
	}

	p := simulation.ScenarioPreset(sc, d.cfg.Now(), d.store.GetState(), d.cfg.IDs)
	ts := []store.Transition{
		store.UpdateTankLevels{TopTank: &p.TankLevels.TopTank, BottomTank: &p.TankLevels.BottomTank},
		store.UpdateAIPredictions{Predictions: p.AIPredictions},
	}
	if p.PumpStatus != nil {
		ts = append(ts, store.UpdatePumpStatus{Status: *p.PumpStatus})
	}
	if p.FlowRates != nil {
		ts = append(ts, store.UpdateFlowRates{Rates: *p.FlowRates})
	}
	if p.BatteryStatus != nil {
		ts = append(ts, store.UpdateBatteryStatus{Status: *p.BatteryStatus})
	}
	for _, a := range p.Alerts {
		ts = append(ts, store.AddAlert{Alert: a})
	}
	for _, f := range p.Faults {
		ts = append(ts, store.AddFault{Fault: f})
	}
	if err := d.store.DispatchAll(ts...); err != nil {
		return err
	}
	d.cfg.Logger.Info().Str("scenario", string(sc)).Msg("scenario applied")
	return nil
}

func openFault(faults []domain.Fault, kind domain.FaultType) bool {
	for _, f := range faults {
		if f.Type == kind && !f.IsResolved {
			return true
		}
	}
	return false
}
