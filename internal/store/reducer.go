package store

import (
	"fmt"
	"math"
	"reflect"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
)

// reduce returns the state after t. It never mutates s's slices in place.
func reduce(s domain.DashboardState, t Transition) (domain.DashboardState, bool, error) {
	switch t := t.(type) {
	case UpdateTankLevels:
		next := s
		if t.TopTank != nil {
			next.TankLevels.TopTank = tank(*t.TopTank, s.TankLevels.TopTank)
		}
		if t.BottomTank != nil {
			next.TankLevels.BottomTank = tank(*t.BottomTank, s.TankLevels.BottomTank)
		}
		return next, next.TankLevels != s.TankLevels, nil

	case UpdatePumpStatus:
		p := t.Status
		p.RemainingDuration = math.Max(0, p.RemainingDuration)
		p.CurrentPower = math.Max(0, p.CurrentPower)
		p.TotalRuntime = math.Max(s.PumpStatus.TotalRuntime, p.TotalRuntime)
		if !p.IsRunning {
			p = simulation.Stopped(p)
		}
		next := s
		next.PumpStatus = p
		return next, !reflect.DeepEqual(p, s.PumpStatus), nil

	case UpdateFlowRates:
		r := t.Rates
		r.NetFlow = r.Inflow - r.Outflow
		next := s
		next.FlowRates = r
		return next, r != s.FlowRates, nil

	case UpdateBatteryStatus:
		b := t.Status
		b.ChargeLevel = simulation.Clamp(b.ChargeLevel, 0, 100)
		b.EstimatedRuntime = math.Max(0, b.EstimatedRuntime)
		next := s
		next.BatteryStatus = b
		return next, b != s.BatteryStatus, nil

	case UpdateAIPredictions:
		p := simulation.Predictions(t.Predictions.NextFillTime, t.Predictions.EstimatedDuration, t.Predictions.Confidence)
		next := s
		next.AIPredictions = p
		return next, !reflect.DeepEqual(p, s.AIPredictions), nil

	case AddAlert:
		if t.Alert.ID == "" {
			return s, false, fmt.Errorf("%w: alert without id", ErrInvalidTransition)
		}
		if !t.Alert.Type.Valid() || !t.Alert.Priority.Valid() {
			return s, false, fmt.Errorf("%w: alert %s has type %q priority %q", ErrInvalidTransition, t.Alert.ID, t.Alert.Type, t.Alert.Priority)
		}
		for _, a := range s.Alerts {
			if a.ID == t.Alert.ID {
				return s, false, fmt.Errorf("%w: duplicate alert %s", ErrInvalidTransition, t.Alert.ID)
			}
		}
		next := s
		next.Alerts = append([]domain.Alert{t.Alert}, s.Alerts...)
		return next, true, nil

	case AcknowledgeAlert:
		i := alertIndex(s.Alerts, t.ID)
		if i < 0 {
			return s, false, fmt.Errorf("alert %s: %w", t.ID, ErrNotFound)
		}
		if s.Alerts[i].IsAcknowledged {
			return s, false, nil
		}
		next := s
		next.Alerts = append([]domain.Alert(nil), s.Alerts...)
		next.Alerts[i].IsAcknowledged = true
		return next, true, nil

	case DismissAlert:
		i := alertIndex(s.Alerts, t.ID)
		if i < 0 {
			return s, false, fmt.Errorf("alert %s: %w", t.ID, ErrNotFound)
		}
		next := s
		next.Alerts = make([]domain.Alert, 0, len(s.Alerts)-1)
		next.Alerts = append(next.Alerts, s.Alerts[:i]...)
		next.Alerts = append(next.Alerts, s.Alerts[i+1:]...)
		return next, true, nil

	case AddFault:
		if t.Fault.ID == "" {
			return s, false, fmt.Errorf("%w: fault without id", ErrInvalidTransition)
		}
		if !t.Fault.Type.Valid() || !t.Fault.Severity.Valid() {
			return s, false, fmt.Errorf("%w: fault %s has type %q severity %q", ErrInvalidTransition, t.Fault.ID, t.Fault.Type, t.Fault.Severity)
		}
		for _, f := range s.Faults {
			if f.ID == t.Fault.ID {
				return s, false, fmt.Errorf("%w: duplicate fault %s", ErrInvalidTransition, t.Fault.ID)
			}
		}
		next := s
		next.Faults = append([]domain.Fault{t.Fault}, s.Faults...)
		return next, true, nil

	case ResolveFault:
		i := -1
		for j, f := range s.Faults {
			if f.ID == t.ID {
				i = j
				break
			}
		}
		if i < 0 {
			return s, false, fmt.Errorf("fault %s: %w", t.ID, ErrNotFound)
		}
		if s.Faults[i].IsResolved {
			return s, false, nil
		}
		next := s
		next.Faults = append([]domain.Fault(nil), s.Faults...)
		next.Faults[i].IsResolved = true
		return next, true, nil

	case UpdateUsageData:
		next := s
		next.UsageData = append([]domain.UsageData{}, t.Data...)
		return next, true, nil

	case UpdateEnvironmentalData:
		next := s
		next.EnvironmentalData = make([]domain.EnvironmentalData, len(t.Data))
		for i, e := range t.Data {
			e.Humidity = simulation.ClampHumidity(e.Humidity)
			next.EnvironmentalData[i] = e
		}
		return next, true, nil

	case StartSimulation:
		next := s
		next.IsSimulationRunning = true
		return next, !s.IsSimulationRunning, nil

	case PauseSimulation:
		next := s
		next.IsSimulationRunning = false
		return next, s.IsSimulationRunning, nil

	case SetSimulationSpeed:
		if !(t.Speed > 0) || math.IsInf(t.Speed, 0) {
			return s, false, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidTransition, t.Speed)
		}
		next := s
		next.SimulationSpeed = t.Speed
		return next, t.Speed != s.SimulationSpeed, nil

	case SetScenario:
		sc, err := domain.ParseScenario(string(t.Scenario))
		if err != nil {
			return s, false, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		next := s
		next.CurrentScenario = sc
		return next, sc != s.CurrentScenario, nil
	}

	return s, false, fmt.Errorf("%w: %s", ErrUnknownTransition, t.Name())
}

func tank(in, current domain.TankLevel) domain.TankLevel {
	capacity := in.Capacity
	if capacity <= 0 {
		capacity = current.Capacity
	}
	return simulation.TankAt(in.Level, capacity)
}

func alertIndex(alerts []domain.Alert, id string) int {
	for i, a := range alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
