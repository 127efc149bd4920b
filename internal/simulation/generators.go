package simulation

import (
	"math"
	"slices"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
)

const (
	DefaultTankCapacity = 1000.0

	PumpStartLevel = 30.0
	PumpStopLevel  = 90.0
	// DryRunLevel is the bottom tank level below which the pump may not run.
	DryRunLevel       = 15.0
	DryRunDescription = "Pump blocked: bottom tank below dry-run threshold"
	// PumpCycleMinutes is the run length scheduled whenever the pump is asked to run.
	PumpCycleMinutes = 45.0

	minPumpPower = 1800.0
	maxPumpPower = 2200.0

	batteryFullRuntime = 120.0 // minutes at 100% charge

	overrideThreshold    = 90.0
	minEstimatedDuration = 10.0

	weekendDurationFactor = 1.15
	holidayDurationFactor = 1.2

	NormalConfidence        = 94.0
	SensorFailureConfidence = 62.0
)

// TankLevel moves a tank one tick. The top tank fills while the pump runs
// and drains otherwise; the bottom tank does the opposite.
func TankLevel(rnd Rand, baseLevel, capacity float64, pumpRunning, isTop bool) domain.TankLevel {
	var delta float64
	switch {
	case pumpRunning && isTop:
		delta = between(rnd, 0.2, 0.5)
	case pumpRunning:
		delta = between(rnd, -0.5, -0.2)
	case isTop:
		delta = between(rnd, -0.3, -0.1)
	default:
		delta = between(rnd, 0.1, 0.3)
	}
	return TankAt(clamp(baseLevel, 0, 100)+delta, capacity)
}

// TankAt builds a tank reading whose volume agrees with its level.
func TankAt(level, capacity float64) domain.TankLevel {
	if !(capacity > 0) || math.IsInf(capacity, 0) {
		capacity = DefaultTankCapacity
	}
	level = clamp(level, 0, 100)
	return domain.TankLevel{
		Level:    level,
		Volume:   math.Round(level / 100 * capacity),
		Capacity: capacity,
	}
}

// ShouldPumpRun starts the pump below PumpStartLevel and keeps a running
// pump on until the top tank reaches PumpStopLevel, as long as the bottom
// tank holds at least DryRunLevel.
func ShouldPumpRun(topLevel, bottomLevel float64, running bool) bool {
	return bottomLevel >= DryRunLevel && wantsPump(topLevel, running)
}

// DryRunBlocked reports whether the top tank calls for the pump while the
// bottom tank is too low to feed it.
func DryRunBlocked(topLevel, bottomLevel float64, running bool) bool {
	return bottomLevel < DryRunLevel && wantsPump(topLevel, running)
}

func wantsPump(topLevel float64, running bool) bool {
	return topLevel < PumpStartLevel || (running && topLevel < PumpStopLevel)
}

// PumpStatus advances the pump state machine by one tick (one minute of runtime).
func PumpStatus(rnd Rand, now time.Time, current domain.PumpStatus, shouldRun bool, targetDuration float64) domain.PumpStatus {
	current.RemainingDuration = math.Max(0, current.RemainingDuration)
	current.TotalRuntime = math.Max(0, current.TotalRuntime)
	current.CurrentPower = math.Max(0, current.CurrentPower)

	if shouldRun && !current.IsRunning {
		return domain.PumpStatus{
			IsRunning:         true,
			RemainingDuration: math.Max(0, targetDuration),
			CurrentPower:      between(rnd, minPumpPower, maxPumpPower),
			TotalRuntime:      current.TotalRuntime,
			LastStartTime:     now,
		}
	}

	if !current.IsRunning {
		return Stopped(current)
	}

	remaining := math.Max(0, current.RemainingDuration-1)
	runtime := current.TotalRuntime + 1.0/60
	if remaining <= 0 || !shouldRun {
		current.TotalRuntime = runtime
		return Stopped(current)
	}

	return domain.PumpStatus{
		IsRunning:         true,
		RemainingDuration: remaining,
		CurrentPower:      math.Max(0, fluctuate(current.CurrentPower, 5, rnd)),
		TotalRuntime:      runtime,
		LastStartTime:     current.LastStartTime,
	}
}

// Stopped returns p with the stopped-pump invariant applied.
func Stopped(p domain.PumpStatus) domain.PumpStatus {
	p.IsRunning = false
	p.RemainingDuration = 0
	p.CurrentPower = 0
	return p
}

func outflowRange(scenario domain.Scenario) (float64, float64) {
	if scenario == domain.ScenarioLeakage {
		return 7.5, 9.5
	}
	return 1.8, 3.2
}

// FlowRates draws a fresh set of flows; nothing carries over between ticks.
func FlowRates(rnd Rand, pumpRunning bool, scenario domain.Scenario) domain.FlowRates {
	lo, hi := outflowRange(scenario)
	outflow := between(rnd, lo, hi)
	var inflow float64
	if pumpRunning {
		inflow = between(rnd, 12, 15)
	}
	return domain.FlowRates{
		Inflow:  inflow,
		Outflow: outflow,
		NetFlow: inflow - outflow,
	}
}

// BatteryStatus discharges while on battery and recharges otherwise.
func BatteryStatus(rnd Rand, current domain.BatteryStatus, onBattery bool) domain.BatteryStatus {
	charge := clamp(current.ChargeLevel, 0, 100)
	switch {
	case onBattery:
		charge = math.Max(0, charge-between(rnd, 0.1, 0.3))
	case charge < 100:
		charge = math.Min(100, charge+between(rnd, 0.05, 0.2))
	}
	return domain.BatteryStatus{
		IsOnBattery:      onBattery,
		ChargeLevel:      charge,
		EstimatedRuntime: BatteryRuntime(charge),
	}
}

// BatteryRuntime is the minutes left at the given charge percentage.
func BatteryRuntime(charge float64) float64 {
	return math.Round(clamp(charge, 0, 100) / 100 * batteryFullRuntime)
}

// AIPredictions estimates the next fill from the top tank level: the
// fuller the tank, the later the fill. Fills landing on a weekend or on a
// day marked Holiday in usage run longer.
func AIPredictions(rnd Rand, now time.Time, topLevel float64, usage []domain.UsageData, confidence float64) domain.AIPredictions {
	topLevel = clamp(topLevel, 0, 100)

	var hours float64
	switch {
	case topLevel > 70:
		hours = between(rnd, 8, 12)
	case topLevel > 40:
		hours = between(rnd, 4, 8)
	default:
		hours = between(rnd, 0.5, 4)
	}

	next := now.Add(time.Duration(hours * float64(time.Hour)))
	duration := math.Round(((100-topLevel)*0.6 + between(rnd, -5, 5)) * DurationFactor(next, usage))

	return Predictions(next, duration, confidence)
}

// DurationFactor is the fill duration multiplier for the calendar day of at.
func DurationFactor(at time.Time, usage []domain.UsageData) float64 {
	f := 1.0
	if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
		f *= weekendDurationFactor
	}
	y, m, d := at.Date()
	for _, u := range usage {
		uy, um, ud := u.Date.In(at.Location()).Date()
		if uy != y || um != m || ud != d {
			continue
		}
		if slices.Contains(u.Events, holidayEvent) {
			f *= holidayDurationFactor
		}
		break
	}
	return f
}

// Predictions applies the override and minimum-duration rules.
func Predictions(next time.Time, duration, confidence float64) domain.AIPredictions {
	confidence = clamp(confidence, 0, 100)
	if math.IsNaN(duration) {
		duration = minEstimatedDuration
	}
	return domain.AIPredictions{
		NextFillTime:      next,
		EstimatedDuration: math.Max(minEstimatedDuration, duration),
		Confidence:        confidence,
		CanOverride:       confidence < overrideThreshold,
	}
}

func ScenarioConfidence(scenario domain.Scenario) float64 {
	if scenario == domain.ScenarioSensorFailure {
		return SensorFailureConfidence
	}
	return NormalConfidence
}
