package domain

import (
	"fmt"
	"time"
)

type TankLevel struct {
	Level    float64 `db:"level" json:"level"`
	Volume   float64 `db:"volume" json:"volume"`
	Capacity float64 `db:"capacity" json:"capacity"`
}

type TankLevels struct {
	TopTank    TankLevel `json:"topTank"`
	BottomTank TankLevel `json:"bottomTank"`
}

type PumpStatus struct {
	IsRunning         bool      `db:"is_running" json:"isRunning"`
	RemainingDuration float64   `db:"remaining_duration" json:"remainingDuration"` // minutes
	CurrentPower      float64   `db:"current_power" json:"currentPower"`           // watts
	TotalRuntime      float64   `db:"total_runtime" json:"totalRuntime"`           // hours
	LastStartTime     time.Time `db:"last_start_time" json:"lastStartTime"`
}

// FlowRates are in L/min. NetFlow is always Inflow - Outflow.
type FlowRates struct {
	Inflow  float64 `db:"inflow" json:"inflow"`
	Outflow float64 `db:"outflow" json:"outflow"`
	NetFlow float64 `db:"net_flow" json:"netFlow"`
}

type BatteryStatus struct {
	IsOnBattery      bool    `db:"is_on_battery" json:"isOnBattery"`
	ChargeLevel      float64 `db:"charge_level" json:"chargeLevel"`
	EstimatedRuntime float64 `db:"estimated_runtime" json:"estimatedRuntime"` // minutes
}

type AIPredictions struct {
	NextFillTime      time.Time `db:"next_fill_time" json:"nextFillTime"`
	EstimatedDuration float64   `db:"estimated_duration" json:"estimatedDuration"` // minutes
	Confidence        float64   `db:"confidence" json:"confidence"`
	CanOverride       bool      `db:"can_override" json:"canOverride"`
}

type AlertType string

const (
	AlertEmergency AlertType = "emergency"
	AlertWarning   AlertType = "warning"
	AlertInfo      AlertType = "info"
)

type AlertPriority string

const (
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertEmergency, AlertWarning, AlertInfo:
		return true
	}
	return false
}

func (p AlertPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Alert struct {
	ID             string        `db:"id" json:"id"`
	Type           AlertType     `db:"type" json:"type"`
	Title          string        `db:"title" json:"title"`
	Message        string        `db:"message" json:"message"`
	Timestamp      time.Time     `db:"timestamp" json:"timestamp"`
	IsAcknowledged bool          `db:"is_acknowledged" json:"isAcknowledged"`
	Priority       AlertPriority `db:"priority" json:"priority"`
}

type FaultType string

const (
	FaultSensorFailure FaultType = "sensor_failure"
	FaultValveStuck    FaultType = "valve_stuck"
	FaultDryRun        FaultType = "dry_run"
	FaultOverflowRisk  FaultType = "overflow_risk"
)

type FaultSeverity string

const (
	SeverityCritical FaultSeverity = "critical"
	SeverityMajor    FaultSeverity = "major"
	SeverityMinor    FaultSeverity = "minor"
)

func (t FaultType) Valid() bool {
	switch t {
	case FaultSensorFailure, FaultValveStuck, FaultDryRun, FaultOverflowRisk:
		return true
	}
	return false
}

func (s FaultSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

type Fault struct {
	ID          string        `db:"id" json:"id"`
	Type        FaultType     `db:"type" json:"type"`
	Description string        `db:"description" json:"description"`
	Severity    FaultSeverity `db:"severity" json:"severity"`
	Timestamp   time.Time     `db:"timestamp" json:"timestamp"`
	IsResolved  bool          `db:"is_resolved" json:"isResolved"`
}

type UsageData struct {
	Date      time.Time `db:"date" json:"date"`
	Usage     float64   `db:"usage" json:"usage"`         // liters
	Predicted float64   `db:"predicted" json:"predicted"` // liters
	Events    []string  `db:"-" json:"events,omitempty"`
}

type EnvironmentalData struct {
	Temperature float64   `db:"temperature" json:"temperature"`
	Humidity    float64   `db:"humidity" json:"humidity"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

type Scenario string

const (
	ScenarioNormal        Scenario = "normal"
	ScenarioLeakage       Scenario = "leakage"
	ScenarioPowerFailure  Scenario = "power_failure"
	ScenarioSensorFailure Scenario = "sensor_failure"
)

func ParseScenario(s string) (Scenario, error) {
	switch sc := Scenario(s); sc {
	case ScenarioNormal, ScenarioLeakage, ScenarioPowerFailure, ScenarioSensorFailure:
		return sc, nil
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

type DashboardState struct {
	TankLevels          TankLevels          `json:"tankLevels"`
	PumpStatus          PumpStatus          `json:"pumpStatus"`
	FlowRates           FlowRates           `json:"flowRates"`
	BatteryStatus       BatteryStatus       `json:"batteryStatus"`
	AIPredictions       AIPredictions       `json:"aiPredictions"`
	Alerts              []Alert             `json:"alerts"`
	Faults              []Fault             `json:"faults"`
	UsageData           []UsageData         `json:"usageData"`
	EnvironmentalData   []EnvironmentalData `json:"environmentalData"`
	IsSimulationRunning bool                `json:"isSimulationRunning"`
	SimulationSpeed     float64             `json:"simulationSpeed"`
	CurrentScenario     Scenario            `json:"currentScenario"`
}

// Default returns the state the dashboard boots with.
func Default(now time.Time) DashboardState {
	return DashboardState{
		TankLevels: TankLevels{
			TopTank:    TankLevel{Level: 75, Volume: 750, Capacity: 1000},
			BottomTank: TankLevel{Level: 30, Volume: 300, Capacity: 1000},
		},
		PumpStatus: PumpStatus{
			TotalRuntime:  120.5,
			LastStartTime: now,
		},
		FlowRates:     FlowRates{Inflow: 0, Outflow: 2.5, NetFlow: -2.5},
		BatteryStatus: BatteryStatus{ChargeLevel: 100, EstimatedRuntime: 120},
		AIPredictions: AIPredictions{
			NextFillTime:      now.Add(time.Hour),
			EstimatedDuration: 45,
			Confidence:        94,
			CanOverride:       false,
		},
		Alerts:              []Alert{},
		Faults:              []Fault{},
		UsageData:           []UsageData{},
		EnvironmentalData:   []EnvironmentalData{},
		IsSimulationRunning: true,
		SimulationSpeed:     1,
		CurrentScenario:     ScenarioNormal,
	}
}

// Clone deep-copies the slices so the copy shares no backing arrays.
func (s DashboardState) Clone() DashboardState {
	out := s
	out.Alerts = append([]Alert(nil), s.Alerts...)
	out.Faults = append([]Fault(nil), s.Faults...)
	out.EnvironmentalData = append([]EnvironmentalData(nil), s.EnvironmentalData...)
	out.UsageData = make([]UsageData, len(s.UsageData))
	for i, u := range s.UsageData {
		u.Events = append([]string(nil), u.Events...)
		if len(u.Events) == 0 {
			u.Events = nil
		}
		out.UsageData[i] = u
	}
	if out.Alerts == nil {
		out.Alerts = []Alert{}
	}
	if out.Faults == nil {
		out.Faults = []Fault{}
	}
	if out.EnvironmentalData == nil {
		out.EnvironmentalData = []EnvironmentalData{}
	}
	return out
}

// Snapshot is the flattened row persisted per published state.
type Snapshot struct {
	ID               int64     `db:"id" json:"id"`
	Timestamp        time.Time `db:"timestamp" json:"timestamp"`
	Scenario         Scenario  `db:"scenario" json:"scenario"`
	TopLevel         float64   `db:"top_level" json:"top_level"`
	BottomLevel      float64   `db:"bottom_level" json:"bottom_level"`
	PumpRunning      bool      `db:"pump_running" json:"pump_running"`
	PumpPower        float64   `db:"pump_power" json:"pump_power"`
	PumpTotalRuntime float64   `db:"pump_total_runtime" json:"pump_total_runtime"`
	Inflow           float64   `db:"inflow" json:"inflow"`
	Outflow          float64   `db:"outflow" json:"outflow"`
	OnBattery        bool      `db:"on_battery" json:"on_battery"`
	ChargeLevel      float64   `db:"charge_level" json:"charge_level"`
	Confidence       float64   `db:"confidence" json:"confidence"`
}

func SnapshotOf(s DashboardState, at time.Time) Snapshot {
	return Snapshot{
		Timestamp:        at,
		Scenario:         s.CurrentScenario,
		TopLevel:         s.TankLevels.TopTank.Level,
		BottomLevel:      s.TankLevels.BottomTank.Level,
		PumpRunning:      s.PumpStatus.IsRunning,
		PumpPower:        s.PumpStatus.CurrentPower,
		PumpTotalRuntime: s.PumpStatus.TotalRuntime,
		Inflow:           s.FlowRates.Inflow,
		Outflow:          s.FlowRates.Outflow,
		OnBattery:        s.BatteryStatus.IsOnBattery,
		ChargeLevel:      s.BatteryStatus.ChargeLevel,
		Confidence:       s.AIPredictions.Confidence,
	}
}
