package store

import (
	"encoding/json"
	"fmt"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
)

// Transition is a named state change accepted by the Store.
type Transition interface {
	Name() string
}

const (
	NameUpdateTankLevels        = "UPDATE_TANK_LEVELS"
	NameUpdatePumpStatus        = "UPDATE_PUMP_STATUS"
	NameUpdateFlowRates         = "UPDATE_FLOW_RATES"
	NameUpdateBatteryStatus     = "UPDATE_BATTERY_STATUS"
	NameUpdateAIPredictions     = "UPDATE_AI_PREDICTIONS"
	NameAddAlert                = "ADD_ALERT"
	NameAcknowledgeAlert        = "ACKNOWLEDGE_ALERT"
	NameDismissAlert            = "DISMISS_ALERT"
	NameAddFault                = "ADD_FAULT"
	NameResolveFault            = "RESOLVE_FAULT"
	NameUpdateUsageData         = "UPDATE_USAGE_DATA"
	NameUpdateEnvironmentalData = "UPDATE_ENVIRONMENTAL_DATA"
	NameStartSimulation         = "START_SIMULATION"
	NamePauseSimulation         = "PAUSE_SIMULATION"
	NameSetSimulationSpeed      = "SET_SIMULATION_SPEED"
	NameSetScenario             = "SET_SCENARIO"
)

// UpdateTankLevels replaces whichever tanks are set. A zero capacity keeps
// the tank's current capacity.
type UpdateTankLevels struct {
	TopTank    *domain.TankLevel `json:"topTank,omitempty"`
	BottomTank *domain.TankLevel `json:"bottomTank,omitempty"`
}

type UpdatePumpStatus struct{ Status domain.PumpStatus }
type UpdateFlowRates struct{ Rates domain.FlowRates }
type UpdateBatteryStatus struct{ Status domain.BatteryStatus }
type UpdateAIPredictions struct{ Predictions domain.AIPredictions }
type AddAlert struct{ Alert domain.Alert }
type AcknowledgeAlert struct{ ID string }
type DismissAlert struct{ ID string }
type AddFault struct{ Fault domain.Fault }
type ResolveFault struct{ ID string }
type UpdateUsageData struct{ Data []domain.UsageData }
type UpdateEnvironmentalData struct{ Data []domain.EnvironmentalData }
type StartSimulation struct{}
type PauseSimulation struct{}
type SetSimulationSpeed struct{ Speed float64 }
type SetScenario struct{ Scenario domain.Scenario }

func (UpdateTankLevels) Name() string        { return NameUpdateTankLevels }
func (UpdatePumpStatus) Name() string        { return NameUpdatePumpStatus }
func (UpdateFlowRates) Name() string         { return NameUpdateFlowRates }
func (UpdateBatteryStatus) Name() string     { return NameUpdateBatteryStatus }
func (UpdateAIPredictions) Name() string     { return NameUpdateAIPredictions }
func (AddAlert) Name() string                { return NameAddAlert }
func (AcknowledgeAlert) Name() string        { return NameAcknowledgeAlert }
func (DismissAlert) Name() string            { return NameDismissAlert }
func (AddFault) Name() string                { return NameAddFault }
func (ResolveFault) Name() string            { return NameResolveFault }
func (UpdateUsageData) Name() string         { return NameUpdateUsageData }
func (UpdateEnvironmentalData) Name() string { return NameUpdateEnvironmentalData }
func (StartSimulation) Name() string         { return NameStartSimulation }
func (PauseSimulation) Name() string         { return NamePauseSimulation }
func (SetSimulationSpeed) Name() string      { return NameSetSimulationSpeed }
func (SetScenario) Name() string             { return NameSetScenario }

// Envelope is the wire form of a transition: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode turns a wire envelope into a Transition.
func Decode(env Envelope) (Transition, error) {
	var (
		t   Transition
		err error
	)
	switch env.Type {
	case NameUpdateTankLevels:
		var p UpdateTankLevels
		err = unmarshal(env.Payload, &p)
		t = p
	case NameUpdatePumpStatus:
		var p domain.PumpStatus
		err = unmarshal(env.Payload, &p)
		t = UpdatePumpStatus{Status: p}
	case NameUpdateFlowRates:
		var p domain.FlowRates
		err = unmarshal(env.Payload, &p)
		t = UpdateFlowRates{Rates: p}
	case NameUpdateBatteryStatus:
		var p domain.BatteryStatus
		err = unmarshal(env.Payload, &p)
		t = UpdateBatteryStatus{Status: p}
	case NameUpdateAIPredictions:
		var p domain.AIPredictions
		err = unmarshal(env.Payload, &p)
		t = UpdateAIPredictions{Predictions: p}
	case NameAddAlert:
		var p domain.Alert
		err = unmarshal(env.Payload, &p)
		t = AddAlert{Alert: p}
	case NameAcknowledgeAlert:
		var id string
		err = unmarshal(env.Payload, &id)
		t = AcknowledgeAlert{ID: id}
	case NameDismissAlert:
		var id string
		err = unmarshal(env.Payload, &id)
		t = DismissAlert{ID: id}
	case NameAddFault:
		var p domain.Fault
		err = unmarshal(env.Payload, &p)
		t = AddFault{Fault: p}
	case NameResolveFault:
		var id string
		err = unmarshal(env.Payload, &id)
		t = ResolveFault{ID: id}
	case NameUpdateUsageData:
		var p []domain.UsageData
		err = unmarshal(env.Payload, &p)
		t = UpdateUsageData{Data: p}
	case NameUpdateEnvironmentalData:
		var p []domain.EnvironmentalData
		err = unmarshal(env.Payload, &p)
		t = UpdateEnvironmentalData{Data: p}
	case NameStartSimulation:
		t = StartSimulation{}
	case NamePauseSimulation:
		t = PauseSimulation{}
	case NameSetSimulationSpeed:
		var speed float64
		err = unmarshal(env.Payload, &speed)
		t = SetSimulationSpeed{Speed: speed}
	case NameSetScenario:
		var s string
		err = unmarshal(env.Payload, &s)
		t = SetScenario{Scenario: domain.Scenario(s)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransition, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrInvalidTransition, env.Type, err)
	}
	return t, nil
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	return json.Unmarshal(raw, v)
}
