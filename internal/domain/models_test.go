package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func TestParseScenario(t *testing.T) {
	for _, s := range []string{"normal", "leakage", "power_failure", "sensor_failure"} {
		got, err := ParseScenario(s)
		require.NoError(t, err)
		assert.Equal(t, Scenario(s), got)
	}
	_, err := ParseScenario("Leakage")
	assert.Error(t, err)
	_, err = ParseScenario("")
	assert.Error(t, err)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, AlertEmergency.Valid())
	assert.False(t, AlertType("Emergency").Valid())
	assert.True(t, PriorityLow.Valid())
	assert.False(t, AlertPriority("").Valid())
	assert.True(t, FaultOverflowRisk.Valid())
	assert.False(t, FaultType("leak").Valid())
	assert.True(t, SeverityMajor.Valid())
	assert.False(t, FaultSeverity("fatal").Valid())
}

func TestDefault(t *testing.T) {
	s := Default(now)
	assert.Equal(t, 750.0, s.TankLevels.TopTank.Volume)
	assert.False(t, s.PumpStatus.IsRunning)
	assert.Equal(t, s.FlowRates.Inflow-s.FlowRates.Outflow, s.FlowRates.NetFlow)
	assert.Equal(t, now.Add(time.Hour), s.AIPredictions.NextFillTime)
	assert.False(t, s.AIPredictions.CanOverride)
	assert.True(t, s.IsSimulationRunning)
	assert.Equal(t, ScenarioNormal, s.CurrentScenario)
}

func TestClone_SharesNothing(t *testing.T) {
	s := Default(now)
	s.Alerts = []Alert{{ID: "a"}}
	s.UsageData = []UsageData{{Usage: 1, Events: []string{"Holiday"}}}

	c := s.Clone()
	c.Alerts[0].ID = "b"
	c.UsageData[0].Events[0] = "Nope"

	assert.Equal(t, "a", s.Alerts[0].ID)
	assert.Equal(t, "Holiday", s.UsageData[0].Events[0])
}

func TestClone_NilSlicesBecomeEmpty(t *testing.T) {
	c := DashboardState{}.Clone()
	assert.NotNil(t, c.Alerts)
	assert.NotNil(t, c.Faults)
	assert.NotNil(t, c.UsageData)
	assert.NotNil(t, c.EnvironmentalData)
}

func TestSnapshotOf(t *testing.T) {
	s := Default(now)
	s.CurrentScenario = ScenarioPowerFailure
	s.BatteryStatus.IsOnBattery = true

	snap := SnapshotOf(s, now)
	assert.Equal(t, now, snap.Timestamp)
	assert.Equal(t, ScenarioPowerFailure, snap.Scenario)
	assert.Equal(t, 75.0, snap.TopLevel)
	assert.Equal(t, 30.0, snap.BottomLevel)
	assert.Equal(t, 120.5, snap.PumpTotalRuntime)
	assert.True(t, snap.OnBattery)
	assert.Equal(t, 94.0, snap.Confidence)
}
