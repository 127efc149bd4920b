package simulation

import (
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
)

// Preset is the state a scenario switches the plant into. Nil fields are
// left as they are.
type Preset struct {
	TankLevels    domain.TankLevels
	PumpStatus    *domain.PumpStatus
	FlowRates     *domain.FlowRates
	BatteryStatus *domain.BatteryStatus
	AIPredictions domain.AIPredictions
	Alerts        []domain.Alert
	Faults        []domain.Fault
}

func tanks(top, bottom float64) domain.TankLevels {
	return domain.TankLevels{
		TopTank:    TankAt(top, DefaultTankCapacity),
		BottomTank: TankAt(bottom, DefaultTankCapacity),
	}
}

func still(outflow float64) *domain.FlowRates {
	return &domain.FlowRates{Outflow: outflow, NetFlow: -outflow}
}

// ScenarioPreset returns the preset for scenario. The pump keeps its
// accumulated runtime in every scenario.
func ScenarioPreset(scenario domain.Scenario, now time.Time, current domain.DashboardState, ids IDFunc) Preset {
	switch scenario {
	case domain.ScenarioLeakage:
		return Preset{
			TankLevels:    tanks(45, 20),
			FlowRates:     still(8.5),
			AIPredictions: Predictions(now.Add(30*time.Minute), 60, 78),
			Alerts: []domain.Alert{
				NewAlert(ids, now, domain.AlertEmergency, domain.PriorityHigh,
					"Possible Leak Detected", "Unusual flow pattern detected. Water loss rate is 240% above normal."),
			},
			Faults: []domain.Fault{
				NewFault(ids, now, domain.FaultOverflowRisk, domain.SeverityCritical,
					"Abnormal water loss detected in main distribution line"),
			},
		}

	case domain.ScenarioPowerFailure:
		pump := Stopped(current.PumpStatus)
		return Preset{
			TankLevels: tanks(60, 25),
			PumpStatus: &pump,
			BatteryStatus: &domain.BatteryStatus{
				IsOnBattery:      true,
				ChargeLevel:      68,
				EstimatedRuntime: 82,
			},
			AIPredictions: Predictions(now.Add(2*time.Hour), 50, 82),
			Alerts: []domain.Alert{
				NewAlert(ids, now, domain.AlertWarning, domain.PriorityMedium,
					"Running on Battery Power", "Main power supply interrupted. System running on UPS battery."),
			},
		}

	case domain.ScenarioSensorFailure:
		return Preset{
			TankLevels:    tanks(65, 35),
			AIPredictions: Predictions(now.Add(time.Hour), 40, SensorFailureConfidence),
			Alerts: []domain.Alert{
				NewAlert(ids, now, domain.AlertWarning, domain.PriorityMedium,
					"Sensor Failure Detected", "Top tank level sensor providing inconsistent readings. Using backup estimation."),
			},
			Faults: []domain.Fault{
				NewFault(ids, now, domain.FaultSensorFailure, domain.SeverityMajor, "Top tank level sensor failure"),
			},
		}
	}

	pump := Stopped(current.PumpStatus)
	pump.LastStartTime = now
	return Preset{
		TankLevels:    tanks(75, 30),
		PumpStatus:    &pump,
		FlowRates:     still(2.5),
		BatteryStatus: &domain.BatteryStatus{ChargeLevel: 100, EstimatedRuntime: BatteryRuntime(100)},
		AIPredictions: Predictions(now.Add(time.Hour), 45, NormalConfidence),
	}
}
