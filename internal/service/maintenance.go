package service

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/maintenance"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
)

const (
	maintenanceAlertTitle = "Maintenance Due"

	DefaultRatedHours = 2000.0
)

// MaintenanceService predicts pump servicing needs from its accumulated runtime.
// FailureRatePerYear is the base rate of a new pump; it grows by one base
// rate for every RatedHours the pump has run. A zero LastService means the
// pump has no service record and is due now.
type MaintenanceService struct {
	FailureRatePerYear float64
	RatedHours         float64
	ServiceInterval    time.Duration
	LastService        time.Time
	Now                func() time.Time
	IDs                simulation.IDFunc
}

type MaintenancePrediction struct {
	HoursRun          float64   `json:"hours_run"`
	CurrentHealth     float64   `json:"current_health"`
	FailureRisk30Days float64   `json:"failure_risk_30_days"`
	FailureRisk90Days float64   `json:"failure_risk_90_days"`
	NextServiceDate   time.Time `json:"next_service_date"`
	DaysUntilService  int       `json:"days_until_service"`
	Recommendation    string    `json:"recommendation"`
}

// Predict scores the pump described by p.
func (s *MaintenanceService) Predict(p domain.PumpStatus) MaintenancePrediction {
	now := s.now()
	health := maintenance.AssetHealth{
		HoursRun:           p.TotalRuntime,
		FailureRatePerYear: s.effectiveRate(p.TotalRuntime),
		LastService:        s.LastService,
		ServiceInterval:    s.ServiceInterval,
	}

	risk30 := maintenance.FailureRisk(health.FailureRatePerYear, 30*24*time.Hour)
	risk90 := maintenance.FailureRisk(health.FailureRatePerYear, 90*24*time.Hour)
	next := now
	if !s.LastService.IsZero() {
		next = maintenance.NextServiceDate(health)
	}
	score := simulation.Clamp(100*(1-risk90), 0, 100)

	return MaintenancePrediction{
		HoursRun:          p.TotalRuntime,
		CurrentHealth:     score,
		FailureRisk30Days: risk30 * 100,
		FailureRisk90Days: risk90 * 100,
		NextServiceDate:   next,
		DaysUntilService:  int(next.Sub(now).Hours() / 24),
		Recommendation:    generateRecommendation(risk30, score),
	}
}

func (s *MaintenanceService) effectiveRate(hoursRun float64) float64 {
	rated := s.RatedHours
	if !(rated > 0) {
		rated = DefaultRatedHours
	}
	return s.FailureRatePerYear * (1 + math.Max(0, hoursRun)/rated)
}

func generateRecommendation(risk float64, health float64) string {
	if risk > 0.5 || health < 60 {
		return "URGENT: Schedule immediate pump inspection"
	} else if risk > 0.3 || health < 75 {
		return "Schedule pump maintenance within next 30 days"
	} else if risk > 0.15 || health < 85 {
		return "Plan pump maintenance within next 90 days"
	}
	return "Pump operating normally"
}

// Check raises a "Maintenance Due" alert when servicing is close or the
// 30-day risk is high, unless an unacknowledged one is already open.
func (s *MaintenanceService) Check(st domain.DashboardState, d Dispatcher) (MaintenancePrediction, bool, error) {
	pred := s.Predict(st.PumpStatus)
	if pred.FailureRisk30Days <= 50 && pred.DaysUntilService > 5 {
		return pred, false, nil
	}
	for _, a := range st.Alerts {
		if a.Title == maintenanceAlertTitle && !a.IsAcknowledged {
			return pred, false, nil
		}
	}
	alert := simulation.NewAlert(s.IDs, s.now(), domain.AlertInfo, domain.PriorityLow,
		maintenanceAlertTitle, pred.Recommendation)
	if err := d.Dispatch(store.AddAlert{Alert: alert}); err != nil {
		return pred, false, err
	}
	return pred, true, nil
}

func (s *MaintenanceService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
