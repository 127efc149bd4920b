package service

import (
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/anomaly"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
)

const highUsageAlertTitle = "High Water Usage"

func usagePoints(days []domain.UsageData, value func(domain.UsageData) float64) []aggregator.Point {
	points := make([]aggregator.Point, len(days))
	for i, d := range days {
		points[i] = aggregator.Point{Value: value(d), Timestamp: d.Date}
	}
	return points
}

// HighUsageDays returns the days whose usage is a Tukey outlier above the
// rest of the window. Windows shorter than four days never have outliers.
func HighUsageDays(days []domain.UsageData) []domain.UsageData {
	readings := make([]anomaly.Reading, len(days))
	byTime := make(map[int64]domain.UsageData, len(days))
	for i, d := range days {
		readings[i] = anomaly.Reading{Consumption: d.Usage, Timestamp: d.Date.Unix()}
		byTime[d.Date.Unix()] = d
	}

	avg := aggregator.Average(usagePoints(days, func(d domain.UsageData) float64 { return d.Usage }))
	detector := anomaly.AnomalyDetector{}
	var out []domain.UsageData
	for _, r := range detector.DetectOutliers(readings) {
		if r.Consumption > avg {
			out = append(out, byTime[r.Timestamp])
		}
	}
	return out
}

// UsageMonitor raises a "High Water Usage" alert when the usage window
// holds an outlier day, unless an unacknowledged one is already open.
type UsageMonitor struct {
	Now func() time.Time
	IDs simulation.IDFunc
}

func (m *UsageMonitor) Check(st domain.DashboardState, d Dispatcher) (bool, error) {
	high := HighUsageDays(st.UsageData)
	if len(high) == 0 {
		return false, nil
	}
	for _, a := range st.Alerts {
		if a.Title == highUsageAlertTitle && !a.IsAcknowledged {
			return false, nil
		}
	}

	peak := high[0]
	for _, h := range high[1:] {
		if h.Usage > peak.Usage {
			peak = h
		}
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	alert := simulation.NewAlert(m.IDs, now(), domain.AlertWarning, domain.PriorityMedium, highUsageAlertTitle,
		fmt.Sprintf("Water usage on %s was %.0f L, well above the weekly pattern", peak.Date.Format("Jan 2"), peak.Usage))
	if err := d.Dispatch(store.AddAlert{Alert: alert}); err != nil {
		return false, err
	}
	return true, nil
}
