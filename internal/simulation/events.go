package simulation

import (
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/google/uuid"
)

// IDFunc mints a unique id with the given prefix.
type IDFunc func(prefix string) string

func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

type alertTemplate struct {
	kind     domain.AlertType
	title    string
	message  string
	priority domain.AlertPriority
}

var alertCatalog = []alertTemplate{
	{domain.AlertInfo, "System Update", "System firmware updated to version 2.3.4", domain.PriorityLow},
	{domain.AlertWarning, "High Water Usage", "Water usage is 30% higher than average for this time period", domain.PriorityMedium},
	{domain.AlertWarning, "Low Tank Level", "Top tank level below 25%. Scheduling emergency fill cycle", domain.PriorityMedium},
	{domain.AlertEmergency, "Possible Leak Detected", "Unusual flow pattern detected. Please check system for leaks", domain.PriorityHigh},
	{domain.AlertEmergency, "Pump Overheating", "Pump temperature exceeding normal operating range", domain.PriorityHigh},
	{domain.AlertInfo, "Maintenance Due", "Scheduled maintenance due in 5 days", domain.PriorityLow},
	{domain.AlertWarning, "Battery Low", "UPS battery below 20%. Connect to power source", domain.PriorityMedium},
}

type faultTemplate struct {
	kind        domain.FaultType
	description string
	severity    domain.FaultSeverity
}

var faultCatalog = []faultTemplate{
	{domain.FaultSensorFailure, "Top tank level sensor failure", domain.SeverityMajor},
	{domain.FaultSensorFailure, "Bottom tank level sensor failure", domain.SeverityMajor},
	{domain.FaultSensorFailure, "Flow meter calibration error", domain.SeverityMinor},
	{domain.FaultValveStuck, "Inlet valve stuck in open position", domain.SeverityCritical},
	{domain.FaultValveStuck, "Outlet valve stuck in closed position", domain.SeverityMajor},
	{domain.FaultDryRun, "Pump running with insufficient water in bottom tank", domain.SeverityCritical},
	{domain.FaultOverflowRisk, "Top tank approaching overflow threshold", domain.SeverityCritical},
}

// AlertCatalogSize and FaultCatalogSize are the number of templates each
// random event is drawn from.
var (
	AlertCatalogSize = len(alertCatalog)
	FaultCatalogSize = len(faultCatalog)
)

func RandomAlert(rnd Rand, now time.Time, ids IDFunc) domain.Alert {
	t := alertCatalog[pick(rnd, len(alertCatalog))]
	return NewAlert(ids, now, t.kind, t.priority, t.title, t.message)
}

func RandomFault(rnd Rand, now time.Time, ids IDFunc) domain.Fault {
	t := faultCatalog[pick(rnd, len(faultCatalog))]
	return NewFault(ids, now, t.kind, t.severity, t.description)
}

func NewAlert(ids IDFunc, now time.Time, kind domain.AlertType, priority domain.AlertPriority, title, message string) domain.Alert {
	if ids == nil {
		ids = NewID
	}
	return domain.Alert{
		ID:        ids("alert"),
		Type:      kind,
		Title:     title,
		Message:   message,
		Timestamp: now,
		Priority:  priority,
	}
}

func NewFault(ids IDFunc, now time.Time, kind domain.FaultType, severity domain.FaultSeverity, description string) domain.Fault {
	if ids == nil {
		ids = NewID
	}
	return domain.Fault{
		ID:          ids("fault"),
		Type:        kind,
		Description: description,
		Severity:    severity,
		Timestamp:   now,
	}
}
