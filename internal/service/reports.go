package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
)

const usagePrefix = "usage/"

type ReportStore interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
	ListReports(ctx context.Context, prefix string) ([]string, error)
}

// ReportService archives the usage window so it survives restarts.
type ReportService struct {
	Reports ReportStore
}

type UsageReport struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	Scenario       domain.Scenario            `json:"scenario"`
	TotalUsage     float64                    `json:"total_usage"`
	TotalPredicted float64                    `json:"total_predicted"`
	AverageUsage   float64                    `json:"average_usage"`
	HighUsageDays  []time.Time                `json:"high_usage_days"`
	Days           []domain.UsageData         `json:"days"`
	Environment    []domain.EnvironmentalData `json:"environment"`
}

func BuildUsageReport(s domain.DashboardState, at time.Time) UsageReport {
	usage := usagePoints(s.UsageData, func(d domain.UsageData) float64 { return d.Usage })
	predicted := usagePoints(s.UsageData, func(d domain.UsageData) float64 { return d.Predicted })

	high := []time.Time{}
	for _, d := range HighUsageDays(s.UsageData) {
		high = append(high, d.Date)
	}
	return UsageReport{
		GeneratedAt:    at,
		Scenario:       s.CurrentScenario,
		TotalUsage:     aggregator.Sum(usage),
		TotalPredicted: aggregator.Sum(predicted),
		AverageUsage:   aggregator.Average(usage),
		HighUsageDays:  high,
		Days:           s.UsageData,
		Environment:    s.EnvironmentalData,
	}
}

// ArchiveUsage uploads the report and returns a presigned link to it.
func (s *ReportService) ArchiveUsage(ctx context.Context, st domain.DashboardState, at time.Time) (string, error) {
	if s.Reports == nil {
		return "", ErrCloudDisabled
	}
	data, err := json.Marshal(BuildUsageReport(st, at))
	if err != nil {
		return "", fmt.Errorf("marshal usage report: %w", err)
	}
	key := fmt.Sprintf("%s%s.json", usagePrefix, at.UTC().Format("2006-01-02T150405"))
	return s.Reports.UploadReport(ctx, key, data, "application/json")
}

// ListArchives returns the keys of every archived usage report.
func (s *ReportService) ListArchives(ctx context.Context) ([]string, error) {
	if s.Reports == nil {
		return nil, ErrCloudDisabled
	}
	keys, err := s.Reports.ListReports(ctx, usagePrefix)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}
