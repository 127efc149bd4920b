package simulation

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
)

const (
	UsageWindowDays = 7

	holidayDay   = 2
	highUsageDay = 5

	holidayEvent = "Holiday"
)

// WeeklyUsage builds one entry per calendar day for the week ending on now's date.
func WeeklyUsage(rnd Rand, now time.Time) []domain.UsageData {
	y, m, d := now.Date()
	start := time.Date(y, m, d-(UsageWindowDays-1), 0, 0, 0, 0, now.Location())

	out := make([]domain.UsageData, 0, UsageWindowDays)
	for i := range UsageWindowDays {
		day := start.AddDate(0, 0, i)
		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

		var base float64
		if weekend {
			base = between(rnd, 800, 1200)
		} else {
			base = between(rnd, 500, 900)
		}

		var events []string
		switch i {
		case holidayDay:
			events = []string{holidayEvent}
			base *= 1.5
		case highUsageDay:
			events = []string{"High Usage"}
			base *= 1.3
		}

		predicted := base * between(rnd, 0.9, 1.1)
		out = append(out, domain.UsageData{
			Date:      day,
			Usage:     math.Round(base),
			Predicted: math.Round(predicted),
			Events:    events,
		})
	}
	return out
}

// Environmental samples temperature and humidity hourly over the last
// hours, ending at now (hours+1 samples).
func Environmental(rnd Rand, now time.Time, hours int) []domain.EnvironmentalData {
	if hours < 0 {
		hours = 0
	}
	start := now.Add(-time.Duration(hours) * time.Hour)

	out := make([]domain.EnvironmentalData, 0, hours+1)
	for i := 0; i <= hours; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		temperature := baseTemperature(at.Hour()) + between(rnd, -1, 1)
		humidity := 60 - (temperature-22)*2 + between(rnd, -5, 5)
		out = append(out, domain.EnvironmentalData{
			Temperature: temperature,
			Humidity:    ClampHumidity(humidity),
			Timestamp:   at,
		})
	}
	return out
}

func ClampHumidity(h float64) float64 { return clamp(h, 30, 90) }

func baseTemperature(hour int) float64 {
	t := 22.0
	switch {
	case hour >= 6 && hour < 12:
		t += float64(hour-6) * 0.5
	case hour >= 12 && hour < 18:
		t += 3 + float64(hour-12)*0.2
	case hour >= 18:
		t += 4 - float64(hour-18)*0.5
	}
	return t
}
