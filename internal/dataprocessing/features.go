package dataprocessing

import (
	"log/slog"
	"time"

	"uberfares/internal/config"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// ClassifyTimePeriod maps a pickup hour to its time-of-day category.
// Late night wraps midnight, so it is two ranges: 22-23 and 0-5.
func ClassifyTimePeriod(hour int) domain.TimePeriod {
	switch {
	case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
		return domain.TimePeriodPeak
	case (hour >= 22 && hour <= 23) || (hour >= 0 && hour <= 5):
		return domain.TimePeriodLateNight
	default:
		return domain.TimePeriodOffPeak
	}
}

// SeasonForMonth maps a calendar month to its meteorological season
func SeasonForMonth(month int) domain.Season {
	switch month {
	case 12, 1, 2:
		return domain.SeasonWinter
	case 3, 4, 5:
		return domain.SeasonSpring
	case 6, 7, 8:
		return domain.SeasonSummer
	default:
		return domain.SeasonFall
	}
}

// DayOfWeekIndex returns the weekday index with Monday=0 and Sunday=6
func DayOfWeekIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// FeatureDeriver adds calendar, category and distance columns
type FeatureDeriver struct {
	radiusKm float64
	epsilon  float64
	logger   *slog.Logger
}

// NewFeatureDeriver creates a deriver using the configured radius and
// fare-per-km epsilon
func NewFeatureDeriver(cfg config.PipelineConfig, logger *slog.Logger) *FeatureDeriver {
	return &FeatureDeriver{
		radiusKm: cfg.EarthRadiusKm,
		epsilon:  cfg.DistanceEpsilon,
		logger:   infrastructure.WithComponent(logger, "features"),
	}
}

// DeriveFeatures computes the derived columns of a single record from its
// own fields.
//
// FarePerKm divides by distance+epsilon, so a zero distance gives a large but
// finite ratio rather than a division by zero.
func (d *FeatureDeriver) DeriveFeatures(r domain.TripRecord) *domain.TripFeatures {
	ts := r.PickupDatetime.UTC()
	hour := ts.Hour()
	month := int(ts.Month())

	distance := HaversineKm(r.Pickup(), r.Dropoff(), d.radiusKm)

	return &domain.TripFeatures{
		PickupHour:      hour,
		PickupDay:       ts.Day(),
		PickupMonth:     month,
		PickupYear:      ts.Year(),
		PickupDayOfWeek: DayOfWeekIndex(ts.Weekday()),
		PickupWeekday:   ts.Weekday().String(),
		TimePeriod:      ClassifyTimePeriod(hour),
		TripDistanceKm:  distance,
		FarePerKm:       r.FareAmount / (distance + d.epsilon),
		Season:          SeasonForMonth(month),
	}
}

// Derive returns a new table whose records carry derived features. The
// row count never changes.
func (d *FeatureDeriver) Derive(table *domain.TripTable) *domain.TripTable {
	records := make([]domain.TripRecord, len(table.Records))
	for i, r := range table.Records {
		r.Features = d.DeriveFeatures(r)
		records[i] = r
	}

	d.logger.Info("Features derived",
		slog.Int("records", len(records)),
		slog.Int("features_added", len(domain.DerivedColumns)))

	return table.WithRecords(records)
}
