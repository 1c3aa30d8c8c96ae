package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"

	"uberfares/internal/config"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// Cleaning step names, in the order they run
const (
	StepZeroCoordinates = "zero_coordinates"
	StepNonPositiveFare = "non_positive_fare"
	StepFareOutliers    = "fare_outliers"
	StepPassengerCount  = "passenger_count"
)

// FareBounds is the IQR fence used to drop fare outliers
type FareBounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ComputeFareBounds returns [Q1 - k*IQR, Q3 + k*IQR] over fares. With no
// fares every bound is NaN and nothing passes Contains.
func ComputeFareBounds(fares []float64, multiplier float64) FareBounds {
	q := Quantiles(fares, 0.25, 0.75)
	iqr := q[1] - q[0]
	return FareBounds{
		Q1:    q[0],
		Q3:    q[1],
		IQR:   iqr,
		Lower: q[0] - multiplier*iqr,
		Upper: q[1] + multiplier*iqr,
	}
}

// Contains reports whether fare lies inside the inclusive fence
func (b FareBounds) Contains(fare float64) bool {
	return fare >= b.Lower && fare <= b.Upper
}

// CleaningRule is one row filter. Predicate is built from the table the rule
// is about to filter, so bounds see only rows that survived earlier rules.
type CleaningRule struct {
	Name        string
	Description string
	Predicate   func(t *domain.TripTable) func(domain.TripRecord) bool
}

// CleaningStep is the audit record of one applied rule
type CleaningStep struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RowsBefore  int    `json:"rows_before"`
	RowsAfter   int    `json:"rows_after"`
	Removed     int    `json:"removed"`
}

// CleaningResult is the cleaned table plus per-step counts
type CleaningResult struct {
	Table        *domain.TripTable `json:"-"`
	Steps        []CleaningStep    `json:"steps"`
	FareBounds   FareBounds        `json:"fare_bounds"`
	OriginalRows int               `json:"original_rows"`
	FinalRows    int               `json:"final_rows"`
}

// RemovedTotal returns the rows dropped across all steps
func (r *CleaningResult) RemovedTotal() int {
	return r.OriginalRows - r.FinalRows
}

// RetentionRate returns the surviving share of rows as a percentage, NaN for
// an empty input
func (r *CleaningResult) RetentionRate() float64 {
	if r.OriginalRows == 0 {
		return math.NaN()
	}
	return float64(r.FinalRows) / float64(r.OriginalRows) * 100
}

// Step returns the audit record for name
func (r *CleaningResult) Step(name string) (CleaningStep, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return CleaningStep{}, false
}

// Cleaner applies the cleaning rules in a fixed order
type Cleaner struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// NewCleaner creates a cleaner
func NewCleaner(cfg config.PipelineConfig, logger *slog.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, logger: infrastructure.WithComponent(logger, "cleaner")}
}

// Rules returns the ordered rule list. bounds receives the fare fence when
// the outlier rule runs.
func (c *Cleaner) Rules(bounds *FareBounds) []CleaningRule {
	return []CleaningRule{
		{
			Name:        StepZeroCoordinates,
			Description: "Remove rows with a zero coordinate",
			Predicate: func(*domain.TripTable) func(domain.TripRecord) bool {
				return func(r domain.TripRecord) bool {
					return r.PickupLongitude != 0 && r.PickupLatitude != 0 &&
						r.DropoffLongitude != 0 && r.DropoffLatitude != 0
				}
			},
		},
		{
			Name:        StepNonPositiveFare,
			Description: "Remove rows with fare_amount <= 0",
			Predicate: func(*domain.TripTable) func(domain.TripRecord) bool {
				return func(r domain.TripRecord) bool {
					return r.FareAmount > 0
				}
			},
		},
		{
			Name:        StepFareOutliers,
			Description: fmt.Sprintf("Remove fares outside Q1-%gxIQR..Q3+%gxIQR", c.cfg.OutlierMultiplier, c.cfg.OutlierMultiplier),
			Predicate: func(t *domain.TripTable) func(domain.TripRecord) bool {
				b := ComputeFareBounds(t.Fares(), c.cfg.OutlierMultiplier)
				if bounds != nil {
					*bounds = b
				}
				return func(r domain.TripRecord) bool {
					return b.Contains(r.FareAmount)
				}
			},
		},
		{
			Name:        StepPassengerCount,
			Description: fmt.Sprintf("Remove rows with passenger_count outside [%d,%d]", c.cfg.MinPassengers, c.cfg.MaxPassengers),
			Predicate: func(*domain.TripTable) func(domain.TripRecord) bool {
				return func(r domain.TripRecord) bool {
					return r.PassengerCount >= c.cfg.MinPassengers && r.PassengerCount <= c.cfg.MaxPassengers
				}
			},
		},
	}
}

// Clean returns a new table holding only the rows that pass every rule.
// The input table is not modified. Removing every row is not an error.
func (c *Cleaner) Clean(table *domain.TripTable) *CleaningResult {
	result := &CleaningResult{OriginalRows: table.Len()}

	current := table
	for _, rule := range c.Rules(&result.FareBounds) {
		before := current.Len()
		current = current.Filter(rule.Predicate(current))
		step := CleaningStep{
			Name:        rule.Name,
			Description: rule.Description,
			RowsBefore:  before,
			RowsAfter:   current.Len(),
			Removed:     before - current.Len(),
		}
		result.Steps = append(result.Steps, step)

		c.logger.Info("Cleaning step applied",
			slog.String("step", step.Name),
			slog.Int("rows_before", step.RowsBefore),
			slog.Int("rows_after", step.RowsAfter),
			slog.Int("removed", step.Removed))
	}

	result.Table = current
	result.FinalRows = current.Len()

	c.logger.Info("Cleaning complete",
		slog.Int("original_rows", result.OriginalRows),
		slog.Int("final_rows", result.FinalRows),
		slog.Float64("fare_lower", result.FareBounds.Lower),
		slog.Float64("fare_upper", result.FareBounds.Upper))

	return result
}
