// Package report renders a finished pipeline run for people: a console
// summary and a PDF. It only formats results that were computed elsewhere.
package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"uberfares/internal/dataprocessing"
	"uberfares/pkg/contracts/domain"
)

// Summary is everything a rendered report shows
type Summary struct {
	RunID       string
	GeneratedAt time.Time
	InputFile   string
	OutputFile  string
	TopHours    int
	Profile     *dataprocessing.DatasetProfile
	Cleaning    *dataprocessing.CleaningResult
	Analysis    *dataprocessing.AnalysisReport
	Stages      []dataprocessing.StageResult
}

// NewSummary collects a pipeline result into a Summary. topHours is the
// configured busiest-hours count shown in headings.
func NewSummary(runID, inputFile, outputFile string, topHours int, res *dataprocessing.Result) Summary {
	return Summary{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		InputFile:   inputFile,
		OutputFile:  outputFile,
		TopHours:    topHours,
		Profile:     res.Profile,
		Cleaning:    res.Cleaning,
		Analysis:    res.Analysis,
		Stages:      res.Stages,
	}
}

// CleaningSummaryRow is one line of the data cleaning summary
type CleaningSummaryRow struct {
	Label string
	Value string
}

// CleaningSummary returns the closing summary of a run: record counts,
// retention rate and feature counts
func (s Summary) CleaningSummary() []CleaningSummaryRow {
	c := s.Cleaning
	finalFeatures := 0
	if s.Analysis != nil {
		finalFeatures = len(s.Analysis.FinalColumns)
	}
	return []CleaningSummaryRow{
		{"Original Records", strconv.Itoa(c.OriginalRows)},
		{"Final Records", strconv.Itoa(c.FinalRows)},
		{"Records Removed", strconv.Itoa(c.RemovedTotal())},
		{"Retention Rate", percent(c.RetentionRate())},
		{"New Features Added", strconv.Itoa(len(domain.DerivedColumns))},
		{"Final Features", strconv.Itoa(finalFeatures)},
	}
}

// busiestHeading titles the busiest-hours table with the configured count,
// even when the data has fewer distinct hours
func (s Summary) busiestHeading(format string) string {
	n := s.TopHours
	if n <= 0 && s.Analysis != nil {
		n = len(s.Analysis.BusiestHours)
	}
	return fmt.Sprintf(format, n)
}

// num formats v with the given decimals; NaN prints as NaN
func num(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func money(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("$%.2f", v)
}

func percent(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f%%", v)
}
