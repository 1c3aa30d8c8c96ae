// Package dataprocessing turns the raw trip CSV into a cleaned, enriched
// table and a statistical report.
//
// # Architecture
//
// The package is organized as a strictly sequential pipeline:
//
//  1. Loader: reads the CSV and parses typed trip records
//  2. Profiler: summarizes the raw file (dtypes, missing values, duplicates)
//  3. Cleaner: applies the ordered row filters and records per-step counts
//  4. FeatureDeriver: adds calendar parts, time period, season and distance
//  5. Aggregator: computes summary statistics, frequencies and correlations
//
// # Usage
//
//	p := dataprocessing.NewPipeline(cfg.Pipeline, telemetry, logger)
//	res, err := p.Run(ctx, "uber.csv")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Cleaning.RetentionRate())
//
// # Data Flow
//
//	CSV → Loader → TripTable → Cleaner → TripTable → FeatureDeriver → TripTable → Aggregator → AnalysisReport
//
// Every stage returns a new table; the input table is never modified.
//
// # Error Handling
//
// Only the loader fails. Missing files, missing columns and unparseable
// cells return an *errors.PipelineError. Cleaning, derivation and analysis
// accept empty tables and report NaN where a statistic is undefined.
package dataprocessing
