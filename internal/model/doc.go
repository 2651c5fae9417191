// Package model defines the core data structures shared by the pagecarbon
// analysis engine.
//
// This package contains the following main types:
//   - AnalysisRequest: the URL to analyse and the user who asked for it
//   - ResourceReference / SizedResource: transient per-run resource inventory
//   - PageMetrics: aggregate counts and byte totals for one page
//   - CarbonFootprint: energy and CO2e estimates derived from PageMetrics
//   - AnalysisReport: the single artifact handed to persistence
//
// Models live in their own package so that the analyzer, sizer, pipeline,
// database and report packages can share them without import cycles.
package model
