// Package pipeline drives one page analysis from fetch to persisted report.
//
// A run moves through a fixed sequence of stages:
//
//	Fetching -> Analyzing -> Sizing -> Estimating -> Done
//
// Each stage is a Step. Any step error moves the run to Failed and stops the
// pipeline, so a partial report is never handed to persistence. The Sizing
// step fans out over the discovered resources with a bounded errgroup;
// totals are summed in document order after the fan-out completes.
//
// BatchProcessor runs many analyses concurrently, each with a fresh
// pipeline from a factory.
package pipeline
