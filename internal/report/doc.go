// Package report renders analysis reports and derives chart data from them.
//
// Writers produce text, JSON and Markdown output for a single report or a
// user's report history. The chart functions return plain series data
// (labels and values) so callers can draw them with whatever tool they like:
//   - LinkDistribution: link, resource and media counts of one page
//   - FootprintBreakdown: carbon of images, videos and everything else
//   - ScoreTrend: carbon footprint scores over a trailing window
//   - TopSites: the highest energy reports
package report
