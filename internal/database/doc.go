// Package database provides SQLite-based storage for pagecarbon reports.
//
// ReportDB stores every finished analysis as five related rows:
//   - website_reports: the analysed URL, requesting user and anchor count
//   - page_reports: aggregate sizes, counts and link classification
//   - image_reports / video_reports: total image and video weight
//   - carbon_footprint_reports: energy and CO2e breakdown
//
// SaveReport writes all five in one transaction, so a report is either
// fully stored or absent. Read access is always scoped to one user.
//
// SQLite is provided by modernc.org/sqlite, a CGO-free driver, so the
// database is a single file under the XDG data directory.
package database
