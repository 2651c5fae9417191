// Package api exposes page analysis and report history over HTTP.
//
// Routes live under /api/v1:
//
//	GET  /health          liveness probe, no user required
//	POST /analyses        analyse {"url": "..."} and return the saved report
//	GET  /reports         history (?since=&until= RFC 3339) or ranking (?top=n)
//	GET  /reports/:id     one report
//	GET  /charts          chart series (?report_id= selects the per-page charts)
//
// Every route except /health needs an X-User-ID header naming the report
// owner. Reports are scoped to that user. Errors are returned as
// {"error": {"code": "...", "message": "..."}}.
package api
