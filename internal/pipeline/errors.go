package pipeline

import "errors"

var (
	// errNoPage is returned when analysis runs before a page was fetched.
	errNoPage = errors.New("no page: fetch step did not run")

	// errNoInventory is returned when sizing runs before analysis.
	errNoInventory = errors.New("no resource inventory: analyze step did not run")
)
