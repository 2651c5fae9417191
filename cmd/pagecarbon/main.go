// Package main provides the entry point for the pagecarbon CLI.
//
// pagecarbon estimates the energy use and CO2e emissions of loading a web
// page. It sizes every image, video, stylesheet and script the page
// references and keeps a history of reports per user.
//
// Usage:
//
//	pagecarbon analyze <url>
//	pagecarbon analyze --list <file>
//	pagecarbon history
//	pagecarbon serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
