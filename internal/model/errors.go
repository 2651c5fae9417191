package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis error taxonomy.
// Every typed error below matches its sentinel with errors.Is, so callers
// can branch on the kind of failure without a type assertion.
var (
	// ErrInvalidURL is returned when the requested URL is malformed.
	// It is raised before any network activity.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrFetch is returned when the analysed page cannot be retrieved.
	ErrFetch = errors.New("failed to fetch page")

	// ErrParse is returned when the fetched content is not parseable HTML.
	ErrParse = errors.New("failed to parse page")

	// ErrInvalidUnit is returned when a size conversion asks for an
	// unsupported unit.
	ErrInvalidUnit = errors.New("invalid unit")
)

// InvalidURLError describes a URL rejected by validation.
type InvalidURLError struct {
	// Input is the URL as supplied by the caller.
	Input string

	// Reason explains why the URL was rejected.
	Reason string
}

// Error implements error.
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.Input, e.Reason)
}

// Is reports whether target is ErrInvalidURL.
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// FetchError describes a failure to retrieve the analysed page, either at
// the network level or because the server answered with a non-2xx status.
type FetchError struct {
	// URL is the page that was requested.
	URL string

	// StatusCode is the HTTP status when a response was received, else 0.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ParseError describes content that could not be parsed as HTML.
type ParseError struct {
	// URL is the page whose content failed to parse.
	URL string

	// Err is the parser error.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// InvalidUnitError describes an unsupported size unit.
// This is a programming error; valid units are KB and MB.
type InvalidUnitError struct {
	Unit string
}

// Error implements error.
func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("invalid unit %q: supported units are KB and MB", e.Unit)
}

// Is reports whether target is ErrInvalidUnit.
func (e *InvalidUnitError) Is(target error) bool {
	return target == ErrInvalidUnit
}
