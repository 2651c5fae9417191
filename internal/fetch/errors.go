package fetch

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNotHTML is the cause recorded by the analysis pipeline when the
	// fetched response is not an HTML document. Client.Fetch does not return it.
	ErrNotHTML = errors.New("response is not HTML")
)
