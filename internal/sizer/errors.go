package sizer

import "errors"

// errUnsupportedScheme marks locations that cannot be measured over HTTP.
var errUnsupportedScheme = errors.New("unsupported scheme")
