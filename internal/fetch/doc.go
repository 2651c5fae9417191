// Package fetch retrieves the primary document for an analysis run.
//
// Client wraps an *http.Client with the options pagecarbon needs: an
// optional SOCKS5 proxy, per-site cookie and header injection, a body size
// cap and charset decoding to UTF-8. The same *http.Client is handed to the
// resource sizer so both share connection pooling and proxy settings.
//
// Any failure to retrieve the page, including a non-2xx status, is reported
// as *model.FetchError.
package fetch
