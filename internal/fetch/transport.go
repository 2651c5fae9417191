package fetch

import "net/http"

// siteTransport decorates page requests with the credentials configured
// for a site. The header set is built once; requests are cloned before
// they are changed.
type siteTransport struct {
	base    http.RoundTripper
	header  http.Header
	cookies []*http.Cookie

	// rawCookie is used when the configured cookie string does not parse.
	rawCookie string
}

func newSiteTransport(base http.RoundTripper, cookie string, headers map[string]string) *siteTransport {
	t := &siteTransport{base: base, header: make(http.Header, len(headers))}
	for k, v := range headers {
		t.header.Set(k, v)
	}
	if cookie != "" {
		if parsed, err := http.ParseCookie(cookie); err == nil {
			t.cookies = parsed
		} else {
			t.rawCookie = cookie
		}
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *siteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	for k, vs := range t.header {
		out.Header[k] = vs
	}
	for _, c := range t.cookies {
		out.AddCookie(c)
	}
	if t.rawCookie != "" {
		if prev := out.Header.Get("Cookie"); prev != "" {
			out.Header.Set("Cookie", prev+"; "+t.rawCookie)
		} else {
			out.Header.Set("Cookie", t.rawCookie)
		}
	}

	return t.base.RoundTrip(out)
}
