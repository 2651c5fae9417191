package log

import (
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// redactor decides which log values hide a secret.
type redactor struct {
	// exact holds lower-case attribute keys that are always masked.
	exact map[string]struct{}
	// fragments mask any key containing them. "key" alone is absent
	// because it matches "primary_key" and "monkey".
	fragments []string
	// shapes match secret-looking values regardless of their key.
	shapes []*regexp.Regexp
}

func newRedactor() *redactor {
	r := &redactor{
		exact: make(map[string]struct{}),
		fragments: []string{
			"password", "passwd", "secret", "token", "auth", "credential", "private",
		},
		shapes: []*regexp.Regexp{
			regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
			regexp.MustCompile(`(?i)^bearer\s+.+`),
			regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
			regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
			regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
		},
	}
	for _, k := range []string{
		"cookie", "set-cookie", "x-api-key", "api_key", "api-key", "apikey",
		"session", "session_id", "sessionid", "sid", "jsessionid",
	} {
		r.exact[k] = struct{}{}
	}
	return r
}

// defaultRedactor is shared by every SecureHandler.
var defaultRedactor = newRedactor()

// secretKey reports whether an attribute or query key names a secret.
func (r *redactor) secretKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := r.exact[key]; ok {
		return true
	}
	return r.hasFragment(key)
}

func (r *redactor) hasFragment(key string) bool {
	for _, f := range r.fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

// secretValue reports whether s looks like a credential. Hex digests do
// not match, so content hashes stay readable.
func (r *redactor) secretValue(s string) bool {
	for _, re := range r.shapes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// scrubURL masks the password and secret query parameters of an absolute
// http(s) URL. It returns false when s is not such a URL or nothing in it
// needed masking.
func (r *redactor) scrubURL(s string) (string, bool) {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}

	dirty := false
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), MaskValue)
		dirty = true
	}
	if u.RawQuery != "" {
		q := u.Query()
		masked := false
		for k := range q {
			if r.secretKey(k) {
				q.Set(k, MaskValue)
				masked = true
			}
		}
		if masked {
			u.RawQuery = q.Encode()
			dirty = true
		}
	}
	if !dirty {
		return "", false
	}

	escaped := url.QueryEscape(MaskValue)
	return strings.ReplaceAll(u.String(), escaped, MaskValue), true
}
