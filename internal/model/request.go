package model

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// schemePrefixRe matches a leading "scheme:" as in "mailto:" or "javascript:".
	schemePrefixRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

	// portSuffixRe matches what follows "host:" when the colon starts a port.
	portSuffixRe = regexp.MustCompile(`^[0-9]+(?:[/?#]|$)`)
)

// AnalysisRequest is the input to one analysis run.
// It is created per invocation and is not persisted by the engine.
type AnalysisRequest struct {
	// TargetURL is the validated absolute URL to analyse.
	TargetURL string `json:"target_url"`

	// UserID identifies the requesting actor. The engine treats it as opaque.
	UserID string `json:"user_id"`
}

// NewAnalysisRequest normalizes rawURL and returns a request for it.
// It fails with an *InvalidURLError before any network activity.
func NewAnalysisRequest(rawURL, userID string) (AnalysisRequest, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return AnalysisRequest{}, err
	}
	return AnalysisRequest{TargetURL: normalized, UserID: userID}, nil
}

// NormalizeURL trims rawURL, adds an https:// scheme when none is present,
// rejects other schemes such as mailto: and checks that the result is an absolute http(s) URL with a host.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", &InvalidURLError{Input: rawURL, Reason: "empty URL"}
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return "", &InvalidURLError{Input: rawURL, Reason: "unsupported scheme"}
		}
		if prefix := schemePrefixRe.FindString(s); prefix != "" && !portSuffixRe.MatchString(s[len(prefix):]) {
			return "", &InvalidURLError{Input: rawURL, Reason: "unsupported scheme"}
		}
		s = "https://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", &InvalidURLError{Input: rawURL, Reason: err.Error()}
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", &InvalidURLError{Input: rawURL, Reason: "missing host"}
	}
	if strings.ContainsAny(u.Hostname(), " \t") {
		return "", &InvalidURLError{Input: rawURL, Reason: "invalid host"}
	}
	return u.String(), nil
}
