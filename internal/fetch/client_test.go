package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagecarbon/internal/model"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.HTTPClient().Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.HTTPClient().Timeout, DefaultTimeout)
		}
		if client.UserAgent() != DefaultUserAgent {
			t.Errorf("UserAgent = %q", client.UserAgent())
		}
		if client.HTTPClient().Jar == nil {
			t.Error("expected cookie jar")
		}
	})

	t.Run("valid proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := NewClient(WithProxy("127.0.0.1:9050")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(WithProxy("127.0.0.1"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.HTTPClient().Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.HTTPClient().Timeout)
		}
	})
}

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:1080", true},
		{"[::1]:9050", true},
		{"127.0.0.1", false},
		{":9050", false},
		{"host:0", false},
		{"host:65536", false},
		{"host:abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			if got := isValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

// TestFetch tests page retrieval against a local server.
func TestFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body><p>hello</p></body></html>"))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=windows-1252")
			_, _ = w.Write([]byte("<p>caf\xe9</p>"))
		case "/redirect":
			http.Redirect(w, r, "/", http.StatusFound)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		case "/echo":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(r.Header.Get("User-Agent") + "|" + r.Header.Get("Cookie") + "|" + r.Header.Get("X-Token")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	t.Run("successful fetch", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		page, err := client.Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d", page.StatusCode)
		}
		if !strings.Contains(string(page.Body), "hello") {
			t.Errorf("unexpected body: %q", page.Body)
		}
		if page.Hash == "" {
			t.Error("expected content hash")
		}
		if !page.IsHTML() {
			t.Error("expected HTML page")
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient()
		page, err := client.Fetch(context.Background(), server.URL+"/latin1")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(page.Body) != "<p>café</p>" {
			t.Errorf("Body = %q, want UTF-8 decoded", page.Body)
		}
	})

	t.Run("follows redirects", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient()
		page, err := client.Fetch(context.Background(), server.URL+"/redirect")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if page.URL != server.URL+"/" {
			t.Errorf("URL = %q, want final URL", page.URL)
		}
	})

	t.Run("error status is fetch error", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient()
		_, err := client.Fetch(context.Background(), server.URL+"/error")
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		var fetchErr *model.FetchError
		if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500 in FetchError, got %v", err)
		}
	})

	t.Run("not found is fetch error", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient()
		if _, err := client.Fetch(context.Background(), server.URL+"/nope"); !errors.Is(err, model.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("injects user agent cookie and headers", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient(
			WithUserAgent("test-agent"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Token": "t1"}),
		)
		page, err := client.Fetch(context.Background(), server.URL+"/echo")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(page.Body) != "test-agent|session=abc|t1" {
			t.Errorf("Body = %q", page.Body)
		}
	})

	t.Run("body size cap", func(t *testing.T) {
		t.Parallel()

		client, _ := NewClient(WithMaxBodySize(6))
		page, err := client.Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(page.Body) != 6 {
			t.Errorf("len(Body) = %d, want 6", len(page.Body))
		}
	})
}

// TestFetchNetworkError tests that an unreachable host is a fetch error.
func TestFetchNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client, _ := NewClient(WithTimeout(time.Second))
	_, err := client.Fetch(context.Background(), addr)
	if !errors.Is(err, model.ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
}

// TestFetchTimeout tests that a slow server maps to a fetch error.
func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Fetch(context.Background(), server.URL)
	if !errors.Is(err, model.ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
}

// TestSiteTransport tests cookie merging and header injection.
func TestSiteTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cookie     string
		headers    map[string]string
		wantCookie string
	}{
		{name: "merges parsed cookies", cookie: "b=2; c=3", wantCookie: "a=1; b=2; c=3"},
		{name: "keeps unparsable cookie verbatim", cookie: "b=2; =", wantCookie: "a=1; b=2; ="},
		{name: "headers only", headers: map[string]string{"x-team": "green"}, wantCookie: "a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *http.Request
			base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
				got = req
				return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
			})

			req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			req.Header.Set("Cookie", "a=1")

			if _, err := newSiteTransport(base, tt.cookie, tt.headers).RoundTrip(req); err != nil {
				t.Fatalf("RoundTrip: %v", err)
			}
			if c := got.Header.Get("Cookie"); c != tt.wantCookie {
				t.Errorf("Cookie = %q, want %q", c, tt.wantCookie)
			}
			for k, v := range tt.headers {
				if got.Header.Get(k) != v {
					t.Errorf("header %s = %q, want %q", k, got.Header.Get(k), v)
				}
			}
			if req.Header.Get("Cookie") != "a=1" {
				t.Error("original request must not be modified")
			}
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
