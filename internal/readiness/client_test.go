package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient()
	if c == nil || c.client == nil {
		t.Fatal("NewHTTPClient returned an unusable client")
	}
	if c.client.Timeout != primaryTimeout {
		t.Errorf("Timeout = %s, want %s", c.client.Timeout, primaryTimeout)
	}
}

func TestHTTPClient_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q, want %q", r.Header.Get("User-Agent"), userAgent)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "<html><body>Hello</body></html>")
	}))
	defer ts.Close()

	c := newHTTPClient(ts.Client().Transport)
	body, status, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = body.Close() }()

	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(data) != "<html><body>Hello</body></html>" {
		t.Errorf("body = %q", string(data))
	}
}

func TestHTTPClient_Fetch_DecodesCharset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<title>caf\xe9</title>"))
	}))
	defer ts.Close()

	c := newHTTPClient(ts.Client().Transport)
	body, _, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = body.Close() }()

	data, _ := io.ReadAll(body)
	if string(data) != "<title>café</title>" {
		t.Errorf("body = %q, want %q", string(data), "<title>café</title>")
	}
}

func TestHTTPClient_Fetch_RedirectLimit(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer ts.Close()

	c := newHTTPClient(ts.Client().Transport)
	if _, _, err := c.Fetch(context.Background(), ts.URL+"/r"); err == nil {
		t.Fatal("expected error for endless redirects, got nil")
	}
}

// hopServer redirects /0 → /1 → ... → /hops, which answers 200.
func hopServer(t *testing.T, hops int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n < hops {
			http.Redirect(w, r, "/"+strconv.Itoa(n+1), http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("<title>arrived</title>"))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPClient_Fetch_RedirectChain(t *testing.T) {
	tests := []struct {
		hops    int
		wantErr bool
	}{
		{hops: 4},
		{hops: maxRedirects},
		{hops: maxRedirects + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.hops), func(t *testing.T) {
			ts := hopServer(t, tt.hops)
			c := newHTTPClient(ts.Client().Transport)

			body, status, err := c.Fetch(context.Background(), ts.URL+"/0")
			if tt.wantErr {
				if !errors.Is(err, errTooManyRedirects) {
					t.Fatalf("err = %v, want errTooManyRedirects", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error after %d redirects: %v", tt.hops, err)
			}
			defer func() { _ = body.Close() }()
			if status != http.StatusOK {
				t.Errorf("status = %d, want %d", status, http.StatusOK)
			}
		})
	}
}

func TestProbeClient_Probe_RedirectChain(t *testing.T) {
	ts := hopServer(t, maxRedirects)
	p := newProbeClient(ts.Client().Transport)

	resp, err := p.Probe(context.Background(), http.MethodGet, ts.URL+"/0", "")
	if err != nil {
		t.Fatalf("unexpected error after %d redirects: %v", maxRedirects, err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHTTPClient_Fetch_InvalidURL(t *testing.T) {
	c := NewHTTPClient()
	if _, _, err := c.Fetch(context.Background(), "://bad-url"); err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestHTTPClient_Fetch_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newHTTPClient(ts.Client().Transport)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Fetch(ctx, ts.URL); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestHTTPClient_Fetch_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if _, _, err := NewHTTPClient().Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("expected loopback target to be refused, got nil error")
	}
}

func TestSafeRedirectPolicy(t *testing.T) {
	tests := []struct {
		name    string
		scheme  string
		via     int
		wantErr bool
	}{
		{name: "https within limit", scheme: "https", via: 3, wantErr: false},
		{name: "http at last allowed hop", scheme: "http", via: 5, wantErr: false},
		{name: "too many redirects", scheme: "https", via: 6, wantErr: true},
		{name: "blocked ftp scheme", scheme: "ftp", via: 0, wantErr: true},
		{name: "blocked file scheme", scheme: "file", via: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{URL: &url.URL{Scheme: tt.scheme, Host: "example.com"}} //nolint:exhaustruct
			via := make([]*http.Request, tt.via)

			err := safeRedirectPolicy(req, via)
			if (err != nil) != tt.wantErr {
				t.Errorf("safeRedirectPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProbeClient_Probe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/llms.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "# Site")
	})
	mux.HandleFunc("/.well-known/mcp.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"name":"x"}`)
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/llms.txt", http.StatusMovedPermanently)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := newProbeClient(ts.Client().Transport)
	ctx := context.Background()

	t.Run("get reads body", func(t *testing.T) {
		resp, err := p.Probe(ctx, http.MethodGet, ts.URL+"/llms.txt", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK || string(resp.Body) != "# Site" || resp.ContentType != "text/plain" {
			t.Errorf("resp = %d %q %q", resp.StatusCode, resp.ContentType, resp.Body)
		}
	})

	t.Run("head skips body", func(t *testing.T) {
		resp, err := p.Probe(ctx, http.MethodHead, ts.URL+"/llms.txt", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK || resp.Body != nil {
			t.Errorf("resp = %d, body %q", resp.StatusCode, resp.Body)
		}
	})

	t.Run("accept header", func(t *testing.T) {
		if _, err := p.Probe(ctx, http.MethodGet, ts.URL+"/.well-known/mcp.json", "application/json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("server errors are returned, not raised", func(t *testing.T) {
		resp, err := p.Probe(ctx, http.MethodGet, ts.URL+"/boom", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
		}
	})

	t.Run("follows redirects", func(t *testing.T) {
		resp, err := p.Probe(ctx, http.MethodGet, ts.URL+"/moved", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK || string(resp.Body) != "# Site" {
			t.Errorf("resp = %d %q", resp.StatusCode, resp.Body)
		}
	})
}
