package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const idempotencyHeader = "X-Idempotency-Key"

// idempotencyTransport stamps payment creations with the caller's key. Without
// one in the context the SDK's generated key is kept.
type idempotencyTransport struct {
	next http.RoundTripper
}

func (t *idempotencyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key, ok := idempotencyKey(req.Context())
	if !ok || req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/v1/payments") {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set(idempotencyHeader, key)
	return t.next.RoundTrip(req)
}

// rebaseTransport sends SDK requests to another API host, keeping the path.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func newRebaseTransport(baseURL string, next http.RoundTripper) (*rebaseTransport, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", baseURL)
	}
	return &rebaseTransport{base: u, next: next}, nil
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.base.Scheme
	req.URL.Host = t.base.Host
	req.URL.Path = t.base.Path + req.URL.Path
	req.URL.RawPath = ""
	req.Host = t.base.Host
	return t.next.RoundTrip(req)
}
