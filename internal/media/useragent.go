package media

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
}

// UserAgentPool hands out browser user agents at random.
type UserAgentPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

// NewUserAgentPool builds a pool over uas, or the built-in list when empty.
func NewUserAgentPool(rnd *rand.Rand, uas ...string) *UserAgentPool {
	if len(uas) == 0 {
		uas = browserUserAgents
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &UserAgentPool{rnd: rnd, uas: uas}
}

// Random returns one user agent.
func (p *UserAgentPool) Random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

// UserAgentTransport sets a random browser user agent on requests that carry none.
type UserAgentTransport struct {
	Base http.RoundTripper
	Pool *UserAgentPool
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.Pool != nil {
		r.Header.Set("User-Agent", t.Pool.Random())
	}
	return base.RoundTrip(r)
}

// NewBrowserClient returns an HTTP client that looks like a desktop browser.
func NewBrowserClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &UserAgentTransport{
			Base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				MaxIdleConnsPerHost:   4,
			},
			Pool: NewUserAgentPool(nil),
		},
		Timeout: timeout,
	}
}
