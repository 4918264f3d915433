package hosted

import (
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

type settings struct {
	httpClient *http.Client
	timeout    time.Duration
	tokenStore TokenStore
	now        func() time.Time
}

// Option configures a Client or an AdminClient.
type Option func(*settings)

// WithHTTPClient sets the base HTTP client. (default: a client with a 10s timeout)
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithTimeout sets the timeout of every request made to the hosted backend.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithTokenStore persists the end-user session in ts. Ignored by AdminClient. (default: in memory)
func WithTokenStore(ts TokenStore) Option {
	return func(s *settings) {
		s.tokenStore = ts
	}
}

func withClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: s.timeout}
	} else if s.timeout != defaultTimeout {
		c := *s.httpClient
		c.Timeout = s.timeout
		s.httpClient = &c
	}

	if s.tokenStore == nil {
		s.tokenStore = NewMemoryTokenStore()
	}

	return s
}
