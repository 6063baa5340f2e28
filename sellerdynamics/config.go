// Package sellerdynamics talks to the upstream seller platform over SOAP:
// it builds envelopes, negotiates the SOAPAction header, parses responses
// and pages through the stock-level listing.
package sellerdynamics

import "time"

const (
	DefaultNamespace     = "https://my.sellerdynamics.com/"
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultBackoffBase   = 2 * time.Second
	DefaultMaxPages      = 100
	DefaultPageSize      = 1000
	DefaultPageDelay     = 100 * time.Millisecond

	maxResponseSize = 50 << 20
)

// DefaultActionPrefixes are tried, in order, after the caller's preferred
// SOAPAction and the bare operation name.
var DefaultActionPrefixes = []string{
	"http://www.sellerdynamics.com/",
	"https://my.sellerdynamics.com/",
	"https://my.sellerdynamics.com/api/SellerDynamicsAPI.asmx/",
}

// Config holds the upstream connection settings.
type Config struct {
	Endpoint       string
	EncryptedLogin string
	RetailerID     string
	APIKey         string
	Namespace      string
	ActionPrefixes []string

	Timeout       time.Duration
	RetryAttempts int
	BackoffBase   time.Duration

	MaxPages  int
	PageSize  int
	PageDelay time.Duration
}

// Configured reports whether the endpoint and both credentials are set.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.EncryptedLogin != "" && c.RetailerID != ""
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.ActionPrefixes == nil {
		c.ActionPrefixes = DefaultActionPrefixes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	return c
}

func configuredLabel(v string) string {
	if v == "" {
		return "Not Configured"
	}
	return "Configured"
}
