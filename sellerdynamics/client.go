package sellerdynamics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const unknownActionMarker = "did not recognize the value of http header soapaction"

// Client posts SOAP envelopes to the upstream endpoint. Each call walks a
// list of SOAPAction candidates and retries the whole walk with exponential
// backoff.
type Client struct {
	endpoint    string
	prefixes    []string
	httpClient  *http.Client
	attempts    int
	backoffBase time.Duration
	logger      *zap.Logger
}

// NewClient creates a Client. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		prefixes:    cfg.ActionPrefixes,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		attempts:    cfg.RetryAttempts,
		backoffBase: cfg.BackoffBase,
		logger:      logger,
	}
}

// ActionCandidates lists the SOAPAction values to try for operation:
// preferred (if set), the quoted operation name, then the operation under
// each namespace prefix. Duplicates are dropped.
func ActionCandidates(operation, preferred string, prefixes []string) []string {
	candidates := make([]string, 0, len(prefixes)+2)
	seen := make(map[string]bool)
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		candidates = append(candidates, v)
	}

	add(preferred)
	add(`"` + operation + `"`)
	for _, p := range prefixes {
		add(`"` + p + operation + `"`)
	}
	return candidates
}

// Call sends envelope for operation and returns the raw response body of the
// first 2xx response. The error is a *TransportError once every attempt has
// failed.
func (c *Client) Call(ctx context.Context, operation, envelope, preferredAction string) ([]byte, error) {
	candidates := ActionCandidates(operation, preferredAction, c.prefixes)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.tryCandidates(ctx, operation, envelope, candidates)
		if err != nil {
			c.logger.Warn("upstream attempt failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.attempts),
				zap.Error(err))
			return err
		}
		body = b
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		return nil, &TransportError{Operation: operation, Attempts: attempt, Err: err}
	}
	return body, nil
}

// newBackOff waits base, 2*base, 4*base... between attempts and stops after
// the configured number of attempts. Nothing is waited after the last one.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.backoffBase
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = c.backoffBase << uint(c.attempts)
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.attempts-1)), ctx)
}

func (c *Client) tryCandidates(ctx context.Context, operation, envelope string, candidates []string) ([]byte, error) {
	var lastErr error
	for _, action := range candidates {
		body, err := c.post(ctx, envelope, action)
		if err == nil {
			c.logger.Debug("upstream call succeeded",
				zap.String("operation", operation),
				zap.String("soap_action", action))
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if !isUnknownAction(err) {
			return nil, err
		}
		c.logger.Debug("SOAPAction rejected, trying next candidate",
			zap.String("operation", operation),
			zap.String("soap_action", action))
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, envelope, action string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if bytes.Contains(bytes.ToLower(body), []byte(unknownActionMarker)) {
			return nil, fmt.Errorf("%w: %s", errUnknownAction, action)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return body, nil
}

func isUnknownAction(err error) bool {
	return errors.Is(err, errUnknownAction) || strings.Contains(strings.ToLower(err.Error()), unknownActionMarker)
}
