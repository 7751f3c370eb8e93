package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"servicedeck/pkg/log"
	"servicedeck/pkg/models"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	HealthCheckFailed = "Health check failed"
	InfoRequestFailed = "Service info request failed"

	defaultTimeout  = 5 * time.Second
	maxPayloadBytes = 1 << 20
	infoEndpoint    = "/info"
)

// OutcomeKind tags how a request to a service ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeHTTPError
	OutcomeTransportError
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the result of one health or info request.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	StatusText string
	Payload    json.RawMessage
	Err        error
	Timeout    time.Duration
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Cause describes a failed outcome without any prefix.
func (o Outcome) Cause() string {
	switch o.Kind {
	case OutcomeSuccess:
		return ""
	case OutcomeHTTPError:
		return fmt.Sprintf("HTTP %d: %s", o.StatusCode, o.StatusText)
	case OutcomeTimeout:
		return "request timed out after " + o.Timeout.String()
	default:
		if o.Err == nil {
			return "request failed"
		}
		return o.Err.Error()
	}
}

// Message prefixes the cause, e.g. "Health check failed: HTTP 503: Service Unavailable".
func (o Outcome) Message(prefix string) string {
	return prefix + ": " + o.Cause()
}

// Client talks to services through the gateway. Each request carries its own deadline.
type Client struct {
	http       *retryablehttp.Client
	gatewayURL string
	timeout    time.Duration
}

// NewClient creates a client. retryMax is 0 for the dashboard: failures surface immediately and the
// user decides when to refresh.
func NewClient(gatewayURL string, timeout time.Duration, retryMax int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:       CreateRetryableClient(retryMax),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		timeout:    timeout,
	}
}

// CreateRetryableClient returns a quiet retryablehttp client that only retries transport errors and
// hands the final error back unchanged.
func CreateRetryableClient(retryMax int) *retryablehttp.Client {
	if retryMax < 0 {
		retryMax = 0
	}
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = nil
	client.CheckRetry = transportOnlyRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// transportOnlyRetryPolicy never retries a response, whatever its status.
func transportOnlyRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	return err != nil, nil
}

// CheckHealth requests the descriptor's health endpoint.
func (c *Client) CheckHealth(ctx context.Context, svc models.ServiceDescriptor) Outcome {
	return c.get(ctx, c.resolve(svc.BaseURL, svc.HealthPath()))
}

// GetServiceInfo requests the descriptor's /info endpoint.
func (c *Client) GetServiceInfo(ctx context.Context, svc models.ServiceDescriptor) Outcome {
	return c.get(ctx, c.resolve(svc.BaseURL, infoEndpoint))
}

// resolve joins a base URL and endpoint; relative base URLs are resolved against the gateway.
func (c *Client) resolve(baseURL, endpoint string) string {
	base := strings.TrimRight(baseURL, "/")
	if u, err := url.Parse(base); err != nil || u.Scheme == "" {
		base = c.gatewayURL + "/" + strings.TrimLeft(base, "/")
	}
	return base + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) get(ctx context.Context, target string) Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outcome := c.do(reqCtx, target)
	if outcome.Kind == OutcomeTransportError && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		outcome = Outcome{Kind: OutcomeTimeout, Err: outcome.Err, Timeout: c.timeout}
	}

	log.Debug().
		Str("url", target).
		Str("outcome", outcome.Kind.String()).
		Int("status", outcome.StatusCode).
		Msg("Service request finished")
	return outcome
}

func (c *Client) do(ctx context.Context, target string) Outcome {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Kind: OutcomeTransportError, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return Outcome{Kind: OutcomeTransportError, Err: unwrapURLError(err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("url", target).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Outcome{
			Kind:       OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Outcome{Kind: OutcomeTransportError, StatusCode: resp.StatusCode, Err: unwrapURLError(err)}
	}

	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Outcome{
			Kind:       OutcomeTransportError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("invalid JSON response: %w", err),
		}
	}

	return Outcome{Kind: OutcomeSuccess, StatusCode: resp.StatusCode, Payload: payload}
}

// statusText returns the reason phrase the upstream sent, falling back to the standard text.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
