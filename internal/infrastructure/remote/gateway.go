package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tillpoint/pos/pkg/apperror"
)

// DefaultTimeout bounds every remote call. Slow rural links are common at
// store sites, so the window is generous; past it the call surfaces as a
// timeout error rather than hanging the register.
const DefaultTimeout = 120 * time.Second

// Credentials carries the bearer token and acting-user ID attached to every
// authenticated request.
type Credentials struct {
	Token  string
	UserID string
}

// errorEnvelope is the remote API's error body shape.
type errorEnvelope struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
}

// Gateway is the single funnel for remote API traffic. Services never touch
// HTTP directly; they call Do with an Endpoint and get decoded data or a
// classified apperror back.
type Gateway struct {
	client        *resty.Client
	creds         func() Credentials
	onAuthExpired func()
}

// Option configures the gateway at construction time.
type Option func(*Gateway)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.client.SetTimeout(d)
	}
}

// WithOnAuthExpired registers the callback invoked when the server reports
// the session is no longer valid. The auth service uses it to force a local
// logout.
func WithOnAuthExpired(fn func()) Option {
	return func(g *Gateway) {
		g.onAuthExpired = fn
	}
}

// NewGateway creates a gateway for the given base URL. creds is called per
// request so a token refresh takes effect without rebuilding the client.
func NewGateway(baseURL string, creds func() Credentials, opts ...Option) *Gateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")

	g := &Gateway{client: client, creds: creds}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request describes one call through the gateway.
type Request struct {
	Endpoint   Endpoint
	PathParams map[string]string
	Query      url.Values
	Body       interface{}
	// Out receives the decoded JSON response body when non-nil.
	Out interface{}
}

// Result carries the raw response for callers that need non-JSON payloads,
// e.g. CSV exports.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Do executes the request. Transport failures map to the offline error,
// deadline hits to the timeout error, and non-2xx responses to a remote
// error built from the server's envelope.
func (g *Gateway) Do(ctx context.Context, req Request) (*Result, error) {
	r := g.client.R().SetContext(ctx)

	creds := g.creds()
	if creds.Token != "" {
		r.SetHeader("Authorization", "Bearer "+creds.Token)
	}
	if creds.UserID != "" {
		r.SetHeader("X-USER-ID", creds.UserID)
	}

	for k, v := range req.PathParams {
		r.SetPathParam(k, v)
	}
	for k, vs := range req.Query {
		for _, v := range vs {
			r.SetQueryParam(k, v)
		}
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Endpoint.Method, req.Endpoint.Path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperror.ErrRequestTimeout
		}
		return nil, apperror.ErrOffline
	}

	result := &Result{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}

	if resp.IsError() {
		return result, g.remoteError(resp.StatusCode(), resp.Body())
	}

	if req.Out != nil && strings.Contains(result.ContentType, "application/json") {
		if err := json.Unmarshal(result.Body, req.Out); err != nil {
			return result, fmt.Errorf("failed to decode response from %s: %w", req.Endpoint.Path, err)
		}
	}

	return result, nil
}

// remoteError classifies a non-2xx response. A 401 or an explicit
// "logged_out" code means the session is gone; the registered callback fires
// before the error is returned.
func (g *Gateway) remoteError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		env.Message = fmt.Sprintf("Remote request failed with status %d", status)
	}

	if status == 401 || env.Code == "logged_out" {
		if g.onAuthExpired != nil {
			g.onAuthExpired()
		}
	}

	value := ""
	if env.Value != nil {
		value = fmt.Sprint(env.Value)
	}
	return apperror.NewRemoteError(status, env.Message, env.Field, value)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
