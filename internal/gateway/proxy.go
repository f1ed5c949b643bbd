// Package gateway forwards booking operations to the legacy booking API.
// The remote credential lives here and never reaches callers.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driverhire/internal/config"
	"driverhire/pkg/logger"
)

// ErrRemoteUnavailable marks connection, timeout and malformed-response failures.
var ErrRemoteUnavailable = errors.New("booking api unavailable")

// hopHeaders are connection-scoped and must not be relayed.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// NormalizePath strips redundant domain prefixes ("booking" or
// "api/V1/booking", any case) until none remain. It is idempotent.
func NormalizePath(path string) string {
	segments := splitSegments(path)
	for {
		switch {
		case len(segments) >= 3 &&
			strings.EqualFold(segments[0], "api") &&
			strings.EqualFold(segments[1], "v1") &&
			strings.EqualFold(segments[2], "booking"):
			segments = segments[3:]
		case len(segments) >= 1 && strings.EqualFold(segments[0], "booking"):
			segments = segments[1:]
		default:
			return strings.Join(segments, "/")
		}
	}
}

func splitSegments(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// IsHopHeader reports whether a header is connection-scoped.
func IsHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// Forwarder sends requests to REMOTE_BASE/<base path>/<operation>.
type Forwarder struct {
	baseURL    string
	basePath   string
	authToken  string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewForwarder(cfg *config.BookingConfig, log *logger.Logger) *Forwarder {
	return NewForwarderWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, log)
}

func NewForwarderWithClient(cfg *config.BookingConfig, client *http.Client, log *logger.Logger) *Forwarder {
	return &Forwarder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		basePath:   strings.Trim(cfg.BasePath, "/"),
		authToken:  cfg.AuthToken,
		httpClient: client,
		logger:     log,
	}
}

// TargetURL maps an operation path onto the canonical remote path.
func (f *Forwarder) TargetURL(operation string) string {
	target := f.baseURL + "/" + f.basePath
	if normalized := NormalizePath(operation); normalized != "" {
		target += "/" + normalized
	}
	return target
}

// Request describes one forwarded call.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     io.Reader
}

// Forward issues the request upstream. GET and HEAD never carry a body;
// other verbs stream Body unmodified. The Authorization header is always
// replaced with the server-held credential.
func (f *Forwarder) Forward(ctx context.Context, req *Request) (*http.Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target := f.TargetURL(req.Path)
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		body = req.Body
	}

	upstream, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRemoteUnavailable, err)
	}

	for _, name := range []string{"Content-Type", "Accept"} {
		if v := req.Header.Get(name); v != "" {
			upstream.Header.Set(name, v)
		}
	}
	upstream.Header.Set("Authorization", f.authToken)

	start := time.Now()
	resp, err := f.httpClient.Do(upstream)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.WithFields(map[string]interface{}{
			"method":    method,
			"operation": NormalizePath(req.Path),
		}).WithError(scrubError(err, f.authToken)).Warn("Booking API request failed")
		return nil, fmt.Errorf("%w: %s %s", ErrRemoteUnavailable, method, NormalizePath(req.Path))
	}

	f.logger.WithFields(map[string]interface{}{
		"method":      method,
		"operation":   NormalizePath(req.Path),
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Booking API request completed")

	return resp, nil
}

func scrubError(err error, secret string) error {
	if secret == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), secret, "[redacted]"))
}
