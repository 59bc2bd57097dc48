package bridge

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 10 * time.Second

	// responses are truncated beyond this size
	maxBodySize = 8 << 20
)

// Response is the result of an HTTP host call. Every HTTP response is a
// Response, whatever its status code.
type Response struct {
	Status string
	Body   string
}

// Bridge performs the I/O behind the host functions exposed to scripts.
// It is safe for concurrent use.
type Bridge struct {
	client        *http.Client
	timeout       time.Duration
	remotes       map[string]RemoteTransport
	defaultRemote string
}

type Option func(*Bridge)

func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(b *Bridge) {
		b.client = c
	}
}

// WithRemoteTransport registers t under its protocol name. The first
// registered transport becomes the default one.
func WithRemoteTransport(t RemoteTransport) Option {
	return func(b *Bridge) {
		b.remotes[t.Protocol()] = t
		if b.defaultRemote == "" {
			b.defaultRemote = t.Protocol()
		}
	}
}

func WithDefaultRemote(protocol string) Option {
	return func(b *Bridge) {
		b.defaultRemote = protocol
	}
}

func New(opts ...Option) *Bridge {
	b := &Bridge{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		remotes: make(map[string]RemoteTransport),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Timeout() time.Duration {
	return b.timeout
}

func (b *Bridge) Get(ctx context.Context, url string) (Response, error) {
	return b.do(ctx, http.MethodGet, url, "", nil)
}

func (b *Bridge) PostText(ctx context.Context, url, text string) (Response, error) {
	return b.do(ctx, http.MethodPost, url, "text/plain; charset=utf-8", strings.NewReader(text))
}

// PostJSON serializes payload before sending it. A payload that cannot be
// serialized fails with a *value.SerializationError and nothing is sent.
func (b *Bridge) PostJSON(ctx context.Context, url string, payload value.Value) (Response, error) {
	if payload.Kind() != value.KindMap {
		return Response{}, &value.SerializationError{Reason: "post_json payload must be a map, got " + payload.Kind().String()}
	}

	data, err := value.ToJSON(payload)
	if err != nil {
		return Response{}, err
	}

	return b.do(ctx, http.MethodPost, url, "application/json", bytes.NewReader(data))
}

func (b *Bridge) do(ctx context.Context, method, url, contentType string, body io.Reader) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Response{}, &TransportError{Op: method, Target: url, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return Response{}, &TransportError{Op: method, Target: url, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	status := strconv.Itoa(res.StatusCode)

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		log.WithFields(log.Fields{"kind": "bridge", "method": method, "target": url, "status": status}).WithError(err).Warn("could not read response body")
		return Response{Status: status, Body: err.Error()}, nil
	}

	log.WithFields(log.Fields{"kind": "bridge", "method": method, "target": url, "status": status}).Debug()
	return Response{Status: status, Body: strings.ToValidUTF8(string(data), "\uFFFD")}, nil
}
