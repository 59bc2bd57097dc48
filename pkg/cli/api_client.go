package cli

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mittwald/mittcheck/pkg/server"
	"github.com/mittwald/mittcheck/pkg/sink"
)

const DefaultAPIAddress = "http://localhost:9103"

// APIClient talks to the status api of a running agent.
type APIClient struct {
	apiAddress string
	timeout    time.Duration
	color      bool
}

type APIClientOption func(*APIClient)

// WithColor enables colorized JSON output.
func WithColor(color bool) APIClientOption {
	return func(api *APIClient) {
		api.color = color
	}
}

func WithTimeout(d time.Duration) APIClientOption {
	return func(api *APIClient) {
		api.timeout = d
	}
}

func NewAPIClient(apiAddress string, opts ...APIClientOption) *APIClient {
	if apiAddress == "" {
		apiAddress = DefaultAPIAddress
	}
	api := &APIClient{apiAddress: apiAddress, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// Checks lists the names of all registered checks.
func (api *APIClient) Checks() *TypedAPIResponse[[]string] {
	return get(api, "/v1/checks", nil, []string{})
}

func (api *APIClient) Check(name string) *TypedAPIResponse[server.CheckResponse] {
	return get(api, "/v1/checks/"+url.PathEscape(name), nil, server.CheckResponse{})
}

// Status returns the last snapshot of every check. A failing agent answers
// with status 503 and a regular body.
func (api *APIClient) Status() *TypedAPIResponse[server.StatusResponse] {
	return get(api, "/status", nil, server.StatusResponse{})
}

func (api *APIClient) History(name string, limit int) *TypedAPIResponse[[]sink.Record] {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return get(api, "/v1/checks/"+url.PathEscape(name)+"/history", q, []sink.Record{})
}

// Watch streams change events until ctx is cancelled or the agent closes
// the stream.
func (api *APIClient) Watch(ctx context.Context) APIResponse {
	dialer, u, err := api.buildWebsocketURL("/v1/watch")
	if err != nil {
		return &TypedAPIResponse[struct{}]{Error: err}
	}

	handler := func(ctx context.Context, conn *websocket.Conn, msgChan chan []byte, errChan chan error) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				select {
				case errChan <- err:
				case <-ctx.Done():
				}
				return
			}
			select {
			case msgChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
	return NewStreamingAPIResponse(ctx, u, dialer, handler, api.color)
}

func get[TBody any](api *APIClient, path string, query url.Values, body TBody) *TypedAPIResponse[TBody] {
	client, u, err := api.buildHTTPClientAndURL(path)
	if err != nil {
		return &TypedAPIResponse[TBody]{Error: err}
	}
	u.RawQuery = query.Encode()

	res := NewTypedAPIResponse(body)(client.Get(u.String()))
	res.color = api.color
	return res
}
