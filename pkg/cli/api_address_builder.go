package cli

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// buildHTTPClientAndURL resolves path against the api address. Addresses
// of the form unix:///path/to/socket are dialed over the socket.
func (api *APIClient) buildHTTPClientAndURL(path string) (*http.Client, *url.URL, error) {
	u, err := url.Parse(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}
	if u.Scheme != "unix" {
		u.Path = path
		return &http.Client{Timeout: api.timeout}, u, nil
	}

	socketPath := u.Path
	return &http.Client{
		Timeout: api.timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}, &url.URL{Scheme: "http", Host: "unix", Path: path}, nil
}

func (api *APIClient) buildWebsocketURL(path string) (*websocket.Dialer, *url.URL, error) {
	u, err := url.Parse(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}
	if u.Scheme != "unix" {
		if u.Scheme == "https" {
			u.Scheme = "wss"
		} else {
			u.Scheme = "ws"
		}
		u.Path = path
		return websocket.DefaultDialer, u, nil
	}

	socketPath := u.Path
	dialer := &websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			return net.Dial("unix", socketPath)
		},
	}

	return dialer, &url.URL{Scheme: "ws", Host: "unix", Path: path}, nil
}
