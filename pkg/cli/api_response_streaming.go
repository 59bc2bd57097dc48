package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/tidwall/pretty"
)

var _ APIResponse = &StreamingAPIResponse{}

type StreamingAPIResponseHandler func(ctx context.Context, conn *websocket.Conn, msg chan []byte, err chan error)

type StreamingAPIResponse struct {
	url           *url.URL
	streamContext context.Context
	cancel        context.CancelFunc
	streamingFunc StreamingAPIResponseHandler
	dialer        *websocket.Dialer
	color         bool
}

func NewStreamingAPIResponse(ctx context.Context, url *url.URL, dialer *websocket.Dialer, streamingFunc StreamingAPIResponseHandler, color bool) APIResponse {
	ctx, cancel := context.WithCancel(ctx)
	return &StreamingAPIResponse{
		url:           url,
		streamContext: ctx,
		cancel:        cancel,
		streamingFunc: streamingFunc,
		dialer:        dialer,
		color:         color,
	}
}

func (resp *StreamingAPIResponse) Err() error {
	return nil
}

// Print writes one line of JSON per received message.
func (resp *StreamingAPIResponse) Print(w io.Writer) error {
	conn, _, err := resp.dialer.DialContext(resp.streamContext, resp.url.String(), nil)
	if err != nil {
		return fmt.Errorf("error dialing to %s: %w", resp.url.String(), err)
	}

	messageChan := make(chan []byte)
	errorChan := make(chan error)
	defer func() {
		resp.cancel()
		_ = conn.Close()
	}()

	go resp.streamingFunc(resp.streamContext, conn, messageChan, errorChan)

	for {
		select {
		case msg := <-messageChan:
			line := pretty.Ugly(msg)
			if resp.color {
				line = pretty.Color(line, nil)
			}
			if _, err := fmt.Fprintln(w, string(line)); err != nil {
				return err
			}
		case err := <-errorChan:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return nil
			}
			return err
		case <-resp.streamContext.Done():
			return nil
		}
	}
}
