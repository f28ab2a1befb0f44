package link

import (
	"context"
	"fmt"
	"net/url"

	"github.com/robotalks/lightlink/pkg/mqtt"
	mqttrw "github.com/robotalks/lightlink/pkg/radio/link/mqtt"
	"github.com/robotalks/lightlink/pkg/radio/link/stream"
	"github.com/robotalks/lightlink/pkg/radio/link/websocket"
)

// Dial opens the air described by rawURL for node self and returns the
// Radio on top of it. Supported schemes:
//
//	mqtt://host:port[/prefix][?channel=air]  shared air through a broker
//	tcp://host:port                          point-to-point, dialing
//	tcp-listen://[host]:port                 point-to-point, waiting for one peer
//	ws://host:port/path                      point-to-point websocket, dialing
//	ws-listen://[host]:port/path             point-to-point websocket, waiting for one peer
func Dial(ctx context.Context, rawURL, self string) (*Radio, error) {
	rw, err := Open(ctx, rawURL, self)
	if err != nil {
		return nil, err
	}
	return New(rw), nil
}

// Open opens the PacketReadWriter described by rawURL.
func Open(ctx context.Context, rawURL, self string) (PacketReadWriter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(rawURL, "lightlink-")
		if err != nil {
			return nil, err
		}
		rw := mqttrw.NewPacketReadWriter(q, u.Query().Get("channel"), self)
		if err := rw.Open(ctx); err != nil {
			rw.Close()
			return nil, err
		}
		return rw, nil
	case "tcp":
		return stream.Dial(ctx, u.Host)
	case "tcp-listen":
		return stream.Accept(ctx, u.Host)
	case "ws", "wss":
		return websocket.Dial(rawURL, "http://"+self)
	case "ws-listen":
		path := u.Path
		if path == "" {
			path = "/"
		}
		return websocket.Accept(ctx, u.Host, path)
	}
	return nil, fmt.Errorf("unsupported link scheme %q", u.Scheme)
}
