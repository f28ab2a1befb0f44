// Package websocket carries one radio frame per binary websocket message,
// a point-to-point air between exactly two nodes.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return &ReadWriter{Conn: conn, done: make(chan struct{})}
}

// Dial connects to a websocket peer.
func Dial(url, origin string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Accept listens on addr and returns the first peer connecting to path.
// Later peers are rejected.
func Accept(ctx context.Context, addr, path string) (*ReadWriter, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	peerCh := make(chan *ReadWriter, 1)
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		rw := New(conn)
		select {
		case peerCh <- rw:
		default:
			glog.Warningf("websocket peer %s rejected", conn.Request().RemoteAddr)
			return
		}
		// the connection is closed when the handler returns
		<-rw.done
	}))
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	glog.Infof("waiting for websocket peer on %s%s", ln.Addr(), path)
	select {
	case rw := <-peerCh:
		ln.Close()
		return rw, nil
	case <-ctx.Done():
		srv.Close()
		return nil, ctx.Err()
	}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() (err error) {
	p.closeOnce.Do(func() {
		err = p.Conn.Close()
		close(p.done)
	})
	return
}
