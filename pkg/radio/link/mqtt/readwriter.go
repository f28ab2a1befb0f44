// Package mqtt shares one MQTT topic tree as the air between nodes.
// Every node publishes its frames to <channel>/<self> and hears every
// other node on <channel>/+.
package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/mqtt"
)

// DefaultChannel is the default air topic.
const DefaultChannel = "air"

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Queue    *mqtt.Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
	sub       *mqtt.Subscription
}

// NewPacketReadWriter creates the ReadWriter for node self on channel.
func NewPacketReadWriter(q *mqtt.Queue, channel, self string) *ReadWriter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &ReadWriter{
		Queue:    q,
		SubTopic: channel + "/+",
		PubTopic: channel + "/" + self,
		packetCh: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

// Open subscribes to the air topic and connects.
func (p *ReadWriter) Open(ctx context.Context) error {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	return p.Queue.ConnectWait(ctx)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		if p.sub != nil {
			p.sub.Close()
		}
		p.Queue.Close()
	})
	return nil
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	if topic == p.PubTopic {
		return
	}
	select {
	case p.packetCh <- payload:
	case <-p.closed:
	default:
		glog.V(2).Infof("air frame from %q dropped", topic)
	}
}
