package display

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/lightlink/pkg/mqtt"
)

// StatusTopic returns the topic a node's StatusEvent is published on.
func StatusTopic(role, id string) string {
	return strings.ToLower(role) + "/" + id + "/status"
}

// Publisher publishes the display content as a retained StatusEvent.
type Publisher struct {
	Queue *mqtt.Queue
	Topic string

	lock  sync.Mutex
	event StatusEvent
}

// NewPublisher creates a Publisher for the node role/id.
func NewPublisher(q *mqtt.Queue, role, id string) *Publisher {
	p := &Publisher{
		Queue: q,
		Topic: StatusTopic(role, id),
		event: StatusEvent{Role: role, ID: id},
	}
	q.OnConnect = func(*mqtt.Queue) { p.republish() }
	return p
}

// ShowStatus implements Display.
func (p *Publisher) ShowStatus(on bool) {
	p.update(func(ev *StatusEvent) { ev.On = on })
}

// ShowMode implements Display.
func (p *Publisher) ShowMode(text string) {
	p.update(func(ev *StatusEvent) { ev.Mode = text })
}

// ShowID implements Display.
func (p *Publisher) ShowID(string) {
	// the id is part of the topic
}

// Event returns a copy of the last published event.
func (p *Publisher) Event() StatusEvent {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.event
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	token := p.Queue.PubWith(p.Topic, nil, 1, true)
	token.Wait()
	p.Queue.Close()
	return ctx.Err()
}

func (p *Publisher) update(fn func(*StatusEvent)) {
	p.lock.Lock()
	fn(&p.event)
	p.event.Seq++
	ev := p.event
	p.lock.Unlock()
	p.publish(&ev)
}

func (p *Publisher) republish() {
	ev := p.Event()
	if ev.Seq > 0 {
		p.publish(&ev)
	}
}

func (p *Publisher) publish(ev *StatusEvent) {
	data, err := proto.Marshal(ev)
	if err != nil {
		glog.Errorf("encode status event error: %v", err)
		return
	}
	if p.Queue.Client.IsConnected() {
		p.Queue.PubWith(p.Topic, data, 1, true)
	}
}
