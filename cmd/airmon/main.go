package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/config"
	"github.com/robotalks/lightlink/pkg/display"
	"github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/mqtt"
	"github.com/robotalks/lightlink/pkg/packet"
)

var (
	mqttURL = config.DefaultLinkURL
)

func init() {
	if val := os.Getenv("LIGHTLINK_LINK_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

// describe formats a message heard on the broker: frames on the air and
// status events published by nodes.
func describe(topic string, payload []byte) string {
	if strings.HasSuffix(topic, "/status") {
		if len(payload) == 0 {
			return fmt.Sprintf("%s: cleared", topic)
		}
		ev, err := display.DecodeStatusEvent(payload)
		if err != nil {
			return fmt.Sprintf("%s: bad status event: %v", topic, err)
		}
		return fmt.Sprintf("%s: [StatusEvent] %s", topic, ev.String())
	}
	var b packet.Buffer
	if err := packet.Load(&b, payload); err != nil {
		return fmt.Sprintf("%s: bad frame: %v", topic, err)
	}
	addr := packet.DecodeAddress(&b)
	return fmt.Sprintf("%s: [%04X] %s %s", topic, addr.ShortID(), addr, packet.Decode(&b))
}

func main() {
	flag.Parse()
	defer glog.Flush()

	q, err := mqtt.NewQueueFromURL(mqttURL, "lightlink-airmon-")
	if err != nil {
		glog.Exit(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		glog.Info(describe(topic, payload))
	}))

	runner := framework.NewRunner().HandleSignals()
	err = runner.Go(framework.RunFunc(func(ctx context.Context) error {
		if err := q.ConnectWait(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		q.Close()
		return ctx.Err()
	})).Wait()
	if err != nil {
		glog.Exit(err)
	}
}
