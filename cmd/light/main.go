package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/app"
	"github.com/robotalks/lightlink/pkg/config"
	"github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/packet"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := config.NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	runner := framework.NewRunner().HandleSignals()
	node, err := app.Dial(runner.Context, conf, packet.RoleLight)
	if err != nil {
		glog.Exit(err)
	}
	err = runner.Go(node).Wait()
	if cerr := node.Close(); cerr != nil {
		glog.Warningf("close outputs: %v", cerr)
	}
	if err != nil {
		glog.Exit(err)
	}
}
