package display

import "github.com/golang/glog"

// Log shows everything in the log at verbosity 1.
type Log struct {
	Name string
}

// ShowStatus implements Display.
func (d *Log) ShowStatus(on bool) {
	glog.V(1).Infof("[%s] status %s", d.Name, StatusText(on))
}

// ShowMode implements Display.
func (d *Log) ShowMode(text string) {
	glog.V(1).Infof("[%s] mode %s", d.Name, text)
}

// ShowID implements Display.
func (d *Log) ShowID(text string) {
	glog.V(1).Infof("[%s] %s", d.Name, text)
}
