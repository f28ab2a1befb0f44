// Package console is the administrative console of a node. Commands only
// raise requests through the bridge and read snapshots, they never touch
// protocol state directly.
package console

import (
	"bytes"
	"context"
	"fmt"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/node"
)

// Requester raises console requests, implemented by bridge.Bridge.
type Requester interface {
	RequestToggle()
	RequestStateChange()
}

// Snapshotter provides the node state, implemented by node.Light and
// node.Switch.
type Snapshotter interface {
	Snapshot() node.Snapshot
}

// Shell provides ishell backed interactive console.
type Shell struct {
	Shell    *ishell.Shell
	Requests Requester
	Node     Snapshotter
}

const shellKey = "$console"

var commands = []*ishell.Cmd{
	&ToggleCmd,
	&StateCmd,
	&StatusCmd,
	&InfoCmd,
}

// AddCmds adds more commands to every Shell created afterwards.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a console.
func New(req Requester, n Snapshotter) *Shell {
	s := &Shell{
		Shell:    ishell.New(),
		Requests: req,
		Node:     n,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(Prompt(n.Snapshot()))
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Prompt is the prompt for the node.
func Prompt(snap node.Snapshot) string {
	return fmt.Sprintf("%s[%04X] > ", snap.Role, snap.Address.ShortID())
}

// FormatSnapshot prints a snapshot for display.
func FormatSnapshot(snap node.Snapshot) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s Node [%04X] %s", snap.Role, snap.Address.ShortID(), snap.State)
	fmt.Fprintf(&w, ", bulb %s", onOff(snap.Status))
	if !snap.Peer.IsZero() {
		fmt.Fprintf(&w, ", peer [%04X]", snap.Peer.ShortID())
	}
	return w.String()
}

// FormatInfo prints the details of a snapshot.
func FormatInfo(snap node.Snapshot) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "role:    %s\n", snap.Role)
	fmt.Fprintf(&w, "address: %s\n", snap.Address)
	fmt.Fprintf(&w, "state:   %s\n", snap.State)
	fmt.Fprintf(&w, "bulb:    %s\n", onOff(snap.Status))
	if !snap.Peer.IsZero() {
		fmt.Fprintf(&w, "peer:    %s\n", snap.Peer)
	}
	fmt.Fprintf(&w, "pending: %d packets\n", snap.PacketsPending)
	fmt.Fprintf(&w, "sent:    %d frames", snap.Sent)
	return w.String()
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Process runs one command line.
func (s *Shell) Process(args ...string) error {
	return s.Shell.Process(args...)
}

// Name implements Named.
func (s *Shell) Name() string {
	return "console"
}

// Run implements Runnable. It returns when the input ends or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	return fx.RunWithContextCancel(ctx, func() { s.Shell.Close() }, func() error {
		s.Shell.Run()
		return nil
	})
}

var (
	// ToggleCmd requests a bulb toggle.
	ToggleCmd = ishell.Cmd{
		Name:    "toggle",
		Aliases: []string{"t"},
		Help:    "toggle the light bulb",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Requests.RequestToggle()
		},
	}

	// StateCmd requests a state change.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "change the protocol state",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Requests.RequestStateChange()
		},
	}

	// StatusCmd prints a one line status.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "show the node status",
		Func: func(c *ishell.Context) {
			c.Println(FormatSnapshot(ShellFrom(c).Node.Snapshot()))
		},
	}

	// InfoCmd prints the details.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "show node details",
		Func: func(c *ishell.Context) {
			c.Println(FormatInfo(ShellFrom(c).Node.Snapshot()))
		},
	}
)
