package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/Ztiany/av-device-server/internal/server/httpserver"
)

// Notifier prints the human-readable startup and shutdown notices.
type Notifier struct {
	mu   sync.Mutex
	w    io.Writer
	ok   *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewNotifier writes notices to w. Colors follow the terminal detection of
// fatih/color unless noColor is set.
func NewNotifier(w io.Writer, noColor bool) *Notifier {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c
	}
	return &Notifier{
		w:    w,
		ok:   mk(color.FgGreen, color.Bold),
		warn: mk(color.FgYellow),
		fail: mk(color.FgRed, color.Bold),
		dim:  mk(color.Faint),
	}
}

// Running announces a listener that accepts connections on port.
func (n *Notifier) Running(listener, scheme string, port int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.ok.Fprintf(n.w, "%s server running on port %d\n", strings.ToUpper(listener), port)
	fmt.Fprintf(n.w, "  %s://localhost:%d\n", scheme, port)
	fmt.Fprintf(n.w, "  %s://[your IP address]:%d\n", scheme, port)
}

// Skipped explains why the encrypted listener did not start and how to
// create a self-signed pair.
func (n *Notifier) Skipped(listener string, missing []string, keyFile, certFile string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.warn.Fprintf(n.w, "%s server not running, missing %s\n", strings.ToUpper(listener), strings.Join(missing, " and "))
	fmt.Fprintf(n.w, "  make sure %s and %s exist\n", keyFile, certFile)
	fmt.Fprintln(n.w, "  to generate a self-signed certificate run:")
	n.dim.Fprintf(n.w, "  openssl req -nodes -new -x509 -keyout %s -out %s\n", keyFile, certFile)
}

// Failed reports a listener that could not start.
func (n *Notifier) Failed(listener string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.fail.Fprintf(n.w, "%s server failed to start: %v\n", strings.ToUpper(listener), err)
	var be *httpserver.BindError
	if errors.As(err, &be) && be.Cause == httpserver.CauseAddrInUse {
		fmt.Fprintf(n.w, "  %s is already in use, check whether another service is running\n", be.Addr)
	}
}

// Closing announces the start of graceful shutdown.
func (n *Notifier) Closing() {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintln(n.w)
	n.warn.Fprintln(n.w, "shutting down server...")
}

// Closed announces that listener has stopped.
func (n *Notifier) Closed(listener string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintf(n.w, "%s server closed\n", strings.ToUpper(listener))
}
