package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Ztiany/av-device-server/internal/infra/certpair"
	"github.com/Ztiany/av-device-server/internal/server/config"
	"github.com/Ztiany/av-device-server/internal/server/fileserver"
	"github.com/Ztiany/av-device-server/internal/server/httpserver"
	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
	"github.com/Ztiany/av-device-server/internal/telemetry/metric"
)

// Listener names.
const (
	ListenerHTTP  = "http"
	ListenerHTTPS = "https"
	ListenerAdmin = "admin"
)

// State is the lifecycle state of one listener track.
type State string

const (
	StateInit    State = "INIT"
	StateRunning State = "RUNNING"
	StateFailed  State = "FAILED"
	StateSkipped State = "SKIPPED"
	StateClosed  State = "CLOSED"
)

// ErrNoListeners is returned by Start when neither public listener runs.
// The command exits 1 on it rather than idling with nothing bound; a single
// failed track on its own never stops the process.
var ErrNoListeners = errors.New("bootstrap: no listener is running")

// Report is the outcome of one listener track.
type Report struct {
	Listener string
	// Addr is the bound address when RUNNING, the configured one otherwise.
	Addr  string
	State State
	Err   error
}

// Options holds optional collaborators for New.
type Options struct {
	Logger   logger.Logger
	Notifier *Notifier
	Metrics  *metric.Registry
}

// Bootstrap owns the listeners built from a ServerConfig.
type Bootstrap struct {
	cfg     *config.ServerConfig
	log     logger.Logger
	notify  *Notifier
	metrics *metric.Registry
	files   http.Handler

	mu      sync.Mutex
	reports map[string]*Report
	servers []*httpserver.Server
	serving sync.WaitGroup
}

// New prepares the listeners for cfg. The root directory is opened here so
// a bad root fails before anything binds.
func New(cfg *config.ServerConfig, opts Options) (*Bootstrap, error) {
	b := &Bootstrap{
		cfg:     cfg,
		log:     opts.Logger,
		notify:  opts.Notifier,
		metrics: opts.Metrics,
		reports: make(map[string]*Report),
	}
	if b.log == nil {
		b.log = logger.Default()
	}
	if b.notify == nil {
		b.notify = NewNotifier(io.Discard, true)
	}
	if b.metrics == nil {
		b.metrics = metric.NewRegistry()
	}

	files, err := fileserver.New(cfg.Server.Root,
		fileserver.WithHidden(cfg.Listing.Hidden),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	b.files = files
	return b, nil
}

// Start runs every track and returns their reports in the order http,
// https, admin. It returns ErrNoListeners if neither public track is
// RUNNING; listeners that did start keep running until Shutdown.
func (b *Bootstrap) Start() ([]Report, error) {
	reports := []Report{
		b.startPlain(),
		b.startEncrypted(),
	}
	if b.cfg.Metrics.Addr != "" {
		reports = append(reports, b.startAdmin())
	}

	if reports[0].State != StateRunning && reports[1].State != StateRunning {
		return reports, ErrNoListeners
	}
	return reports, nil
}

// Reports returns the current state of every track started so far.
func (b *Bootstrap) Reports() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Report, 0, len(b.reports))
	for _, name := range []string{ListenerHTTP, ListenerHTTPS, ListenerAdmin} {
		if r, ok := b.reports[name]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// Running reports whether any listener is accepting connections.
func (b *Bootstrap) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.reports {
		if r.State == StateRunning {
			return true
		}
	}
	return false
}

func (b *Bootstrap) startPlain() Report {
	srv := httpserver.New(ListenerHTTP, b.cfg.Server.HTTP.Addr, b.router(ListenerHTTP),
		httpserver.WithErrorLog(logger.Slog(b.log)),
	)
	return b.launch(srv, "http")
}

func (b *Bootstrap) startEncrypted() Report {
	addr := b.cfg.Server.HTTPS.Addr
	pair := certpair.Pair{KeyFile: b.cfg.TLS.Key, CertFile: b.cfg.TLS.Cert}

	if st := pair.Probe(); !st.Complete() {
		b.log.Info("encrypted listener skipped", "missing", st.Missing)
		b.notify.Skipped(ListenerHTTPS, st.Missing, pair.KeyFile, pair.CertFile)
		b.metrics.SetListenerUp(ListenerHTTPS, false)
		return b.record(Report{Listener: ListenerHTTPS, Addr: addr, State: StateSkipped})
	}

	cert, err := pair.Load()
	if err != nil {
		return b.fail(Report{Listener: ListenerHTTPS, Addr: addr}, err)
	}

	srv := httpserver.New(ListenerHTTPS, addr, b.router(ListenerHTTPS),
		httpserver.WithTLSConfig(certpair.ServerTLSConfig(cert)),
		httpserver.WithErrorLog(logger.Slog(b.log)),
	)
	return b.launch(srv, "https")
}

func (b *Bootstrap) startAdmin() Report {
	srv := httpserver.New(ListenerAdmin, b.cfg.Metrics.Addr,
		httpserver.NewAdminRouter(b.metrics, b.log),
		httpserver.WithErrorLog(logger.Slog(b.log)),
	)
	return b.launch(srv, "http")
}

func (b *Bootstrap) router(listener string) http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Listener:  listener,
		Files:     b.files,
		Logger:    b.log,
		Metrics:   b.metrics,
		RateLimit: b.cfg.Server.RateLimit,
	})
}

// launch binds srv and, on success, serves it in the background.
func (b *Bootstrap) launch(srv *httpserver.Server, scheme string) Report {
	r := Report{Listener: srv.Name(), Addr: b.configuredAddr(srv.Name())}

	if err := srv.Listen(); err != nil {
		return b.fail(r, err)
	}

	r.Addr = srv.Addr().String()
	r.State = StateRunning

	b.mu.Lock()
	b.servers = append(b.servers, srv)
	b.mu.Unlock()
	b.metrics.SetListenerUp(srv.Name(), true)

	b.serving.Add(1)
	go func() {
		defer b.serving.Done()
		if err := srv.Serve(); err != nil {
			b.log.Error("listener stopped", "listener", srv.Name(), "error", err)
			b.metrics.SetListenerUp(srv.Name(), false)
			b.setState(srv.Name(), StateFailed, err)
		}
	}()

	b.log.Info("listener running", "listener", srv.Name(), "addr", r.Addr, "tls", srv.TLS())
	b.notify.Running(srv.Name(), scheme, port(srv.Addr()))
	return b.record(r)
}

func (b *Bootstrap) fail(r Report, err error) Report {
	r.State = StateFailed
	r.Err = err
	b.log.Error("listener failed", "listener", r.Listener, "addr", r.Addr, "error", err)
	b.notify.Failed(r.Listener, err)
	b.metrics.SetListenerUp(r.Listener, false)
	return b.record(r)
}

func (b *Bootstrap) record(r Report) Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := r
	b.reports[r.Listener] = &stored
	return r
}

func (b *Bootstrap) setState(listener string, state State, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.reports[listener]; ok {
		r.State = state
		r.Err = err
	}
}

func (b *Bootstrap) configuredAddr(listener string) string {
	switch listener {
	case ListenerHTTPS:
		return b.cfg.Server.HTTPS.Addr
	case ListenerAdmin:
		return b.cfg.Metrics.Addr
	default:
		return b.cfg.Server.HTTP.Addr
	}
}

// Shutdown gracefully stops every running listener in parallel. In-flight
// requests may finish until ctx is done.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	servers := b.servers
	b.servers = nil
	b.mu.Unlock()

	if len(servers) == 0 {
		return nil
	}
	b.notify.Closing()

	var g errgroup.Group
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown %s listener: %w", srv.Name(), err)
			}
			b.metrics.SetListenerUp(srv.Name(), false)
			b.setState(srv.Name(), StateClosed, nil)
			b.log.Info("listener closed", "listener", srv.Name())
			b.notify.Closed(srv.Name())
			return nil
		})
	}
	err := g.Wait()
	b.serving.Wait()
	return err
}

func port(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
