package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

const dutyMetrics = "metrics"

// MetricsServer serves /metrics and /healthz.
type MetricsServer struct {
	addr     string
	registry *prom.Registry
	daemon   *Daemon
}

// NewMetricsServer registers the runtime collectors on reg.
func NewMetricsServer(addr string, reg *prom.Registry, d *Daemon) *MetricsServer {
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return &MetricsServer{addr: addr, registry: reg, daemon: d}
}

func (m *MetricsServer) Name() string { return dutyMetrics }

func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(m.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if m.daemon.State().Running() {
			_, _ = w.Write([]byte("running\n"))
			return
		}
		_, _ = w.Write([]byte("stopped\n"))
	})
	return mux
}

func (m *MetricsServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to bind metrics listener").
			Fatal().
			WithContext("addr", m.addr).
			Build()
	}
	return m.serve(ctx, ln)
}

func (m *MetricsServer) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.InfoContext(ctx, "Metrics server listening", slog.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "metrics server stopped").Fatal().Build()
	}
}
