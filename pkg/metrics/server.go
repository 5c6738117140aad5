package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// Route adds an extra handler next to /metrics.
type Route struct {
	Path    string
	Handler http.Handler
}

// StartServer binds the port, then serves /metrics and the extra routes in
// the background. A port that cannot be bound is ErrUnavailable. Call the
// returned func when the scheduler stops.
func (m *Metrics) StartServer(port int, routes ...Route) (shutdown func(context.Context) error, err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for _, r := range routes {
		mux.Handle(r.Path, r.Handler)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnavailable, "metrics listener: %v", err)
	}
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	return server.Shutdown, nil
}
