package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout    = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 30 * time.Second
)

// timeoutBody is written by [http.TimeoutHandler] once a request
// runs out of time, shaped as [ErrorResponse].
const timeoutBody = `{"error":"request timeout"}`

type ServerOpt func(*http.Server, *time.Duration)

// RequestTimeoutOpt bounds the time a handler may spend on one request.
func RequestTimeoutOpt(d time.Duration) ServerOpt {
	return func(_ *http.Server, timeout *time.Duration) {
		if d > 0 {
			*timeout = d
		}
	}
}

// IdleTimeoutOpt sets how long keep-alive connections are kept.
func IdleTimeoutOpt(d time.Duration) ServerOpt {
	return func(s *http.Server, _ *time.Duration) {
		if d > 0 {
			s.IdleTimeout = d
		}
	}
}

type HTTPServer struct {
	httpServer *http.Server
}

func NewHTTPServer(addr string, handler http.Handler, opts ...ServerOpt) HTTPServer {
	s := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	requestTimeout := defaultRequestTimeout
	for _, opt := range opts {
		opt(s, &requestTimeout)
	}
	s.Handler = jsonContentType(
		http.TimeoutHandler(handler, requestTimeout, timeoutBody),
	)
	return HTTPServer{s}
}

// jsonContentType presets the content type of every response, the
// timeout body included.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op, "addr", s.httpServer.Addr)

	defer stopFn()
	log.Info("http server is listening")
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected servers shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
