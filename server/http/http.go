package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/w-h-a/sourcerer/server"
)

type httpServer struct {
	options server.Options
	server  *http.Server
}

func (s *httpServer) Options() server.Options {
	return s.options
}

func (s *httpServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *httpServer) String() string {
	return "http"
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	handler := options.Handler
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	return &httpServer{
		options: options,
		server: &http.Server{
			Addr:    options.Address,
			Handler: handler,
		},
	}
}
