package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// EchoService owns the HTTP listener
type EchoService struct {
	echo *echo.Echo
	addr string
}

// NewEchoService builds the echo instance with request ids, access logging and panic recovery
func NewEchoService(addr string) *EchoService {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = false
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${id} ${remote_ip} ${status} ${method} ${path} ${error} ${latency_human} ${bytes_in} ${bytes_out}\n",
	}))
	e.Use(middleware.Recover())

	return &EchoService{
		echo: e,
		addr: addr,
	}
}

// Register lets a component attach its routes
func (s *EchoService) Register(c func(e *echo.Echo)) {
	c(s.echo)
}

// Handler exposes the router, mostly for tests
func (s *EchoService) Handler() http.Handler {
	return s.echo
}

// Start blocks serving until Shutdown is called
func (s *EchoService) Start() error {
	err := s.echo.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *EchoService) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("failed to shutdown echo server: %w", err)
	}

	return nil
}
