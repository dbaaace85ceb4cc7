// Package handlers turns parsed requests into responses for the URL shortener service.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"scratch-shortener/config"
	"scratch-shortener/services"
	"scratch-shortener/wire"
)

// allowedMethods is sent in the Allow header of 405 responses.
const allowedMethods = "GET, HEAD, POST"

// Handler answers one parsed request.
type Handler interface {
	Handle(ctx context.Context, req *wire.Request) *wire.Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *wire.Request) *wire.Response

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	return f(ctx, req)
}

// Authorizer checks the Authorization header of shorten requests.
type Authorizer interface {
	Authorize(header string) bool
	Challenge() string
}

// Router dispatches requests by method: POST shortens, GET and HEAD redirect or
// show usage, everything else is refused with 405.
type Router struct {
	service  services.URLService
	gate     Authorizer
	validate *validator.Validate
	config   *config.Config
	logger   *zap.Logger
	chain    HandlerFunc
}

// NewRouter creates a Router wrapped in the logging, recovery and security-header middleware.
func NewRouter(service services.URLService, gate Authorizer, cfg *config.Config, logger *zap.Logger) (*Router, error) {
	if service == nil {
		return nil, errors.New("service cannot be nil")
	}
	if gate == nil {
		return nil, errors.New("authorizer cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &Router{
		service:  service,
		gate:     gate,
		validate: validator.New(),
		config:   cfg,
		logger:   logger,
	}
	r.chain = Chain(r.dispatch, WithLogging(logger), WithSecurityHeaders(), WithRecovery(logger))
	return r, nil
}

// Handle implements Handler.
func (r *Router) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	return r.chain(ctx, req)
}

func (r *Router) dispatch(ctx context.Context, req *wire.Request) *wire.Response {
	switch req.Method {
	case http.MethodPost:
		return r.CreateShortURL(ctx, req)
	case http.MethodGet:
		return r.Get(ctx, req)
	case http.MethodHead:
		resp := r.Get(ctx, req)
		resp.OmitBody = true
		return resp
	default:
		resp := errorResponse(http.StatusMethodNotAllowed, errMethodNotAllowed)
		resp.Header.Set("Allow", allowedMethods)
		return resp
	}
}

// Get serves the usage page for "/" and redirects every other path.
func (r *Router) Get(ctx context.Context, req *wire.Request) *wire.Response {
	if req.Path == "/" {
		return r.Usage(ctx, req)
	}
	return r.RedirectURL(ctx, req)
}

func errorResponse(status int, message string) *wire.Response {
	return wire.JSON(status, map[string]string{"error": message})
}
