package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"scratch-shortener/wire"
)

// Middleware wraps a HandlerFunc with additional behaviour.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain wraps h so that the first middleware is the outermost.
func Chain(h HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying id for request logging.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithLogging logs every request with its status and duration.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *wire.Request) *wire.Response {
			start := time.Now()
			resp := next(ctx, req)

			logger.Info("Handled request",
				zap.String("request_id", RequestIDFromContext(ctx)),
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("status", resp.StatusCode),
				zap.Int("size", len(resp.Body)),
				zap.Duration("duration", time.Since(start)))
			return resp
		}
	}
}

// WithRecovery turns a panic in next into a 500 response.
func WithRecovery(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *wire.Request) (resp *wire.Response) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Recovered from panic while handling request",
						zap.String("request_id", RequestIDFromContext(ctx)),
						zap.String("method", req.Method),
						zap.String("path", req.Path),
						zap.String("panic", fmt.Sprint(rec)),
						zap.Stack("stack"))
					resp = errorResponse(http.StatusInternalServerError, "Internal server error")
				}
			}()
			return next(ctx, req)
		}
	}
}

// WithSecurityHeaders adds headers that stop browsers from sniffing response content.
func WithSecurityHeaders() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *wire.Request) *wire.Response {
			resp := next(ctx, req)
			if resp.Header == nil {
				resp.Header = make(http.Header)
			}
			resp.Header.Set("X-Content-Type-Options", "nosniff")
			return resp
		}
	}
}
