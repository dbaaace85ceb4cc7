package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"scratch-shortener/services"
	"scratch-shortener/types"
	"scratch-shortener/wire"
)

const (
	invalidRequestBody  = "Invalid request body"
	invalidURLProvided  = "Invalid URL provided"
	errorCreatingURL    = "Error creating short URL"
	errorTimeout        = "Request timed out"
	errUnauthorized     = "Unauthorized"
	errMethodNotAllowed = "Method not allowed"
	errShuttingDown     = "Server is shutting down"
)

// handleError maps service errors to error responses.
func (r *Router) handleError(err error, fallback string) *wire.Response {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse(http.StatusRequestTimeout, errorTimeout)
	case errors.Is(err, context.Canceled):
		return errorResponse(http.StatusServiceUnavailable, errShuttingDown)
	case errors.Is(err, services.ErrEmptyURL):
		return errorResponse(http.StatusBadRequest, invalidURLProvided)
	default:
		r.logger.Error("Unexpected error", zap.Error(err))
		return errorResponse(http.StatusInternalServerError, fallback)
	}
}

// CreateShortURL handles POST requests. The request must carry valid Basic
// credentials and a {"url": "..."} body; the response holds the short URL.
// Repeating the request for the same URL returns the same code.
func (r *Router) CreateShortURL(ctx context.Context, req *wire.Request) *wire.Response {
	if !r.gate.Authorize(req.Header.Get("Authorization")) {
		r.logger.Warn("Unauthorized shorten request", zap.String("path", req.Path))
		resp := errorResponse(http.StatusUnauthorized, errUnauthorized)
		resp.Header.Set("WWW-Authenticate", r.gate.Challenge())
		return resp
	}

	var input types.URLRequest
	if err := json.Unmarshal(req.Body, &input); err != nil {
		r.logger.Info("Error decoding request body", zap.Error(err))
		return errorResponse(http.StatusBadRequest, invalidRequestBody)
	}

	if err := r.validate.Struct(input); err != nil {
		r.logger.Info("Invalid input", zap.Error(err))
		return errorResponse(http.StatusBadRequest, invalidURLProvided)
	}

	urlData, err := r.service.Shorten(ctx, input.URL)
	if err != nil {
		return r.handleError(err, errorCreatingURL)
	}

	return wire.JSON(http.StatusOK, types.URLResponse{
		ShortURL: r.config.BaseURL + "/" + urlData.ShortURL,
		Code:     urlData.ShortURL,
	})
}
