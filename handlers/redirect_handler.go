package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scratch-shortener/services"
	"scratch-shortener/wire"
)

const errRetrievingURL = "Error retrieving URL"

// RedirectURL handles the redirection from a short URL to its original URL.
// Unknown codes are not an error: the visitor is sent to the usage page with a 303.
func (r *Router) RedirectURL(ctx context.Context, req *wire.Request) *wire.Response {
	shortURL := strings.TrimPrefix(req.Path, "/")

	urlData, err := r.service.Resolve(ctx, shortURL)
	if err != nil {
		if errors.Is(err, services.ErrShortURLNotFound) {
			r.logger.Debug("Short URL not found", zap.String("short_url", shortURL))
			return wire.Redirect(http.StatusSeeOther, "/")
		}
		return r.handleError(err, errRetrievingURL)
	}

	r.logger.Info("Redirecting",
		zap.String("short_url", shortURL),
		zap.String("original_url", urlData.OriginalURL),
		zap.String("user_agent", req.Header.Get("User-Agent")))
	return wire.Redirect(http.StatusFound, urlData.OriginalURL)
}
