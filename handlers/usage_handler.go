package handlers

import (
	"context"
	"net/http"

	"scratch-shortener/wire"
)

const usageText = `scratch-shortener

Shorten a URL (HTTP Basic credentials required):

    curl -u user:pass -d '{"url": "https://example.com/a/long/path"}' http://HOST/

The response is JSON holding the short path, for example {"short_url": "/rUyTuGH", "code": "rUyTuGH"}.

Visit the short path to be redirected to the original URL:

    curl -i http://HOST/rUyTuGH

Unknown codes redirect back to this page.
`

// Usage serves the static usage instructions.
func (r *Router) Usage(_ context.Context, _ *wire.Request) *wire.Response {
	return wire.Text(http.StatusOK, usageText)
}
