package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/fundsheet/internal/core"
)

// sourceHTTP tags operations started by the HTTP API in core logs.
const sourceHTTP = "http"

// withRequestMetadata tags ctx with the HTTP source and, when the RealIP
// middleware did not run, the raw peer address.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithSource(ctx, sourceHTTP)
	if core.ClientIPFromContext(ctx) == "" {
		ctx = core.ContextWithClientIP(ctx, r.RemoteAddr)
	}
	return ctx
}
