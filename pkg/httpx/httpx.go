// Package httpx decouples handlers from the concrete HTTP transport. The
// server can front handlers with net/http or fasthttp; handlers only see the
// unified Request/ResponseWriter pair.
package httpx

import (
	"context"
	"net/http"
)

// Request is the unified request representation passed to handlers. Body is
// fully read by the adapter; wall requests are small (≤ a few KB), so no
// streaming is needed.
type Request struct {
	Ctx        context.Context
	Method     string
	Path       string
	Header     http.Header
	Body       []byte
	RemoteAddr string
}

// ResponseWriter is the subset of http.ResponseWriter semantics adapters
// must provide.
type ResponseWriter interface {
	Header() http.Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// HandlerFunc is the application handler signature shared by all adapters.
type HandlerFunc func(w ResponseWriter, r *Request)
