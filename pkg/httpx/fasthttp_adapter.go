package httpx

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
)

// FastHTTPAdapter adapts a HandlerFunc into a fasthttp.RequestHandler.
func FastHTTPAdapter(h HandlerFunc) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		cctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hdr := make(http.Header)
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			hdr.Add(string(k), string(v))
		})

		// PostBody is owned by fasthttp; copy so the handler can retain it.
		body := append([]byte(nil), ctx.PostBody()...)

		h(&fastHTTPResponseWriter{ctx: ctx, header: make(http.Header)}, &Request{
			Ctx:        cctx,
			Method:     string(ctx.Method()),
			Path:       string(ctx.Path()),
			Header:     hdr,
			Body:       body,
			RemoteAddr: ctx.RemoteAddr().String(),
		})
	}
}

type fastHTTPResponseWriter struct {
	ctx    *fasthttp.RequestCtx
	header http.Header
	status int
}

func (f *fastHTTPResponseWriter) Header() http.Header { return f.header }

func (f *fastHTTPResponseWriter) WriteHeader(status int) {
	f.status = status
	for k, vals := range f.header {
		for _, v := range vals {
			f.ctx.Response.Header.Set(k, v)
		}
	}
	f.ctx.SetStatusCode(status)
}

func (f *fastHTTPResponseWriter) Write(b []byte) (int, error) {
	if f.status == 0 {
		f.WriteHeader(http.StatusOK)
	}
	return f.ctx.Write(b)
}
