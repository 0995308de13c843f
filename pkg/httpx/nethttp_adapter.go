package httpx

import (
	"io"
	"net/http"
)

// NetHTTPAdapter adapts a HandlerFunc into a standard net/http handler.
func NetHTTPAdapter(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()
		h(&netHTTPResponseWriter{w: w}, &Request{
			Ctx:        r.Context(),
			Method:     r.Method,
			Path:       r.URL.Path,
			Header:     r.Header.Clone(),
			Body:       body,
			RemoteAddr: r.RemoteAddr,
		})
	})
}

type netHTTPResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (r *netHTTPResponseWriter) Header() http.Header { return r.w.Header() }

func (r *netHTTPResponseWriter) WriteHeader(status int) {
	r.status = status
	r.w.WriteHeader(status)
}

func (r *netHTTPResponseWriter) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.WriteHeader(http.StatusOK)
	}
	return r.w.Write(b)
}
