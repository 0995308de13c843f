package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"messagewall/pkg/httpx"
	"messagewall/pkg/ingest"
	"messagewall/pkg/publish"
	"messagewall/pkg/ratelimit"
	"messagewall/pkg/telemetry"
)

// buildHandler assembles the full route table for the front door.
func (a *App) buildHandler() http.Handler {
	r := mux.NewRouter()

	// ingest handler does its own method dispatch (OPTIONS/POST/405), so the
	// route carries no method restriction
	post := httpx.NetHTTPAdapter(ingest.New(a.store, a.notifier).Handle)
	limiter := ratelimit.NewPool(a.eff.Config.RateLimit.RPS, a.eff.Config.RateLimit.Burst)
	r.Handle("/v1/messages", limiter.Middleware(post))

	stateKey := a.eff.Config.Publish.StateKey
	r.HandleFunc("/"+stateKey, publish.Handler(a.publisher, stateKey))

	r.HandleFunc("/healthz", healthzHandler)
	r.HandleFunc("/readyz", a.readyzHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	return telemetry.Middleware(r)
}

// readyzHandler reports readiness of the store-backed write path.
func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !a.store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// startHTTP starts the configured transport in a goroutine and returns a
// channel carrying any fatal server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	errCh := make(chan error, 1)
	if a.eff.Config.Server.Transport == "fasthttp" {
		a.fsrv = &fasthttp.Server{Handler: a.buildFastHandler()}
		go func() {
			if err := a.fsrv.ListenAndServe(a.eff.Addr); err != nil {
				errCh <- err
			}
		}()
		return errCh
	}
	a.srv = &http.Server{Addr: a.eff.Addr, Handler: a.buildHandler()}
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// buildFastHandler fronts the ingest route with the fasthttp adapter
// directly and falls back to the net/http route table for everything else.
func (a *App) buildFastHandler() fasthttp.RequestHandler {
	post := httpx.FastHTTPAdapter(ingest.New(a.store, a.notifier).Handle)
	limiter := ratelimit.NewPool(a.eff.Config.RateLimit.RPS, a.eff.Config.RateLimit.Burst)
	rest := fasthttpadaptor.NewFastHTTPHandler(a.buildHandler())
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/v1/messages" {
			host, _, err := net.SplitHostPort(ctx.RemoteAddr().String())
			if err != nil {
				host = ctx.RemoteAddr().String()
			}
			if !limiter.Allow(host) {
				ctx.Response.Header.Set("Content-Type", "application/json")
				ctx.SetStatusCode(http.StatusTooManyRequests)
				ctx.SetBodyString(`{"error":"Too many requests"}`)
				return
			}
			post(ctx)
			return
		}
		rest(ctx)
	}
}

func (a *App) shutdownHTTP() {
	if a.fsrv != nil {
		_ = a.fsrv.Shutdown()
	}
	if a.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.srv.Shutdown(ctx)
}
