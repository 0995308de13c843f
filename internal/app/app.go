// Package app wires the wall's components together and owns their
// lifecycle: the store, the publisher, the notifier, the snapshot builder
// and the HTTP front door.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"

	"messagewall/internal/rebuild"
	"messagewall/pkg/banner"
	"messagewall/pkg/config"
	"messagewall/pkg/logger"
	"messagewall/pkg/notify"
	"messagewall/pkg/publish"
	"messagewall/pkg/snapshot"
	"messagewall/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	store     *store.Store
	publisher *publish.FS
	notifier  notify.Notifier
	bus       *notify.Bus
	kafka     *notify.Kafka
	consumer  *notify.KafkaConsumer
	builder   *snapshot.Builder

	srv  *http.Server
	fsrv *fasthttp.Server
}

// New validates the effective config and initializes every collaborator.
// It does not start the notifier loop, the rebuilder or the HTTP server;
// call Run for that.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	st, err := store.Open(eff.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", eff.DBPath, err)
	}

	pub, err := publish.NewFS(eff.Config.Publish.Dir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &App{eff: eff, version: version, store: st, publisher: pub}
	a.builder = snapshot.New(st, pub, eff.Config.Publish.StateKey)

	switch eff.Config.Notify.Backend {
	case "inproc":
		a.bus = notify.NewBus(eff.Config.Notify.Buffer)
		a.notifier = a.bus
	case "kafka":
		kc := eff.Config.Notify.Kafka
		a.kafka = notify.NewKafka(kc.Brokers, kc.Topic)
		a.notifier = a.kafka
		a.consumer = notify.NewKafkaConsumer(kc.Brokers, kc.Topic, kc.Group)
	case "noop":
		a.notifier = notify.Noop{}
	}
	return a, nil
}

// Run starts the notifier loop, the cron rebuilder and the HTTP server and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	trigger := func(tctx context.Context, ev notify.PostedEvent) error {
		logger.Debug("rebuild_triggered", "messageId", ev.MessageID)
		_, err := a.builder.Rebuild(tctx)
		return err
	}
	if a.bus != nil {
		go a.bus.Run(ctx, trigger)
	}
	if a.consumer != nil {
		go a.consumer.Run(ctx, trigger)
	}

	if a.eff.Config.Rebuild.Enabled {
		cancel, err := rebuild.Start(ctx, a.builder, a.eff.Config.Rebuild.Cron)
		if err != nil {
			return err
		}
		defer cancel()
	}

	banner.Print(a.eff, a.version)

	errCh := a.startHTTP(ctx)
	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases held resources. Safe after a failed Run.
func (a *App) Close() {
	if a.kafka != nil {
		_ = a.kafka.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
