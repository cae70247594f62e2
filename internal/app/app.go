package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/catalog"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/pricing"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type closer interface {
	Close()
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	logLevel   *slog.LevelVar
	storage    port.KVStorage
	events     *kafka.CartEventsProducer
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initEvents()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	app.logLevel = InitLogger(app.cfg.LogLevel)
	app.cfg.WatchLogLevel(app.logLevel)
}

// InitLogger installs the default JSON logger writing to stderr.
func InitLogger(level slog.Level) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
	return lv
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	s, err := OpenStorage(app.ctx, app.cfg)
	if err != nil {
		app.fallDown(op, err)
	}
	app.storage = s
}

func (app *App) initEvents() {
	const op = "App.initEvents"

	if !app.cfg.EventsEnabled() {
		slog.Info("cart events are disabled", "op", op)
		return
	}

	ctx := app.ctx
	broker := app.cfg.Broker

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	cartEventsSerde, err := schema.NewSerdeCartEventV1(
		ctx,
		schema.SubjectOpt(broker.Topics.CartEvents+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	sec, err := brokerSecurity(app.cfg)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(ctx, broker.SeedBrokers, broker.Topics.CartEvents, sec),
		kafka.ProducerEncoderOpt(cartEventsSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.events = &producer
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	seed, err := catalog.LoadSeed(app.cfg.CatalogFile)
	if err != nil {
		app.fallDown(op, err)
	}

	products, err := catalog.NewRepository(seed)
	if err != nil {
		app.fallDown(op, err)
	}

	var events port.CartEventsProducer
	if app.events != nil {
		events = app.events
	}

	app.service = service.New(app.storage, products, events, service.Config{
		Namespace:      app.cfg.Cart.Namespace,
		Policy:         pricing.New(app.cfg.Pricing),
		WriteTimeout:   app.cfg.Storage.WriteTimeout,
		MaxSessions:    app.cfg.Cart.MaxSessions,
		SessionIdleTTL: app.cfg.Cart.SessionIdleTTL,
	})
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterCart(mux, app.service)
	httphandler.RegisterProducts(mux, app.service)

	handler := httphandler.Session(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewHTTPServer(
		addr, handler, httphandler.RequestTimeoutOpt(app.cfg.HTTPTimeout),
	)
}

// Run starts the background storage, if any, and the http server.
//
// Blocks until the background storage is ready.
func (app *App) Run(stopFn context.CancelFunc) {
	if bg, ok := app.storage.(port.BackgroundKVStorage); ok {
		var wg sync.WaitGroup
		wg.Add(1)
		go bg.Run(app.ctx, stopFn, &wg)
		wg.Wait()
	}

	go app.service.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running", "addr", app.cfg.HTTPServerAddr)
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.events != nil {
		app.events.Close()
	}
	if c, ok := app.storage.(closer); ok {
		c.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
