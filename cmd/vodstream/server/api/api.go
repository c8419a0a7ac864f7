package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sincaw/vodstream/cmd/vodstream/server/common"
	"github.com/sincaw/vodstream/pkg"
	"github.com/sincaw/vodstream/pkg/rangeserve"
)

const (
	uriRoot      = "/"
	uriVideo     = "/video"
	uriResource  = "/resource"
	uriResources = "/api/resources"
	uriScan      = "/api/scan"
	uriMetrics   = "/metrics"

	defaultPageLimit = 20
	maxPageLimit     = 500
)

// Trigger starts a library scan in background
type Trigger interface {
	Trigger()
}

type Api struct {
	ctx       context.Context
	db        pkg.DB
	scanner   Trigger
	config    *common.Config
	responder *rangeserve.Responder
	metrics   *metrics
	gatherer  prometheus.Gatherer
}

type Option func(*Api)

// WithCatalog enables resource routes backed by db
func WithCatalog(db pkg.DB) Option {
	return func(a *Api) {
		a.db = db
	}
}

// WithScanner enables rescan endpoint
func WithScanner(s Trigger) Option {
	return func(a *Api) {
		a.scanner = s
	}
}

// WithRegistry registers metrics to reg instead of a private registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *Api) {
		a.gatherer = reg
	}
}

// New Api instance, serving stops when ctx is done
func New(ctx context.Context, config *common.Config, opts ...Option) (*Api, error) {
	responder, err := rangeserve.NewResponder(config.ChunkPolicy())
	if err != nil {
		return nil, err
	}

	a := &Api{
		ctx:       ctx,
		config:    config,
		responder: responder,
	}
	for _, opt := range opts {
		opt(a)
	}

	reg, ok := a.gatherer.(*prometheus.Registry)
	if !ok || reg == nil {
		reg = prometheus.NewRegistry()
		a.gatherer = reg
	}
	a.metrics, err = newMetrics(reg)
	if err != nil {
		return nil, err
	}
	responder.OnTransition = a.metrics.onTransition
	return a, nil
}

// Router builds http routes
func (a *Api) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.requestMiddleware)

	r.HandleFunc(uriRoot, a.GreetingHandler).Methods("GET")
	r.HandleFunc(uriVideo, a.VideoHandler).Methods("GET", "HEAD").Name("video")
	if a.db != nil {
		r.HandleFunc(uriResource+"/{id:.+}", a.ResourceHandler).Methods("GET", "HEAD").Name("resource")
		r.HandleFunc(uriResources, a.ListHandler).Methods("GET")
	}
	if a.scanner != nil {
		r.HandleFunc(uriScan, a.ScanHandler).Methods("POST")
	}
	r.Handle(uriMetrics, promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	return r
}

// Serve http server until ctx is done
func (a *Api) Serve() error {
	addr := a.config.Server.Addr
	srv := &http.Server{
		Handler:      a.Router(),
		Addr:         addr,
		WriteTimeout: a.config.Server.WriteTimeout,
		ReadTimeout:  a.config.Server.ReadTimeout,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-a.ctx.Done()
		logger.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("shutdown server fail %v", err)
		}
	}()

	logger.Infof("serving on http://%s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		// in flight transfers get shutdownTimeout to finish
		<-drained
		return nil
	}
	return err
}

func (a *Api) shutdownTimeout() time.Duration {
	if t := a.config.Server.ShutdownTimeout; t > 0 {
		return t
	}
	return 10 * time.Second
}
