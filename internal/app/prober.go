package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/samvad-bizclient/internal/config"
	"github.com/samvad-hq/samvad-bizclient/internal/logger"
	"github.com/samvad-hq/samvad-bizclient/internal/metrics"
	"github.com/samvad-hq/samvad-bizclient/internal/notify"
	"github.com/samvad-hq/samvad-bizclient/internal/probe"
	"github.com/samvad-hq/samvad-bizclient/internal/storage"
	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
	"github.com/samvad-hq/samvad-bizclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-bizclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-bizclient/pkg/publishers"
)

// Prober represents the business prober runtime. It runs the probe loop over
// the configured endpoints, routes pipeline hooks to the publishers and owns
// the storage and metrics lifecycles.
type Prober struct {
	cfg           *config.Config
	endpointReg   *endpoints.Registry
	fanout        *publishers.Fanout
	probeService  *probe.Service
	probeInterval time.Duration
	recorder      *metrics.Recorder
	log           logger.Logger
	store         storage.Store
}

// NewProber builds a prober runtime from config files.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpointReg, err := endpoints.LoadRegistry(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints registry: %w", err)
	}
	endpointList := endpointReg.All()
	endpointIDs := make([]string, 0, len(endpointList))
	for _, ep := range endpointList {
		endpointIDs = append(endpointIDs, ep.ID)
	}
	log.InfoObj("endpoints registry loaded", "endpoints_meta", map[string]any{
		"count": len(endpointIDs),
		"ids":   endpointIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EventTTL:        cfg.EventTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if cfg.SessionToken != "" {
		if err := store.SetToken(cfg.SessionToken); err != nil {
			store.Close()
			fanout.Close()
			return nil, fmt.Errorf("seed session token: %w", err)
		}
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"event_ttl_seconds":        int(cfg.EventTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	recorder := metrics.NewRecorder(nil)
	notifier := notify.New(fanout, store, store, recorder, log)

	opts := PipelineOptions(cfg, log)
	pipeline := bizresp.New(notifier.Hooks(opts))
	client := httpclient.NewRestyClient(cfg.HTTPTimeout,
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTokenSource(store, cfg.TokenHeader, cfg.TokenPrefix),
		httpclient.WithPipeline(pipeline),
	)

	classifier := probe.Classifier{
		SuccessCode:    opts.SuccessCode,
		IsInvalidToken: bizresp.MatchReturnCodes(opts.InvalidTokenCodes...),
	}

	return &Prober{
		cfg:           cfg,
		endpointReg:   endpointReg,
		fanout:        fanout,
		probeService:  probe.NewService(client, classifier, recorder, log),
		probeInterval: cfg.ProbeInterval,
		recorder:      recorder,
		log:           log,
		store:         store,
	}, nil
}

// PipelineOptions maps configuration onto pipeline options, without hooks.
func PipelineOptions(cfg *config.Config, log logger.Logger) bizresp.Options {
	codes := cfg.InvalidTokenCodes
	if len(codes) == 0 {
		codes = bizresp.DefaultInvalidTokenCodes
	}
	success := cfg.SuccessCode
	if success == "" {
		success = bizresp.ReturnCodeSuccess
	}
	return bizresp.Options{
		DisableFailCheck:  !cfg.FailCheckEnabled,
		DisableNormalize:  !cfg.NormalizeEnabled,
		SuccessCode:       success,
		InvalidTokenCodes: codes,
		Development:       cfg.Development(),
		Logger:            log,
	}
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		log.WarnObj("no publishers enabled; business events are only logged", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.Kinds,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the probe loop until the context is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.probeService == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.close()

	stopMetrics := p.serveMetrics()
	defer stopMetrics()

	eps := p.endpointReg.All()
	p.log.InfoObj("prober loop starting", "prober_state", map[string]any{
		"endpoints_count":  len(eps),
		"publishers_count": p.fanout.Size(),
		"probe_interval":   p.probeInterval.String(),
	})

	if err := p.runOnce(ctx, eps); err != nil {
		p.log.ErrorObj("initial probe failed", "error", err)
	}

	ticker := time.NewTicker(p.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("prober loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx, eps); err != nil {
				p.log.ErrorObj("scheduled probe failed", "error", err)
			}
		}
	}
}

// runOnce performs a single probe pass across all endpoints.
func (p *Prober) runOnce(ctx context.Context, eps []endpoints.Endpoint) error {
	start := time.Now()
	p.log.InfoObj("probe started", "probe_meta", map[string]any{
		"endpoints_count": len(eps),
		"started_at":      start.UTC(),
	})
	if err := p.probeService.Run(ctx, eps); err != nil {
		return err
	}
	p.log.InfoObj("probe completed", "probe_meta", map[string]any{
		"endpoints_count": len(eps),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

// serveMetrics exposes the recorder on the configured address and returns
// a shutdown func.
func (p *Prober) serveMetrics() func() {
	if p.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.recorder.Handler())
	srv := &http.Server{
		Addr:              p.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.ErrorObj("metrics server failed", "error", err)
		}
	}()
	p.log.InfoObj("metrics server listening", "metrics_addr", p.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			p.log.ErrorObj("metrics server shutdown failed", "error", err)
		}
	}
}

// close releases publishers and the storage backend, logging any errors encountered.
func (p *Prober) close() {
	if p == nil {
		return
	}
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err)
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
