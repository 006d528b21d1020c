package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ledsignal/ledsignal-go/cmd/ledsignal/interactive"
	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/config"
	"github.com/ledsignal/ledsignal-go/pkg/discovery"
	"github.com/ledsignal/ledsignal-go/pkg/history"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/persistence"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
	"github.com/ledsignal/ledsignal-go/pkg/service"
	"github.com/ledsignal/ledsignal-go/pkg/watch"
)

// shutdownTimeout bounds the HTTP server shutdown.
const shutdownTimeout = 5 * time.Second

// switchWriter forwards to a writer that can be replaced while loggers
// hold it.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// selector builds the port selector. Without a configured port the port
// used before a restart is preferred while it is still present.
func selector(cfg *config.Config, state *persistence.RuntimeState) serial.PortSelector {
	sel := serial.NewSelector(cfg.Serial.Port, cfg.Serial.VID, cfg.Serial.PID)
	if cfg.Serial.Port == "" && state != nil && state.LastPort != "" {
		return serial.PreferPort{Name: state.LastPort, Fallback: sel}
	}
	return sel
}

// eventLogger combines the CBOR file and debug logging. The returned close
// function releases the file.
func eventLogger(cfg *config.Config, logger *slog.Logger) (ledlog.Logger, func(), error) {
	adapter := ledlog.NewSlogAdapter(logger)
	if cfg.Log.EventFile == "" {
		return adapter, func() {}, nil
	}
	file, err := ledlog.NewFileLogger(cfg.Log.EventFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return ledlog.NewMultiLogger(file, adapter), func() { file.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config, flags *Flags) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logOut := &switchWriter{w: os.Stderr}
	level := cfg.SlogLevel()
	logger := newLogger(logOut, level)
	slog.SetDefault(logger)

	var stateStore *persistence.StateStore
	var saved *persistence.RuntimeState
	if cfg.State.Path != "" {
		stateStore = persistence.NewStateStore(cfg.State.Path)
		st, err := stateStore.Load()
		if err != nil {
			logger.Warn("ignoring unreadable runtime state", "path", cfg.State.Path, "error", err)
		}
		saved = st
	}

	link, err := serial.NewLink(serial.Config{
		Selector:    selector(cfg, saved),
		BaudRate:    cfg.Serial.BaudRate,
		ReopenDelay: cfg.Serial.ReopenDelay,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewGenAIAnalyzer(ctx, analysis.GenAIConfig{
		APIKey:      cfg.Analysis.APIKey,
		Model:       cfg.Analysis.Model,
		Temperature: cfg.Analysis.Temperature,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("analyzer: %w (set %s or analysis.api_key)", err, cfg.Analysis.APIKeyEnv)
	}

	events, closeEvents, err := eventLogger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	svcCfg := service.Config{
		Link:             link,
		Analyzer:         analyzer,
		SettleDelay:      cfg.Session.SettleDelay,
		PostWriteDelay:   cfg.Session.PostWriteDelay,
		OperationTimeout: cfg.Session.OperationTimeout,
		Attempts:         cfg.Reconcile.Attempts,
		Backoff:          cfg.Reconcile.Backoff,
		AnalysisTimeout:  cfg.Analysis.Timeout,
		HistoryLimit:     cfg.History.Limit,
		State:            stateStore,
		Instance:         cfg.Discovery.Instance,
		Logger:           logger,
		EventLogger:      events,
	}
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		svcCfg.History = store
	}
	if cfg.Discovery.Enabled {
		svcCfg.Advertiser = discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	}

	svc, err := service.New(svcCfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	var console *interactive.Console
	if flags.Interactive {
		console, err = interactive.New(svc)
		if err != nil {
			return err
		}
		// Route log output through readline so it does not clobber the prompt.
		logOut.set(console.Stdout())
		defer logOut.set(os.Stderr)
	}

	logger.Info("ledsignal starting", "version", version, "log_level", level)

	if flags.Connect {
		if err := svc.Connect(ctx); err != nil {
			logger.Warn("device not connected at startup", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		ln, err := net.Listen("tcp", cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
		}
		srv := &http.Server{
			Handler:           service.NewAPI(svc, version),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("control API listening", "addr", ln.Addr().String())

		if cfg.Discovery.Enabled {
			port := ln.Addr().(*net.TCPAddr).Port
			if err := svc.Advertise(gctx, port); err != nil {
				logger.Warn("mDNS advertisement failed", "error", err)
			}
		}

		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	if flags.Watch != "" {
		w, err := watch.New(watch.Config{
			Path:    flags.Watch,
			Initial: true,
			Logger:  logger,
			Handler: func(ctx context.Context, path, source string) {
				logger.Info("analyzing changed file", "path", path)
				if _, err := svc.Analyze(ctx, source); err != nil {
					logger.Warn("analysis of watched file failed", "path", path, "error", err)
				}
			},
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	if console != nil {
		g.Go(func() error {
			console.Run(gctx, cancel)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return nil
	})

	return g.Wait()
}
