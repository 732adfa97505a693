package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hybrid_simulator/internal/config"
	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/metrics"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/report"
	"hybrid_simulator/internal/simulator"
	"hybrid_simulator/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "YAML run configuration (default $SIM_CONFIG, else built-in defaults)")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", ":8080", "listen address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Ctx(ctx)

	if err := log.SetLevelFromString(*logLevel); err != nil {
		fatal(ctx, "invalid log level", err)
	}

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fatal(ctx, "failed to load config", err)
	}

	respCache, closeCache, err := cfg.OpenCache(ctx)
	if err != nil {
		fatal(ctx, "failed to open cache", err)
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Set up WebSocket hub and simulator
	hub := ws.NewHub(m)
	bridge := ws.NewBridge(hub)
	engine := simulator.New(bridge, m)
	handler := ws.NewHandler(ctx, hub, engine, bridge, cfg, remote.NewFetcher(respCache))

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /download/{format}", downloadHandler(engine))

	// Serve frontend static files
	if _, err := os.Stat(*frontendDir); err == nil {
		logger.Info("serving frontend", slog.String("dir", *frontendDir))
		mux.Handle("/", http.FileServer(http.Dir(*frontendDir)))
	}

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", slog.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(ctx, "server failed", err)
	}
	handler.Wait()
}

func fatal(ctx context.Context, msg string, err error) {
	log.Ctx(ctx).Error(msg, slog.Any("error", err))
	os.Exit(1)
}

// resultSource exposes the latest completed run.
type resultSource interface {
	Last() *simulator.Result
}

// downloadHandler serves the latest run as csv, xlsx, pdf or json.
func downloadHandler(src resultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := src.Last()
		if res == nil {
			http.Error(w, "no completed run", http.StatusNotFound)
			return
		}

		format := r.PathValue("format")
		var (
			buf         bytes.Buffer
			contentType string
			err         error
		)
		switch format {
		case "csv":
			contentType = "text/csv"
			err = report.WriteCSV(&buf, res.Records)
		case "json":
			contentType = "application/json"
			err = report.WriteSummaryJSON(&buf, res.Summary)
		case "xlsx":
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			var data []byte
			data, err = report.BuildXLSX(res.Summary, res.Records)
			buf.Write(data)
		case "pdf":
			contentType = "application/pdf"
			var data []byte
			data, err = report.BuildPDF(res.Summary)
			buf.Write(data)
		default:
			http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Ctx(r.Context()).Error("rendering download", slog.String("format", format), slog.Any("error", err))
			http.Error(w, "rendering failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(res.Summary.Site, format)))
		w.Write(buf.Bytes())
	}
}
