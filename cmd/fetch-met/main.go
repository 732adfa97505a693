// fetch-met downloads one year of hourly irradiance, air temperature and
// 10 m wind for a site from NASA POWER and writes it as a CSV that the
// simulator reads with environment.source=csv. Timestamps are in local
// standard time.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hybrid_simulator/internal/cache"
	"hybrid_simulator/internal/ingest"
	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/weather"
)

func main() {
	lat := flag.Float64("lat", 50.7, "site latitude")
	lon := flag.Float64("lon", -3.5, "site longitude")
	year := flag.Int("year", 2024, "calendar year")
	output := flag.String("output", "", "output CSV path, defaults to input/met_<lat>_<lon>_<year>.csv")
	apiURL := flag.String("api-url", weather.DefaultNASAPowerURL, "NASA POWER hourly point endpoint")
	cacheDir := flag.String("cache-dir", "cache", "response cache directory, empty disables caching")
	cacheTTL := flag.Duration("cache-ttl", 30*24*time.Hour, "response cache lifetime")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Ctx(ctx)

	site := model.Site{Lat: *lat, Lon: *lon, Year: *year}
	if err := site.Validate(); err != nil {
		fatal(logger, "invalid site", err)
	}
	if *output == "" {
		*output = filepath.Join("input", fmt.Sprintf("met_%.4g_%.4g_%d.csv", site.Lat, site.Lon, site.Year))
	}

	var c cache.Cache = cache.Nop{}
	if *cacheDir != "" {
		fc, err := cache.NewFile(*cacheDir, *cacheTTL)
		if err != nil {
			fatal(logger, "opening cache", err)
		}
		c = fc
	}

	src := weather.NewNASAPower(remote.NewFetcher(c))
	src.APIURL = *apiURL
	if err := src.Validate(); err != nil {
		fatal(logger, "invalid source", err)
	}

	logger.Info("fetching meteorology",
		slog.Float64("lat", site.Lat),
		slog.Float64("lon", site.Lon),
		slog.Int("year", site.Year))

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fatal(logger, "creating output dir", err)
	}
	f, err := os.Create(*output)
	if err != nil {
		fatal(logger, "creating output file", err)
	}
	n, err := fetch(ctx, src, site, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fatal(logger, "fetching", err)
	}

	logger.Info("wrote records", slog.Int("rows", n), slog.String("path", *output))
}

// fetch writes the source's table for site to w and returns the row count.
func fetch(ctx context.Context, src weather.Source, site model.Site, w io.Writer) (int, error) {
	t, err := src.Fetch(ctx, site)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", src.Name(), err)
	}
	if err := ingest.WriteTable(w, t); err != nil {
		return 0, err
	}
	return t.Len(), nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
