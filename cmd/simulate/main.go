package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hybrid_simulator/internal/config"
	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/report"
	"hybrid_simulator/internal/simulator"
)

type opts struct {
	configPath string
	logLevel   string

	// site overrides
	lat  float64
	lon  float64
	year int

	// outputs
	csvPath  string
	jsonPath string
	xlsxPath string
	pdfPath  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Ctx(ctx).Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simulate",
		Short: "Hourly off-grid hybrid PV, wind, tidal and battery simulation",
		Long: `simulate runs a one-year hourly energy balance for a single site with
solar PV, a small wind turbine, tidal-stream hydro and one battery.

Examples:
  simulate defaults > sim.yaml
  simulate run --config sim.yaml --csv out/hourly.csv --xlsx out/report.xlsx
  simulate run --lat 58.7 --lon -3.1 --year 2023 --json -`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newDefaultsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var o opts
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.SetLevelFromString(o.logLevel); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			cfg, err := config.Load(config.Path(o.configPath))
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("lat") {
				cfg.Site.Lat = o.lat
			}
			if flags.Changed("lon") {
				cfg.Site.Lon = o.lon
			}
			if flags.Changed("year") {
				cfg.Site.Year = o.year
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, o)
		},
	}

	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "YAML run configuration (default $SIM_CONFIG, else built-in defaults)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().Float64Var(&o.lat, "lat", 0, "site latitude, overrides the config")
	cmd.Flags().Float64Var(&o.lon, "lon", 0, "site longitude, overrides the config")
	cmd.Flags().IntVar(&o.year, "year", 0, "simulation year, overrides the config")
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write the hourly table to a CSV file")
	cmd.Flags().StringVar(&o.jsonPath, "json", "", "write the summary as JSON (\"-\" for stdout)")
	cmd.Flags().StringVar(&o.xlsxPath, "xlsx", "", "write an XLSX workbook")
	cmd.Flags().StringVar(&o.pdfPath, "pdf", "", "write a PDF summary")
	return cmd
}

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func run(ctx context.Context, out io.Writer, cfg config.File, o opts) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	respCache, closeCache, err := cfg.OpenCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	rc, err := cfg.RunConfig(remote.NewFetcher(respCache))
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := simulator.New(nil, nil).Run(ctx, rc)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info("simulation complete",
		slog.String("run_id", res.RunID.String()),
		slog.Duration("elapsed", time.Since(start)))

	if o.jsonPath != "-" {
		printSummary(out, res.Summary)
	}
	return writeOutputs(out, res, o)
}

// printSummary prints the key metrics as a table.
func printSummary(w io.Writer, s simulator.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Site\t%.4f, %.4f (%s) %d\n", s.Site.Lat, s.Site.Lon, s.Site.TZ, s.Site.Year)
	fmt.Fprintf(tw, "Current source\t%s\n", s.CurrentSource)
	fmt.Fprintln(tw, "\t")
	fmt.Fprintf(tw, "PV kWh/year\t%.1f\n", s.EnergyKWh.PV)
	fmt.Fprintf(tw, "Wind kWh/year\t%.1f\n", s.EnergyKWh.Wind)
	fmt.Fprintf(tw, "Hydro kWh/year\t%.1f\n", s.EnergyKWh.Hydro)
	fmt.Fprintf(tw, "Total Gen kWh/year\t%.1f\n", s.EnergyKWh.TotalGen)
	fmt.Fprintf(tw, "Load kWh/year\t%.1f\n", s.EnergyKWh.Load)
	fmt.Fprintf(tw, "Exports kWh/year\t%.1f\n", s.EnergyKWh.Exports)
	fmt.Fprintf(tw, "Unmet kWh/year\t%.1f\n", s.EnergyKWh.Unmet)
	fmt.Fprintln(tw, "\t")
	fmt.Fprintf(tw, "SOC Min (%%)\t%.1f\n", s.Battery.SoCMinPct)
	fmt.Fprintf(tw, "SOC Max (%%)\t%.1f\n", s.Battery.SoCMaxPct)
	fmt.Fprintf(tw, "Approx Cycles/year\t%.1f\n", s.Battery.CyclesApprox)
	if s.WorstWeekStart != nil {
		fmt.Fprintf(tw, "Worst week starts\t%s\n", s.WorstWeekStart.Format(time.RFC3339))
	} else {
		fmt.Fprintln(tw, "Worst week starts\tn/a")
	}
	tw.Flush()
}

func writeOutputs(stdout io.Writer, res *simulator.Result, o opts) error {
	if o.csvPath != "" {
		if err := writeFile(o.csvPath, func(w io.Writer) error { return report.WriteCSV(w, res.Records) }); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	if o.jsonPath == "-" {
		if err := report.WriteSummaryJSON(stdout, res.Summary); err != nil {
			return err
		}
	} else if o.jsonPath != "" {
		if err := writeFile(o.jsonPath, func(w io.Writer) error { return report.WriteSummaryJSON(w, res.Summary) }); err != nil {
			return fmt.Errorf("json: %w", err)
		}
	}
	if o.xlsxPath != "" {
		data, err := report.BuildXLSX(res.Summary, res.Records)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := writeBytes(o.xlsxPath, data); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	if o.pdfPath != "" {
		data, err := report.BuildPDF(res.Summary)
		if err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
		if err := writeBytes(o.pdfPath, data); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeBytes(path string, data []byte) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
