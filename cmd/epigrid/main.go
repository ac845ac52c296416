// Command epigrid runs one simulation headless to completion and writes its
// per-day records to the requested outputs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"epigrid/internal/report"
	"epigrid/internal/sim"
	"epigrid/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "epigrid:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("epigrid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	overrides := sim.Overrides{}
	fs.Var(overrides, "set", "parameter override `key=value` (repeatable)")
	seed := fs.Uint64("seed", 0, "random seed (default from config)")
	days := fs.Int("days", 0, "maximum simulated days (default from config)")
	csvPath := fs.String("csv", "", "write per-day records as CSV to this file")
	dbPath := fs.String("db", "", "store the run in this SQLite database")
	chartPath := fs.String("chart", "", "render the trajectory as PNG to this file")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	listKeys := fs.Bool("keys", false, "list parameter names accepted by -set and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *listKeys {
		for _, k := range sim.DefaultConfig().Keys() {
			fmt.Fprintln(stdout, k)
		}
		return nil
	}

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "epigrid",
		Level:           lvl,
	})

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			overrides["seed"] = fmt.Sprint(*seed)
		case "days":
			overrides["max_days"] = fmt.Sprint(*days)
		}
	})
	cfg, err := sim.FromMap(overrides)
	if err != nil {
		return err
	}

	var (
		sinks  sim.MultiSink
		checks []func() error
	)
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		cs := report.NewCSVSink(f)
		sinks = append(sinks, cs)
		checks = append(checks, cs.Err)
	}
	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		ds, err := db.NewSink(cfg)
		if err != nil {
			return err
		}
		logger.Info("storing run", "db", *dbPath, "run", ds.RunID())
		sinks = append(sinks, ds)
		checks = append(checks, ds.Err)
	}

	s, err := sim.New(cfg, sim.WithLogger(logger), sim.WithSink(sinks))
	if err != nil {
		return err
	}
	records, runErr := s.RunToCompletion(ctx)
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	if runErr != nil {
		logger.Warn("run interrupted", "day", s.Day())
	}

	if *chartPath != "" && len(records) > 1 {
		f, err := os.Create(*chartPath)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("epigrid seed %d", cfg.Seed)
		if err := report.RenderChart(f, title, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	summary := report.Summarize(records)
	logger.Info("simulation finished",
		"days", summary.Days,
		"peak_infected", summary.PeakInfected,
		"peak_day", summary.PeakDay,
		"deaths", summary.TotalDeaths,
	)
	fmt.Fprintln(stdout, summary)
	return runErr
}
