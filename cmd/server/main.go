// Command server runs a simulation on a ticker and streams each day to
// websocket clients, which may adjust the live controls.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"epigrid/internal/report"
	"epigrid/internal/sim"
	"epigrid/internal/store"
)

type options struct {
	interval time.Duration
	dbPath   string
	static   string
	cfg      sim.Config
}

func main() {
	addr := flag.String("addr", ":8080", "server listen address")
	interval := flag.Duration("interval", time.Second, "wall-clock time per simulated day")
	seed := flag.Uint64("seed", sim.DefaultConfig().Seed, "random seed")
	dbPath := flag.String("db", "", "store the run in this SQLite database")
	static := flag.String("static", "web", "directory served at /")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	overrides := sim.Overrides{}
	flag.Var(overrides, "set", "parameter override `key=value` (repeatable)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "server",
	})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("bad log level", "err", err)
	}
	logger.SetLevel(lvl)

	if _, ok := overrides["seed"]; !ok {
		overrides["seed"] = fmt.Sprint(*seed)
	}
	cfg, err := sim.FromMap(overrides)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("serving", "url", "http://localhost"+*addr)
	if err := serve(ctx, ln, options{
		interval: *interval,
		dbPath:   *dbPath,
		static:   *static,
		cfg:      cfg,
	}, logger); err != nil {
		logger.Fatal("server failed", "err", err)
	}
}

// serve runs the simulation and the HTTP server on ln until ctx is done. It
// returns only after the simulation goroutine has stopped and the database is
// closed.
func serve(ctx context.Context, ln net.Listener, o options, logger *log.Logger) (err error) {
	opts := []sim.Option{sim.WithLogger(logger)}
	var dbSink *store.Sink
	if o.dbPath != "" {
		db, openErr := store.Open(o.dbPath)
		if openErr != nil {
			ln.Close()
			return openErr
		}
		defer func() {
			if cerr := db.Close(); err == nil {
				err = cerr
			}
		}()
		if dbSink, err = db.NewSink(o.cfg); err != nil {
			ln.Close()
			return err
		}
		opts = append(opts, sim.WithSink(dbSink))
	}

	simulation, err := sim.New(o.cfg, opts...)
	if err != nil {
		ln.Close()
		return err
	}
	hub := newControlHub(simulation, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		var records []sim.Record
		simulation.Run(ctx, o.interval, func(r sim.Record) {
			records = append(records, r)
			hub.broadcastRecord(r)
			logger.Debug("tick", "day", r.Day, "infected", r.Infected, "lockdown", r.LockdownActive)
		})
		if !simulation.Running() {
			logger.Info("simulation finished", "summary", report.Summarize(records).String())
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/proto/", http.StripPrefix("/proto/", http.FileServer(http.Dir("proto"))))
	mux.Handle("/ws/control", hub.handler())
	mux.Handle("/", http.FileServer(http.Dir(o.static)))

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdown)
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	cancel()
	<-simDone

	if dbSink != nil && dbSink.Err() != nil {
		logger.Error("storing records failed", "err", dbSink.Err())
		if err == nil {
			err = dbSink.Err()
		}
	}
	return err
}
