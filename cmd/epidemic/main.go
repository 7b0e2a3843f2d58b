// Command epidemic runs one stochastic epidemic simulation from a preset
// scenario or a YAML parameter file, with optional recording and live
// streaming of the counter time series.
package main

import (
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

	"github.com/lmittmann/tint"

	"epidemia.dev/internal/persistence/seriesdb"
	"epidemia.dev/internal/persistence/serieslog"
	"epidemia.dev/internal/sim/epidemic"
	"epidemia.dev/internal/sim/params"
	"epidemia.dev/internal/sim/scenario"
	"epidemia.dev/internal/transport/observer"
)

func main() {
	var (
		scenarioName = flag.String("scenario", "", "preset scenario name (see -list)")
		configPath   = flag.String("config", "", "path to a YAML parameter file (overrides -scenario)")
		list         = flag.Bool("list", false, "list preset scenarios and exit")
		seed         = flag.Int64("seed", 0, "random seed override (0 keeps the scenario's seed)")
		sqlitePath   = flag.String("sqlite", "", "record the run into this SQLite database")
		seriesPath   = flag.String("series", "", "record the series as zstd JSONL at this path")
		listenAddr   = flag.String("listen", "", "serve live samples over websocket on this address")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))

	if *list {
		for _, name := range scenario.Names() {
			sc, _ := scenario.ByName(name)
			fmt.Printf("%-22s %s\n", name, sc.Description)
		}
		return
	}

	sc, err := pickScenario(*scenarioName, *configPath)
	if err != nil {
		logger.Error("scenario", "err", err)
		os.Exit(2)
	}
	p := sc.Params
	if *seed != 0 {
		p.Seed = *seed
	}

	sim, err := epidemic.New(p)
	if err != nil {
		if errors.Is(err, params.ErrInvalid) {
			logger.Error("bad parameters", "err", err)
			os.Exit(2)
		}
		logger.Error("setup", "err", err)
		os.Exit(1)
	}
	model := sim.Model()

	if *seriesPath != "" {
		w, err := serieslog.NewWriter(*seriesPath)
		if err != nil {
			logger.Error("open series file", "path", *seriesPath, "err", err)
			os.Exit(1)
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("series file", "err", err)
			}
		}()
		sim.AddObserver(w)
	}

	var rec *seriesdb.Recorder
	if *sqlitePath != "" {
		rec, err = seriesdb.Open(*sqlitePath, sc.Name, p.Seed)
		if err != nil {
			logger.Error("open sqlite", "path", *sqlitePath, "err", err)
			os.Exit(1)
		}
		defer rec.Close()
		logger.Info("recording run", "db", *sqlitePath, "run_id", rec.RunID())
		sim.AddObserver(rec)
	}

	var obs *observer.Server
	if *listenAddr != "" {
		obs = observer.NewServer(logger)
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/ws", obs.WSHandler())
		srv := &http.Server{Addr: *listenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observer listener", "err", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
		logger.Info("observer stream", "addr", *listenAddr)
		sim.AddObserver(obs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopProgress := func() {}
	if p.Progress {
		stopProgress = startProgressMeter(sim)
	}

	logger.Info("simulation starting",
		"scenario", sc.Name,
		"individuals", p.NrIndividuals,
		"initial_infects", p.InitialInfects,
		"run_time", p.RunTime,
		"seed", p.Seed,
	)
	rep, err := sim.Run(ctx)
	stopProgress()
	if obs != nil {
		obs.PublishReport(rep)
	}
	if rec != nil {
		if ferr := rec.Finish(rep); ferr != nil {
			logger.Warn("sqlite recorder", "err", ferr)
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, epidemic.ErrInvariant), errors.Is(err, epidemic.ErrPrecondition):
			logger.Error("simulation aborted", "err", err)
			os.Exit(1)
		case errors.Is(err, context.Canceled):
			logger.Warn("simulation interrupted", "sim_time", rep.SimTime)
		default:
			logger.Error("simulation failed", "err", err)
			os.Exit(1)
		}
	}

	if rep.Reason != epidemic.StopTimeElapsed && rep.Reason != epidemic.StopCanceled {
		fmt.Printf("\nSimulation ended prematurely: %s.\n", rep.Reason)
	}
	if p.Stats {
		printStats(rep, model)
	}
	if p.Plot && *seriesPath != "" {
		logger.Info("series recorded for plotting", "path", *seriesPath)
	}
}

func pickScenario(name, path string) (scenario.Scenario, error) {
	switch {
	case path != "":
		return scenario.Load(path)
	case name != "":
		sc, ok := scenario.ByName(name)
		if !ok {
			return scenario.Scenario{}, fmt.Errorf("unknown scenario %q (try -list)", name)
		}
		return sc, nil
	default:
		return scenario.Scenario{}, errors.New("one of -scenario or -config is required")
	}
}

// startProgressMeter redraws a percentage while the run advances. The
// returned func stops the meter and clears the line.
func startProgressMeter(sim *epidemic.Simulation) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintf(os.Stderr, "\r%6.2f%%\n", sim.Progress()*100)
				return
			case <-t.C:
				fmt.Fprintf(os.Stderr, "\r%6.2f%%", sim.Progress()*100)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// printStats mirrors the classic end-of-run summary; lines that make no
// sense for the model's feature set are omitted.
func printStats(rep epidemic.Report, model params.Model) {
	fmt.Printf("\nSimulation duration: %s\n", rep.Wall)
	fmt.Println("Situation at the end of the simulation:")
	fmt.Printf("- infects: %d\n", rep.Infects)
	fmt.Printf("- susceptibles: %d\n", rep.Susceptibles)
	if model.HasImmunization {
		fmt.Printf("- immunes: %d\n", rep.Immunes)
	}
	if model.HasDeath {
		fmt.Printf("- deaths for the epidemic: %d\n", rep.EpidemicDeaths)
	}
	if model.HasVitalDynamics {
		fmt.Printf("- births: %d\n", rep.Newborns)
		fmt.Printf("- deaths for natural reasons: %d\n", rep.NaturalDeaths)
	}
}
