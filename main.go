// Command streetdogs starts the dog-collecting-loot game server:
// config/state loading, the single game strand, the REST/WebSocket
// transport, and the retired-player sink. Grounded on the teacher's
// main.go — stdlib flag parsing, godotenv, initializeServices/
// runHTTPServer split, signal-driven graceful shutdown — generalized
// from "one game config directory, ngrok, MCP" to the CLI surface
// spec.md §6 names.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nkazantsev/streetdogs/config"
	"github.com/nkazantsev/streetdogs/game/app"
	"github.com/nkazantsev/streetdogs/game/session"
	"github.com/nkazantsev/streetdogs/persistence"
	"github.com/nkazantsev/streetdogs/store"
	restapi "github.com/nkazantsev/streetdogs/transport/http"
	"github.com/nkazantsev/streetdogs/transport/websocket"
)

const (
	saveWorkers   = 4
	saveQueueSize = 64
)

var (
	configFile      = flag.String("config-file", "", "path to the game config JSON file (required)")
	wwwRoot         = flag.String("www-root", "", "path to the static file root served outside /api (required)")
	tickPeriodMs    = flag.Int64("tick-period", 0, "if > 0, ticks the world automatically every N milliseconds and disables POST /api/v1/game/tick")
	randomizeSpawn  = flag.Bool("randomize-spawn-points", false, "spawn new dogs at a random point on the road network instead of the first road's start")
	stateFile       = flag.String("state-file", "", "path to the crash-recovery snapshot file")
	saveStatePeriod = flag.Int64("save-state-period", 0, "if > 0, autosave the snapshot every N milliseconds (requires --state-file)")
	address         = flag.String("address", ":8080", "address the HTTP server listens on")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --config-file <path> --www-root <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: error loading .env file: %v", err)
	}

	flag.Parse()

	if *configFile == "" || *wwwRoot == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *saveStatePeriod > 0 && *stateFile == "" {
		log.Fatalf("--save-state-period requires --state-file")
	}

	a, strand, st, err := initializeApplication()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Warning: error closing store: %v", err)
		}
	}()

	runServer(a, strand, st)
}

// initializeApplication wires config, the retired-player store, the
// application, and — if --state-file was given — restores the last
// snapshot before the server starts accepting requests (spec.md §4.8:
// restore must complete before ticking begins, since the ID counters are
// only advanced as each entry replays).
func initializeApplication() (*app.Application, *session.Strand, *store.Store, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	dbURL := os.Getenv("GAME_DB_URL")
	if dbURL == "" {
		return nil, nil, nil, fmt.Errorf("GAME_DB_URL is not set")
	}
	st, err := store.Open(dbURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open retired-player store: %w", err)
	}

	saver := store.NewAsyncSaver(st, saveWorkers, saveQueueSize)
	a := app.New(cfg.Maps, int64(cfg.RetirementMs), saver)
	a.SetRandomizeSpawn(*randomizeSpawn)

	if *stateFile != "" {
		if err := persistence.Restore(a, *stateFile); err != nil {
			st.Close()
			return nil, nil, nil, fmt.Errorf("restore state file %s: %w", *stateFile, err)
		}
	}

	strand := session.NewStrand()
	return a, strand, st, nil
}

// runServer starts the strand, the optional autosave/autotick loops, and
// the HTTP+WebSocket transport, then blocks until SIGINT/SIGTERM.
func runServer(a *app.Application, strand *session.Strand, st *store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go strand.Run(ctx)

	if *saveStatePeriod > 0 {
		autosave := persistence.NewAutosave(a, *stateFile, float64(*saveStatePeriod))
		a.AddListener(autosave)
	}

	hub := websocket.NewHub(a, strand)
	go hub.Run()
	a.AddListener(hub)

	autoTickEnabled := *tickPeriodMs > 0
	apiServer := restapi.New(a, strand, st, autoTickEnabled, *wwwRoot)
	apiServer.SetHub(hub)

	httpServer := &http.Server{
		Addr:         *address,
		Handler:      apiServer,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("streetdogs listening on %s (auto-tick: %v)", *address, autoTickEnabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if autoTickEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runAutoTick(ctx, a, strand, time.Duration(*tickPeriodMs)*time.Millisecond)
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %v, shutting down", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: HTTP server shutdown error: %v", err)
	}

	if *stateFile != "" {
		if err := persistence.Snapshot(a, *stateFile); err != nil {
			log.Printf("Warning: final snapshot to %s failed: %v", *stateFile, err)
		} else {
			log.Printf("final snapshot written to %s", *stateFile)
		}
	}

	wg.Wait()
	log.Println("streetdogs stopped")
}

// runAutoTick drives the world forward every period until ctx is
// cancelled, the --tick-period CLI flag's effect (spec.md §6).
func runAutoTick(ctx context.Context, a *app.Application, strand *session.Strand, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	deltaMs := float64(period / time.Millisecond)

	for {
		select {
		case <-ticker.C:
			strand.Do(func() {
				a.Tick(deltaMs)
			})
		case <-ctx.Done():
			return
		}
	}
}
