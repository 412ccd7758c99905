package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"starteritems.gg/internal/config"
	"starteritems.gg/internal/host"
	persistlog "starteritems.gg/internal/persistence/log"
	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/session"
	"starteritems.gg/internal/sim/catalogs"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred closes (tick log, grant
// log, player db) always flush before exit.
func run() int {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configPath = flag.String("config", "./config/starteritems.yaml", "starter items config path (written with defaults if missing)")
		configDir  = flag.String("configs", "./configs", "catalog directory (items.json)")
		worldPath  = flag.String("world", "", "world.yaml path (optional)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tickLog    = flag.Bool("tick_log", envBool("SI_TICK_LOG", false), "write per-tick JSONL event log under <data>/events")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	pluginLogger := log.New(os.Stdout, "[starteritems] ", log.LstdFlags|log.Lmicroseconds)

	created, err := config.Ensure(*configPath)
	if err != nil {
		logger.Printf("write default config %s: %v", *configPath, err)
		return 1
	}
	if created {
		logger.Printf("wrote default config to %s", *configPath)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Printf("load config: %v", err)
		return 1
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Printf("load catalogs: %v", err)
		return 1
	}
	logger.Printf("item palette %d entries digest=%s", len(cats.Palette), cats.PaletteDigest)

	kit, err := starter.NewKit(*configPath, cfg, cats)
	if err != nil {
		logger.Printf("starter kit: %v", err)
		return 1
	}

	wcfg, err := world.LoadConfig(*worldPath)
	if err != nil {
		logger.Printf("load world config: %v", err)
		return 1
	}

	db, err := playerdb.Open(filepath.Join(*dataDir, "players.db"))
	if err != nil {
		logger.Printf("open player db: %v", err)
		return 1
	}
	defer db.Close()

	grants := persistlog.NewGrantLogger(*dataDir)
	defer grants.Close()

	opts := world.Options{
		Bus:      host.NewBus(),
		Sessions: session.NewTracker(),
		Store:    db,
		Logger:   logger,
	}
	if *tickLog {
		tl := persistlog.NewTickLogger(*dataDir)
		defer tl.Close()
		opts.TickLogger = tl
	}

	w, err := world.New(wcfg, cats, opts)
	if err != nil {
		logger.Printf("world: %v", err)
		return 1
	}

	disp := starter.NewDispenser(kit, pluginLogger, persistlog.MultiRecorder{grants, db})
	plugin := starter.NewPlugin(disp, w.Sessions(), w, pluginLogger)
	plugin.Register(w.Bus())

	ctx, cancel := signalContext()
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- w.Run(ctx)
	}()
	if n := len(kit.Commands); n > 0 {
		ok := plugin.RunStartCommands(w)
		logger.Printf("server start commands: %d/%d succeeded", ok, n)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(w, db, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		select {
		case <-ctx.Done():
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("world stopped: %v", err)
			}
			cancel()
		}
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
		<-w.Done()
		return 1
	}
	<-w.Done()
	if w.Err() != nil {
		return 1
	}
	return 0
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
