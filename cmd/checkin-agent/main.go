package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"choiros-backend/internal/client"
	"choiros-backend/internal/config"
	"choiros-backend/internal/connectivity"
	"choiros-backend/internal/database"
	"choiros-backend/internal/db"
	"choiros-backend/internal/events"
	"choiros-backend/internal/handlers"
	"choiros-backend/internal/health"
	h "choiros-backend/internal/http"
	"choiros-backend/internal/metrics"
	"choiros-backend/internal/monitoring"
	"choiros-backend/internal/repositories"
	"choiros-backend/internal/services"
	"choiros-backend/migrations"

	"github.com/redis/go-redis/v9"
)

// lifecycle is any background component with Start/Stop.
type lifecycle interface {
	Start()
	Stop()
}

func main() {
	port := flag.Int("port", 0, "Local API port (overrides config)")
	stdin := flag.Bool("stdin", false, "Read scanned codes from standard input (keyboard-wedge scanner)")
	offline := flag.Bool("offline", false, "Start offline and never reconnect (demo and testing)")
	flag.Parse()

	cfg := config.Load()
	agentCfg := cfg.Agent
	if *port != 0 {
		agentCfg.Port = *port
	}
	if agentCfg.UserID <= 0 {
		log.Fatal("agent.user_id is required (CHOIROS_AGENT_USER_ID)")
	}

	m := metrics.New("choiros_station")
	hc := health.NewHealthChecker()
	host := monitoring.NewHostSampler(m.Registry(), "choiros_station", agentCfg.DataPath, agentCfg.HostSample)

	store, closeStore := openStore(cfg, hc)
	defer closeStore()

	apiClient := client.NewAttendanceClient(agentCfg.ServerURL, agentCfg.Organization, agentCfg.Token, agentCfg.SyncCallTimeout)
	bus := events.NewBus()
	coordinator := services.NewSyncCoordinator(store, apiClient, bus, m, agentCfg.SyncCallTimeout, agentCfg.SyncInterval)

	provider, providerLoop := openConnectivity(agentCfg, apiClient, coordinator, *offline)
	monitor := connectivity.NewMonitor(provider, coordinator.Trigger, m)
	capture := services.NewCheckInCapture(monitor, apiClient, store, m, agentCfg.UserID, agentCfg.SyncCallTimeout)

	if n, err := store.Count(context.Background()); err == nil {
		m.SetPending(n)
		log.Printf("[Agent] %d check-in(s) pending from a previous run", n)
	}

	host.Start()
	coordinator.Start()
	if providerLoop != nil {
		providerLoop.Start()
	}
	monitor.Start()
	// flush what survived a restart if we came up online
	if monitor.Online() {
		coordinator.Trigger()
	}

	station := handlers.NewStationHandler(capture, coordinator, store, monitor, bus)
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", agentCfg.Port),
		Handler:           h.NewStationRouter(station, hc, m),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[Agent] Local API on http://%s (organization %s, user %d)", srv.Addr, agentCfg.Organization, agentCfg.UserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Agent] Local API failed: %v", err)
		}
	}()

	if *stdin {
		go readScans(os.Stdin, capture)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Agent] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	monitor.Stop()
	if providerLoop != nil {
		providerLoop.Stop()
	}
	coordinator.Stop()
	host.Stop()
}

// openStore builds the configured pending store and registers its health check.
func openStore(cfg *config.Config, hc *health.HealthChecker) (repositories.PendingStore, func()) {
	ns := cfg.Agent.StoreNamespace
	countCheck := func(store repositories.PendingStore) health.Check {
		return func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		}
	}

	switch cfg.Agent.Store {
	case "memory":
		log.Println("[Agent] Using in-memory pending store: queued check-ins are lost on restart")
		store := repositories.NewMemoryPendingStore()
		hc.Register("store", countCheck(store))
		return store, func() {}

	case "postgres":
		pool := db.Connect(cfg)
		migrator := database.NewMigratorWithFS(pool, migrations.FS, ".").
			Only(func(name string) bool { return strings.HasPrefix(name, "003_") })
		if err := migrator.RunMigrations(context.Background()); err != nil {
			log.Fatalf("[Agent] Migrations failed: %v", err)
		}
		store := repositories.NewPostgresPendingStore(pool, ns)
		hc.Register("store", countCheck(store))
		return store, pool.Close

	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("[Agent] Redis unreachable at %s: %v", cfg.Redis.Addr, err)
		}
		store := repositories.NewRedisPendingStore(rdb, ns)
		hc.Register("store", countCheck(store))
		return store, func() { rdb.Close() }
	}
}

// openConnectivity returns the provider and, when it has one, its
// background loop.
func openConnectivity(agentCfg config.AgentConfig, apiClient *client.AttendanceClient, coordinator *services.SyncCoordinator, offline bool) (connectivity.Provider, lifecycle) {
	if offline {
		log.Println("[Agent] Offline mode: check-ins are queued only")
		return connectivity.NewManualProvider(false), nil
	}

	switch agentCfg.Connectivity {
	case "probe":
		p := connectivity.NewProbeProvider(apiClient, agentCfg.ProbeInterval)
		return p, p
	default:
		p := connectivity.NewWebSocketProvider(apiClient.HubURL(), apiClient.AuthHeader(), agentCfg.ReconnectMaxWait)
		p.OnWake(coordinator.Trigger)
		return p, p
	}
}

// readScans treats every input line as one scan. A keyboard-wedge scanner
// has no start button, so each line arms the scanner first.
func readScans(r io.Reader, capture *services.CheckInCapture) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		capture.Start()
		result, err := capture.Decode(context.Background(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s\n", err)
			continue
		}
		title := result.EventTitle
		if title == "" {
			title = fmt.Sprintf("event %d", result.EventID)
		}
		fmt.Printf("✓ %s: %s\n", title, result.Message)
	}
}
