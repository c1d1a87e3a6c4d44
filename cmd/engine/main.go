package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/connector/emailalerts"
	"jobscout-engine/internal/connector/remotive"
	"jobscout-engine/internal/connector/themuse"
	"jobscout-engine/internal/dedup"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/entity"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/httpapi"
	"jobscout-engine/internal/match"
	"jobscout-engine/internal/resilience"
	"jobscout-engine/internal/runner"
	"jobscout-engine/internal/schedule"
	"jobscout-engine/internal/secrets"
	"jobscout-engine/internal/store"
)

// defaultUserID: the engine runs one local profile.
const defaultUserID = 1

func main() {
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, warning := range validation.Warnings {
		log.Printf("[config] warning: %s", warning)
	}
	if err := validation.Err(); err != nil {
		log.Fatal(err)
	}
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	// single-instance guard on the data dir
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("data dir lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	dbPath := filepath.Join(dataDir, "jobscout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	registry := buildRegistry(cfg)
	matcher := match.New(buildOracle(cfg))
	run := runner.New(registry, db, dedup.New(db), matcher, entity.New(db, db), hub)

	// due-scan: pick up automations whose next_run_at has passed
	cr := cron.New()
	scanSpec := fmt.Sprintf("@every %ds", cfg.Scheduler.ScanSeconds)
	if _, err := cr.AddFunc(scanSpec, func() { runDue(db, run) }); err != nil {
		log.Fatalf("schedule due-scan: %v", err)
	}
	cr.Start()
	defer cr.Stop()

	mux := httpapi.NewMux(httpapi.Deps{
		DB:       db,
		Hub:      hub,
		Registry: registry,
		UserID:   defaultUserID,
		RunAutomation: func(ctx context.Context, a *domain.Automation) runner.Result {
			return run.RunAutomation(ctx, a)
		},
		CfgVal: &cfgVal,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	log.Printf("[engine] shutdown token: %s", token)
	log.Printf("[engine] listening on http://%s (db=%s, boards=%v)", addr, dbPath, registry.IDs())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Printf("[engine] stopped")
}

// buildRegistry wires every board behind one shared resilience stack so a
// misbehaving provider trips its own breaker without starving the others.
func buildRegistry(cfg config.Config) *connector.Registry {
	client := connector.NewHTTPClient(resilience.New(resilienceConfig(cfg)), resilience.NewHostLimiter(2, 4))

	reg := connector.NewRegistry()
	reg.Register(remotive.ID, func() (connector.Connector, error) {
		return remotive.New(remotive.Config{BaseURL: cfg.Boards.Remotive.BaseURL}, client), nil
	})
	reg.Register(themuse.ID, func() (connector.Connector, error) {
		return themuse.New(themuse.Config{
			BaseURL: cfg.Boards.TheMuse.BaseURL,
			APIKey:  cfg.Boards.TheMuse.APIKey,
		}, client), nil
	})
	reg.Register(emailalerts.ID, func() (connector.Connector, error) {
		account := secrets.IMAPKeyringAccount(cfg.Email.Username, cfg.Email.IMAPHost)
		password, err := secrets.GetIMAPPassword(account)
		if err != nil {
			// connector reports it as blocked at search time
			password = ""
		}
		return emailalerts.New(emailalerts.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Email.IMAPHost, cfg.Email.IMAPPort),
			Username: cfg.Email.Username,
			Password: password,
			Mailbox:  cfg.Email.Mailbox,
		}), nil
	})
	return reg
}

// resilienceConfig overlays the yaml knobs onto the defaults.
func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	if cfg.Resilience.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.Resilience.MaxAttempts
	}
	if cfg.Resilience.BreakerFailures > 0 {
		rc.BreakerFailures = uint(cfg.Resilience.BreakerFailures)
	}
	if cfg.Resilience.BreakerDelaySeconds > 0 {
		rc.BreakerDelay = time.Duration(cfg.Resilience.BreakerDelaySeconds) * time.Second
	}
	if cfg.Resilience.CallTimeoutSeconds > 0 {
		rc.CallTimeout = time.Duration(cfg.Resilience.CallTimeoutSeconds) * time.Second
	}
	if cfg.Resilience.MaxConcurrent > 0 {
		rc.MaxConcurrent = uint(cfg.Resilience.MaxConcurrent)
	}
	return rc
}

// buildOracle returns the scoring backend, or a stub that reports it
// unreachable when no API key is configured. Runs still execute and land in
// "failed" with a clear message instead of crashing the engine.
func buildOracle(cfg config.Config) match.Oracle {
	key, err := secrets.GetScoringAPIKey()
	if err != nil {
		log.Printf("[engine] scoring disabled: %v", err)
		return unavailableOracle{}
	}
	oracle, err := match.NewOpenAIOracle(key, cfg.Scoring.Model)
	if err != nil {
		log.Printf("[engine] scoring disabled: %v", err)
		return unavailableOracle{}
	}
	return oracle
}

type unavailableOracle struct{}

func (unavailableOracle) Score(context.Context, string, string) (match.Score, error) {
	return match.Score{}, match.BackendUnreachable("no scoring API key configured")
}

// runDue executes everything that has come due, one at a time. Sequential on
// purpose: the bulkhead already parallelizes within a run, and two runs for
// the same user would race the dedup set.
func runDue(db *store.DB, run *runner.Runner) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := time.Now()
	due, err := db.ListDueAutomations(ctx, now)
	if err != nil {
		log.Printf("[engine] due-scan: %v", err)
		return
	}
	for i := range due {
		if !schedule.IsDue(now, due[i].NextRunAt) {
			continue
		}
		res := run.RunAutomation(ctx, &due[i])
		log.Printf("[engine] scheduled run automation=%d run=%s status=%s", due[i].ID, res.RunID, res.Status)
	}
}
