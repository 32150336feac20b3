package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/voxaiomni/admin-core/internal/router"
	"github.com/voxaiomni/admin-core/internal/user"
	userrepo "github.com/voxaiomni/admin-core/internal/user/repo"
	"github.com/voxaiomni/admin-core/pkg/database"
	"github.com/voxaiomni/admin-core/pkg/utilities"
)

type serverConfig struct {
	Addr        string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8431"`
	AuthMode    string `env:"AUTH_MODE" envDefault:"static"`
	InitOnStart bool   `env:"DB_INIT_ON_START" envDefault:"false"`
}

func main() {
	// best-effort: real env wins, a missing .env is fine
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	var srvCfg serverConfig
	if err := env.Parse(&srvCfg); err != nil {
		sugar.Fatalf("parse env: %v", err)
	}
	mode, err := user.ParseMode(srvCfg.AuthMode)
	if err != nil {
		sugar.Fatalf("auth mode: %v", err)
	}
	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("db config: %v", err)
	}

	sugar.Infow("starting admin-core", "addr", srvCfg.Addr, "auth_mode", mode)

	dbm := database.NewManager(dbCfg, sugar.Named("db"))
	users := userrepo.NewUserRepo(dbm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if srvCfg.InitOnStart {
		seeded, err := user.NewInitializer(users, nil, sugar.Named("init")).InitializeDatabase(ctx)
		if err != nil {
			sugar.Fatalf("database initialization: %v", err)
		}
		sugar.Infow("sample users ready", "count", len(seeded))
	}

	gate := user.NewGate(mode, users, nil, sugar.Named("auth"))
	handler := router.RegisterRoutes(sugar, user.NewHandler(gate, sugar), dbm, dbCfg.Timeout)
	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if err := dbm.Close(); err != nil {
		sugar.Warnf("db close failed: %v", err)
	}
	sugar.Info("goodbye")
}
