// Package main provides the arena server binary: the combat HTTP API plus a
// gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/backend"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	catalogDir := flag.String("monsters-dir", "", "monster YAML directory; overrides combat.catalog_dir")
	healthInterval := flag.Duration("health-interval", 15*time.Second, "database health probe interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *catalogDir != "" {
		cfg.Combat.CatalogDir = *catalogDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting arena server",
		zap.String("http_addr", cfg.Server.HTTPAddr()),
		zap.String("grpc_addr", cfg.Server.GRPCAddr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	dbStart := time.Now()
	store, err := backend.Open(ctx, &cfg)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close()
	logger.Info("storage ready",
		zap.String("driver", store.Driver),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	catalog, err := store.LoadCatalog(ctx, cfg.Combat.CatalogDir)
	if err != nil {
		logger.Fatal("loading monster catalog", zap.Error(err))
	}
	logger.Info("monster catalog loaded", zap.Int("count", catalog.Len()))

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	opts := combat.BuildOptions{
		Mode:           combat.Mode(cfg.Combat.Mode),
		Ruleset:        cfg.Combat.Ruleset,
		Monsters:       cfg.Combat.Monsters,
		MonsterFirst:   cfg.Combat.MonsterFirst,
		ResolveOpening: cfg.Combat.ResolveOpening,
	}
	svc := gameserver.NewCombatService(store.Combats, catalog, roller, opts, cfg.Combat.LogLimit, logger)

	gin.SetMode(gin.ReleaseMode)
	auth := gameserver.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	players := gameserver.NewPlayerService(store.Players, logger)
	router := gameserver.NewRouter(gameserver.NewHandler(svc, players, auth, store, logger))

	grpcServer := grpc.NewServer()
	reporter := gameserver.NewHealthReporter(store, *healthInterval, logger)
	reporter.Register(grpcServer)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(cfg.Server.HTTPAddr(), router, cfg.Server.ShutdownTimeout, logger))
	lifecycle.Add("grpc", server.NewGRPCService(cfg.Server.GRPCAddr(), grpcServer, cfg.Server.ShutdownTimeout, logger))
	lifecycle.AddTask("health", reporter.Run)

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("mode", cfg.Combat.Mode),
		zap.String("ruleset", cfg.Combat.Ruleset),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
