// Package main provides the game server binary that serves the combat
// resolution API over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/config"
	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/session"
	"github.com/msw2004727/FB-sub000/internal/game/settle"
	"github.com/msw2004727/FB-sub000/internal/game/skill"
	"github.com/msw2004727/FB-sub000/internal/gameserver"
	"github.com/msw2004727/FB-sub000/internal/observability"
	"github.com/msw2004727/FB-sub000/internal/oracle"
	"github.com/msw2004727/FB-sub000/internal/server"
	"github.com/msw2004727/FB-sub000/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("http_addr", cfg.Server.Addr()),
	)

	// Load skill templates.
	skillStart := time.Now()
	skills, err := skill.LoadLibrary(cfg.Content.SkillsDir)
	if err != nil {
		logger.Fatal("loading skill templates", zap.Error(err))
	}
	logger.Info("skill library loaded",
		zap.Int("templates", skills.Count()),
		zap.Duration("elapsed", time.Since(skillStart)),
	)

	// Connect to PostgreSQL.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	playerRepo := postgres.NewPlayerRepository(pool.DB())
	npcRepo := postgres.NewNPCRepository(pool.DB())
	stateRepo := postgres.NewCombatStateRepository(pool.DB())
	historyRepo := postgres.NewHistoryRepository(pool.DB())

	// Narrative oracle client.
	oracleClient := oracle.NewClient(cfg.Oracle, logger)
	logger.Info("oracle client ready",
		zap.String("model", cfg.Oracle.Model),
		zap.Duration("timeout", cfg.Oracle.Timeout),
	)

	// Wire the combat core.
	manager := session.NewManager(oracleClient, skills, playerRepo, npcRepo, stateRepo, historyRepo, logger)
	engine := combat.NewEngine(oracleClient, skills, playerRepo, stateRepo, logger)
	pipeline := settle.NewPipeline(oracleClient, playerRepo, npcRepo, stateRepo, historyRepo, logger)

	handler := gameserver.NewCombatHandler(manager, engine, pipeline, logger)
	httpServer := gameserver.NewServer(cfg.Server, handler, pool, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", httpServer)
	lifecycle.Add("postgres", pool.Watchdog(30*time.Second, logger))

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
