package main

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/config"
	"github.com/yeremiapane/digital-menu/database"
	"github.com/yeremiapane/digital-menu/hub"
	"github.com/yeremiapane/digital-menu/router"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	utils.InitLogger(cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		utils.ErrorLogger.Warn("JWT_SECRET is not set, using development secret")
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if cfg.SeedDemoData {
		if err := database.Seed(db); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// Satu hub untuk seluruh proses
	h := hub.New()

	pruner := services.NewConnectionPruner(services.NewPresenceService(db, cfg.TxTimeout), h.Registry, cfg.PruneInterval, cfg.ConnectionGrace)
	pruner.Start()
	defer pruner.Stop()

	r := router.SetupRouter(db, h, cfg)

	utils.InfoLogger.Printf("Listening on port %d", cfg.Port)
	if err := r.Run(cfg.Addr()); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
