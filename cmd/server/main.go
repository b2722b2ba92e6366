package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/router"
	"github.com/habitlog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, db.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(gdb, cfg.OwnerUserName, cfg.OwnerPassword); err != nil {
		log.Fatalf("failed to ensure owner user: %v", err)
	}
	if cfg.RequireLogin && cfg.OwnerUserName == "" {
		log.Printf("REQUIRE_LOGIN is set but OWNER_USER_NAME is empty; only existing users can log in")
	}

	store := db.NewStore(gdb)
	habits := service.NewHabitService(store).WithRecomputeOnPeriodicityChange(cfg.RecomputeOnPeriodicityChange)
	analytics := service.NewAnalyticsService(store)

	if cfg.SeedDefaultHabits {
		seeded, err := habits.SeedDefaults()
		if err != nil {
			log.Fatalf("failed to seed default habits: %v", err)
		}
		if seeded > 0 {
			log.Printf("seeded %d default habits into %s", seeded, cfg.DatabasePath)
		}
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(handler.NewAPI(gdb, habits, analytics), cfg.SessionSecret, cfg.RequireLogin)
	log.Printf("habitlog listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
