package main

import (
	"context"
	"dance-entry-api/config"
	"dance-entry-api/internal/admin"
	"dance-entry-api/internal/attachment"
	"dance-entry-api/internal/dataconfig"
	"dance-entry-api/internal/entry"
	"dance-entry-api/internal/logs"
	"dance-entry-api/internal/lookup"
	"dance-entry-api/internal/stage"
	"dance-entry-api/internal/storage"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}
	cfg := config.LoadConfig()

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	models := []interface{}{
		&entry.Entry{},
		&attachment.Attachment{},
		&attachment.Orphan{},
		&admin.Score{},
		&logs.SystemLog{},
		&dataconfig.DataConfig{},
		&lookup.DanceStyle{},
		&lookup.Category{},
	}
	models = append(models, stage.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx := context.Background()

	rdb := config.NewRedisClient(cfg)
	store, err := storage.NewFromConfig(ctx, cfg, rdb)
	if err != nil {
		log.Fatal("Failed to init blob storage:", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "ETag", "Last-Modified"},
		AllowCredentials: true,
	}))

	logService := &logs.LogService{DB: db}
	logs.RegisterRoutes(r, logService)

	entryService := &entry.EntryService{DB: db}
	entry.RegisterRoutes(r, entryService, logService)

	stageService := &stage.StageService{DB: db, Store: store, EventDate: cfg.EventDate}
	stage.RegisterRoutes(r, stageService, entryService, logService)

	attachmentService := &attachment.AttachmentService{
		DB:       db,
		Store:    store,
		Gate:     stageService,
		MaxBytes: cfg.MaxUploadBytes,
		URLTTL:   cfg.SignedURLTTL,
	}
	attachment.RegisterRoutes(r, attachmentService, entryService, logService)

	lookupService := lookup.NewLookupService(db)
	if err := lookupService.SeedDefaults(); err != nil {
		log.Printf("Failed to seed lookups: %v", err)
	}
	lookup.RegisterRoutes(r, lookupService)

	dataconfigService := &dataconfig.DataConfigService{DB: db}
	if _, err := dataconfigService.Publish(dataconfig.StageRulesName, dataconfig.BuildStageRules(cfg.EventDate)); err != nil {
		log.Printf("Failed to publish stage rules: %v", err)
	}
	dataconfig.RegisterRoutes(r, dataconfigService)

	adminService := &admin.AdminService{DB: db, Store: store, Publisher: admin.NewPublisher(cfg.RabbitMQURL)}
	admin.RegisterRoutes(r, adminService, logService)

	sweeper := &attachment.OrphanSweeper{DB: db, Store: store, MaxAttempts: 20}
	sched, err := sweeper.Start(cfg.OrphanSweepEvery)
	if err != nil {
		log.Printf("Orphan sweeper not started: %v", err)
	} else {
		defer func() { _ = sched.Shutdown() }()
	}

	log.Printf("Starting server on 0.0.0.0:%s ...", cfg.Port)
	log.Fatal(r.Run("0.0.0.0:" + cfg.Port))
}
