package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"foodshare_web/internal/api"
	"foodshare_web/internal/config"
	"foodshare_web/internal/models"
	"foodshare_web/internal/notification"
	"foodshare_web/internal/repository"
	"foodshare_web/internal/service"
	"foodshare_web/internal/storage"
	"foodshare_web/internal/utils"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.Server.JWTSecret)

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ChatMessage{},
		&models.DonationItem{},
		&models.ConfirmationNotification{},
	); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 初始化 repositories
	repos := repository.NewRepositories(db)

	// 初始化通知發送：郵件一定建立（未設定時自動略過），AMQP 為選用
	mailer := notification.NewMailer(cfg.SMTP)
	var publisher notification.Publisher
	if cfg.AMQP.URL != "" {
		publisher, err = notification.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			// 通知是盡力而為，連不上訊息佇列不阻止服務啟動
			log.Printf("AMQP publisher unavailable: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}
	dispatcher := notification.NewDispatcher(mailer, publisher, repos.User)

	// 初始化 services
	services := service.NewServices(repos, dispatcher, cfg.Chat)

	// 啟動到期掃描
	go services.Scheduler.Start()
	defer services.Scheduler.Stop()

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
