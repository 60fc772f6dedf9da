package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare_web/internal/api/handlers"
	"foodshare_web/internal/middleware"
	"foodshare_web/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	itemHandler := handlers.NewItemHandler(services.Item, services.Handoff)
	conversationHandler := handlers.NewConversationHandler(services.Conversation)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocketManager)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// WebSocket 連接點，token 在連線時驗證
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 用戶列表（含在線狀態）
		authorized.GET("/users", authHandler.ListUsers)

		// 捐贈物品與交接流程
		items := authorized.Group("/items")
		{
			items.GET("", itemHandler.ListItems)    // 獲取物品列表
			items.POST("", itemHandler.CreateItem)  // 刊登物品
			items.GET("/:id", itemHandler.GetItem)  // 獲取物品信息

			// 交接狀態機的各個轉換
			items.POST("/:id/request", itemHandler.RequestItem)         // 慈善機構提出領取請求
			items.POST("/:id/confirm", itemHandler.ConfirmItem)         // 提供者確認提供
			items.POST("/:id/reject", itemHandler.RejectItem)           // 提供者拒絕請求
			items.POST("/:id/receipt", itemHandler.ConfirmReceipt)      // 慈善機構確認收到
			items.POST("/:id/deny-receipt", itemHandler.DenyReceipt)    // 慈善機構否認收到
			items.POST("/:id/picked-up", itemHandler.MarkPickedUp)      // 提供者標記取貨完成
		}

		// 對話與歷史訊息
		conversations := authorized.Group("/conversations")
		{
			conversations.GET("", conversationHandler.ListConversations)
			conversations.GET("/:id", conversationHandler.GetConversation)
		}
	}
}
