package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodshare_web/internal/service"
)

// ConversationHandler 處理對話與歷史訊息的讀取請求
// 客戶端重新連線時從這裡重載完整歷史，WebSocket 只收即時訊息
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler 創建一個新的 ConversationHandler 實例
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// ListConversations 列出目前用戶參與的所有對話
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	convs, err := h.conversationService.ListForUser(userID(c), role(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, convs)
}

// GetConversation 取得單一對話與完整訊息歷史
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的對話ID"})
		return
	}

	conv, err := h.conversationService.GetWithMessages(uint(id), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}
