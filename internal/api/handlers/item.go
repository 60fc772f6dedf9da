package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodshare_web/internal/models"
	"foodshare_web/internal/service"
)

// ItemHandler 處理捐贈物品與交接流程相關的請求
type ItemHandler struct {
	itemService    *service.ItemService
	handoffService *service.HandoffService
}

// NewItemHandler 創建一個新的 ItemHandler 實例
func NewItemHandler(itemService *service.ItemService, handoffService *service.HandoffService) *ItemHandler {
	return &ItemHandler{
		itemService:    itemService,
		handoffService: handoffService,
	}
}

// CreateItem 處理提供者刊登新的捐贈物品
func (h *ItemHandler) CreateItem(c *gin.Context) {
	if role(c) != models.RoleProvider {
		c.JSON(http.StatusForbidden, gin.H{"error": "只有提供者可以刊登物品"})
		return
	}

	var input struct {
		Title          string `json:"title" binding:"required"`
		Description    string `json:"description"`
		Quantity       string `json:"quantity"`
		PickupLocation string `json:"pickup_location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemService.CreateItem(userID(c), input.Title, input.Description, input.Quantity, input.PickupLocation)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListItems 處理獲取物品列表的請求，?available=true 只列出可認領的
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.itemService.ListItems(c.Query("available") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetItem 處理獲取單一物品的請求
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := itemID(c)
	if err != nil {
		return
	}

	item, err := h.itemService.GetItem(itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// RequestItem 處理慈善機構提出領取請求
func (h *ItemHandler) RequestItem(c *gin.Context) {
	if role(c) != models.RoleCharity {
		c.JSON(http.StatusForbidden, gin.H{"error": "只有慈善機構可以提出領取請求"})
		return
	}

	h.transition(c, h.handoffService.Request)
}

// ConfirmItem 處理提供者確認提供
func (h *ItemHandler) ConfirmItem(c *gin.Context) {
	h.transition(c, h.handoffService.Confirm)
}

// RejectItem 處理提供者拒絕請求
func (h *ItemHandler) RejectItem(c *gin.Context) {
	h.transition(c, h.handoffService.Reject)
}

// ConfirmReceipt 處理慈善機構確認收到
func (h *ItemHandler) ConfirmReceipt(c *gin.Context) {
	h.transition(c, h.handoffService.ConfirmReceipt)
}

// DenyReceipt 處理慈善機構否認收到
func (h *ItemHandler) DenyReceipt(c *gin.Context) {
	h.transition(c, h.handoffService.DenyReceipt)
}

// MarkPickedUp 處理提供者標記取貨完成
func (h *ItemHandler) MarkPickedUp(c *gin.Context) {
	h.transition(c, h.handoffService.MarkPickedUp)
}

// transition 是各交接端點共用的流程：解析物品 ID、以目前用戶執行轉換
func (h *ItemHandler) transition(c *gin.Context, fn func(itemID, actorID uint) (*models.DonationItem, error)) {
	itemID, err := itemID(c)
	if err != nil {
		return
	}

	item, err := fn(itemID, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// itemID 解析路徑中的物品 ID，格式錯誤時直接回應 400
func itemID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的物品ID"})
		return 0, err
	}
	return uint(id), nil
}

// userID 取出中間件放入上下文的用戶 ID
func userID(c *gin.Context) uint {
	id, _ := c.Get("userID")
	return id.(uint)
}

// role 取出中間件放入上下文的用戶角色
func role(c *gin.Context) models.UserRole {
	r, _ := c.Get("userRole")
	return r.(models.UserRole)
}
