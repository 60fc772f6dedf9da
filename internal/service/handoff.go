package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"foodshare_web/internal/apperrors"
	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// Notifier 是狀態轉換觸發的通知發送能力（email、事件推播）
// 發送是盡力而為：失敗由實作自行記錄，不會回滾觸發它的狀態轉換
type Notifier interface {
	Dispatch(n *models.ConfirmationNotification, item *models.DonationItem)
}

// HandoffService 實作捐贈物品的交接狀態機
// available → pending → provider_confirmed → charity_confirmed → picked_up，
// 拒絕、否認與確認逾期會把物品重設回 available 並清除慈善機構的關聯
//
// 每次轉換（物品狀態、通知標記、新通知）在單一資料庫交易內完成，
// 並以 mu 確保同一時間只有一個轉換在進行，避免並發的重複確認
type HandoffService struct {
	mu       sync.Mutex
	tx       repository.Transactor
	convs    repository.ConversationRepository
	notifier Notifier
	ws       *WebSocketManager
	clock    Clock
	window   time.Duration // 慈善機構確認收件的期限
}

// NewHandoffService 創建並初始化 HandoffService
func NewHandoffService(
	tx repository.Transactor,
	convs repository.ConversationRepository,
	notifier Notifier,
	ws *WebSocketManager,
	clock Clock,
	window time.Duration,
) *HandoffService {
	return &HandoffService{
		tx:       tx,
		convs:    convs,
		notifier: notifier,
		ws:       ws,
		clock:    clock,
		window:   window,
	}
}

// Request 處理慈善機構對物品提出領取請求 (available → pending)
// 首次接觸會建立雙方的對話，並向提供者發出 request 通知
func (s *HandoffService) Request(itemID, charityID uint) (*models.DonationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		var err error
		item, err = s.findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.ProviderID == charityID {
			return apperrors.Validation("不能領取自己提供的物品")
		}

		next, ok := item.Status.NextStatus(models.EventCharityRequest)
		if !ok {
			return apperrors.InvalidTransition("此物品目前無法提出領取請求")
		}

		item.Status = next
		item.CharityID = charityID
		if err := tx.Items.Update(item); err != nil {
			return apperrors.Persistence("更新物品狀態失敗", err)
		}

		created = &models.ConfirmationNotification{
			Type:       models.NotificationRequest,
			Status:     models.NotificationPending,
			ItemID:     item.ID,
			ProviderID: item.ProviderID,
			CharityID:  charityID,
			Message:    fmt.Sprintf("慈善機構請求領取「%s」", item.Title),
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conv := s.ensureConversation(item)
	s.afterTransition(item, conv, created, "慈善機構已提出領取請求")
	return item, nil
}

// Confirm 處理提供者確認提供 (pending → provider_confirmed)
// 會向慈善機構發出帶 24 小時期限的 confirmation 通知；
// 同一物品同時只能有一個待處理的 confirmation 通知
func (s *HandoffService) Confirm(itemID, providerID uint) (*models.DonationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		var err error
		item, err = s.findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.ProviderID != providerID {
			return apperrors.Validation("不是該物品的提供者")
		}

		next, ok := item.Status.NextStatus(models.EventProviderConfirm)
		if !ok {
			return apperrors.InvalidTransition("此物品目前無法確認提供")
		}

		outstanding, err := tx.Notifications.FindPendingByItem(itemID, models.NotificationConfirmation)
		if err != nil {
			return apperrors.Persistence("查詢通知失敗", err)
		}
		if outstanding != nil {
			return apperrors.Conflict("此物品已有待確認的通知")
		}

		item.Status = next
		if err := tx.Items.Update(item); err != nil {
			return apperrors.Persistence("更新物品狀態失敗", err)
		}

		if err := s.closePending(tx, itemID, models.NotificationRequest, models.NotificationConfirmed); err != nil {
			return err
		}

		expiresAt := s.clock.Now().Add(s.window)
		created = &models.ConfirmationNotification{
			Type:       models.NotificationConfirmation,
			Status:     models.NotificationPending,
			ItemID:     item.ID,
			ProviderID: item.ProviderID,
			CharityID:  item.CharityID,
			Message:    fmt.Sprintf("提供者已確認提供「%s」，請在期限內確認收件", item.Title),
			ExpiresAt:  &expiresAt,
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(item, s.findConversation(item.ID, item.CharityID), created, "提供者已確認提供")
	return item, nil
}

// Reject 處理提供者拒絕請求 (pending/provider_confirmed → available)
// 物品重新開放認領，慈善機構的關聯被清除
func (s *HandoffService) Reject(itemID, providerID uint) (*models.DonationItem, error) {
	return s.reset(itemID, providerID, true, models.EventProviderReject,
		"提供者已拒絕此次領取", "此物品目前無法拒絕請求")
}

// ConfirmReceipt 處理慈善機構確認收到 (provider_confirmed → charity_confirmed)
func (s *HandoffService) ConfirmReceipt(itemID, charityID uint) (*models.DonationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		var err error
		item, err = s.findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.CharityID != charityID {
			return apperrors.Validation("不是此物品的認領機構")
		}

		next, ok := item.Status.NextStatus(models.EventCharityConfirm)
		if !ok {
			return apperrors.InvalidTransition("此物品目前無法確認收件")
		}

		item.Status = next
		if err := tx.Items.Update(item); err != nil {
			return apperrors.Persistence("更新物品狀態失敗", err)
		}

		if err := s.closePending(tx, itemID, models.NotificationConfirmation, models.NotificationConfirmed); err != nil {
			return err
		}

		// 對話隨交接確認一併標記
		conv, err := tx.Conversations.FindByItemAndCharity(itemID, item.CharityID)
		if err != nil {
			return apperrors.Persistence("無法讀取對話", err)
		}
		if conv != nil && conv.Status != models.ConversationConfirmed {
			conv.Status = models.ConversationConfirmed
			if err := tx.Conversations.Update(conv); err != nil {
				return apperrors.Persistence("更新對話狀態失敗", err)
			}
		}

		created = &models.ConfirmationNotification{
			Type:       models.NotificationGeneral,
			Status:     models.NotificationConfirmed,
			ItemID:     item.ID,
			ProviderID: item.ProviderID,
			CharityID:  item.CharityID,
			Message:    fmt.Sprintf("慈善機構已確認收到「%s」", item.Title),
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(item, s.findConversation(item.ID, item.CharityID), created, "慈善機構已確認收到物資")
	return item, nil
}

// DenyReceipt 處理慈善機構否認收到 (provider_confirmed → available)
func (s *HandoffService) DenyReceipt(itemID, charityID uint) (*models.DonationItem, error) {
	return s.reset(itemID, charityID, false, models.EventCharityDeny,
		"慈善機構否認收到物資，物品重新開放認領", "此物品目前無法否認收件")
}

// MarkPickedUp 處理實際取貨完成 (charity_confirmed/provider_confirmed → picked_up)
// 這是該次捐贈流程的終點，完成後雙方可以互相評價
func (s *HandoffService) MarkPickedUp(itemID, providerID uint) (*models.DonationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		var err error
		item, err = s.findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.ProviderID != providerID {
			return apperrors.Validation("不是該物品的提供者")
		}

		next, ok := item.Status.NextStatus(models.EventPickup)
		if !ok {
			return apperrors.InvalidTransition("此物品目前無法標記取貨")
		}

		item.Status = next
		if err := tx.Items.Update(item); err != nil {
			return apperrors.Persistence("更新物品狀態失敗", err)
		}

		// 跳過收件確認直接取貨時，把未處理的確認通知一併結案
		if err := s.closePending(tx, itemID, models.NotificationConfirmation, models.NotificationConfirmed); err != nil {
			return err
		}

		created = &models.ConfirmationNotification{
			Type:       models.NotificationGeneral,
			Status:     models.NotificationConfirmed,
			ItemID:     item.ID,
			ProviderID: item.ProviderID,
			CharityID:  item.CharityID,
			Message:    fmt.Sprintf("「%s」已完成取貨", item.Title),
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(item, s.findConversation(item.ID, item.CharityID), created, "物資已完成取貨")
	return item, nil
}

// ExpireConfirmation 處理確認通知逾期，由 ExpiryScheduler 驅動
// 物品重設、通知標記 expired、建立 reminder 通知在同一交易內完成；
// 已處理過的通知再次進來是無操作，重跑掃描不會產生重複的提醒
func (s *HandoffService) ExpireConfirmation(notificationID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		n, err := tx.Notifications.FindByID(notificationID)
		if err != nil {
			return apperrors.Persistence("無法讀取通知", err)
		}
		if n.Status != models.NotificationPending {
			return nil
		}

		item, err = s.findItem(tx, n.ItemID)
		if err != nil {
			return err
		}

		// 以目前狀態判斷是否需要重設，讓中斷後的重跑能夠收斂
		if next, ok := item.Status.NextStatus(models.EventExpire); ok {
			item.Status = next
			item.CharityID = 0
			if err := tx.Items.Update(item); err != nil {
				return apperrors.Persistence("更新物品狀態失敗", err)
			}
		}

		if err := tx.Notifications.UpdateStatus(n.ID, models.NotificationExpired); err != nil {
			return apperrors.Persistence("更新通知狀態失敗", err)
		}

		created = &models.ConfirmationNotification{
			Type:       models.NotificationReminder,
			Status:     models.NotificationPending,
			ItemID:     n.ItemID,
			ProviderID: n.ProviderID,
			CharityID:  n.CharityID,
			Message:    "確認期限已過，物品已重新開放認領",
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if created != nil {
		s.afterTransition(item, s.findConversation(item.ID, created.CharityID), created, "確認期限已過，物品已重新開放認領")
	}
	return nil
}

// reset 是拒絕與否認共用的重設流程：物品回到 available、清除慈善機構關聯、
// 未處理的通知標記 rejected、留下一則 general 通知
func (s *HandoffService) reset(itemID, actorID uint, actorIsProvider bool, event models.HandoffEvent, message, transitionError string) (*models.DonationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *models.DonationItem
	var created *models.ConfirmationNotification

	err := s.tx.Transaction(func(tx repository.HandoffTx) error {
		var err error
		item, err = s.findItem(tx, itemID)
		if err != nil {
			return err
		}
		if actorIsProvider && item.ProviderID != actorID {
			return apperrors.Validation("不是該物品的提供者")
		}
		if !actorIsProvider && item.CharityID != actorID {
			return apperrors.Validation("不是此物品的認領機構")
		}

		next, ok := item.Status.NextStatus(event)
		if !ok {
			return apperrors.InvalidTransition(transitionError)
		}

		charityID := item.CharityID
		item.Status = next
		item.CharityID = 0
		if err := tx.Items.Update(item); err != nil {
			return apperrors.Persistence("更新物品狀態失敗", err)
		}

		if err := s.closePending(tx, itemID, models.NotificationRequest, models.NotificationRejected); err != nil {
			return err
		}
		if err := s.closePending(tx, itemID, models.NotificationConfirmation, models.NotificationRejected); err != nil {
			return err
		}

		created = &models.ConfirmationNotification{
			Type:       models.NotificationGeneral,
			Status:     models.NotificationRejected,
			ItemID:     item.ID,
			ProviderID: item.ProviderID,
			CharityID:  charityID,
			Message:    fmt.Sprintf("「%s」：%s", item.Title, message),
		}
		if err := tx.Notifications.Create(created); err != nil {
			return apperrors.Persistence("建立通知失敗", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 廣播進的是被重設那一輪慈善機構的對話
	s.afterTransition(item, s.findConversation(item.ID, created.CharityID), created, message)
	return item, nil
}

// closePending 將某物品尚未處理的指定類型通知標記為結果狀態
func (s *HandoffService) closePending(tx repository.HandoffTx, itemID uint, ntype models.NotificationType, status models.NotificationStatus) error {
	pending, err := tx.Notifications.FindPendingByItem(itemID, ntype)
	if err != nil {
		return apperrors.Persistence("查詢通知失敗", err)
	}
	if pending == nil {
		return nil
	}
	if err := tx.Notifications.UpdateStatus(pending.ID, status); err != nil {
		return apperrors.Persistence("更新通知狀態失敗", err)
	}
	return nil
}

// findItem 讀取物品，不存在時回傳 Validation 錯誤
func (s *HandoffService) findItem(tx repository.HandoffTx, itemID uint) (*models.DonationItem, error) {
	item, err := tx.Items.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("物品不存在")
		}
		return nil, apperrors.Persistence("無法讀取物品", err)
	}
	return item, nil
}

// ensureConversation 確保物品的提供者與目前認領的慈善機構之間有對話可用
// 首次接觸時建立；同一物品換另一個慈善機構認領會建立新的對話
func (s *HandoffService) ensureConversation(item *models.DonationItem) *models.Conversation {
	conv, err := s.convs.FindByItemAndCharity(item.ID, item.CharityID)
	if err != nil {
		log.Printf("conversation lookup failed for item %d: %v", item.ID, err)
		return nil
	}
	if conv != nil {
		return conv
	}

	conv = &models.Conversation{
		ProviderID: item.ProviderID,
		CharityID:  item.CharityID,
		ItemID:     item.ID,
		Status:     models.ConversationOpen,
	}
	if err := s.convs.Create(conv); err != nil {
		log.Printf("conversation create failed for item %d: %v", item.ID, err)
		return nil
	}
	return conv
}

// findConversation 讀取物品與指定慈善機構的對話，找不到或讀取失敗都只記錄日誌
func (s *HandoffService) findConversation(itemID, charityID uint) *models.Conversation {
	conv, err := s.convs.FindByItemAndCharity(itemID, charityID)
	if err != nil {
		log.Printf("conversation lookup failed for item %d: %v", itemID, err)
		return nil
	}
	return conv
}

// afterTransition 發出狀態轉換的即時廣播與通知
// 廣播只影響目前在房間內的連接；通知發送失敗不影響已完成的轉換
func (s *HandoffService) afterTransition(item *models.DonationItem, conv *models.Conversation, n *models.ConfirmationNotification, systemMessage string) {
	if conv != nil {
		s.ws.BroadcastStatusUpdate(conv.ID, item.ID, item.Status)
		s.ws.BroadcastSystemMessage(conv.ID, systemMessage)
	}
	if n != nil {
		s.notifier.Dispatch(n, item)
	}
}
