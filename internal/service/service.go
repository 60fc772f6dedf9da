package service

import (
	"foodshare_web/internal/config"
	"foodshare_web/internal/repository"
)

type Services struct {
	User             *UserService
	Item             *ItemService
	Conversation     *ConversationService
	Handoff          *HandoffService
	Presence         *PresenceTracker
	WebSocketManager *WebSocketManager
	Scheduler        *ExpiryScheduler
}

// NewServices 依賴注入所有服務：broker 實例在此建構一次，
// 再交給需要發送事件的元件，不使用任何全域單例
func NewServices(repos *repository.Repositories, notifier Notifier, cfg config.ChatConfig) *Services {
	clock := SystemClock()

	presence := NewPresenceTracker(repos.User, clock, cfg.HeartbeatInterval)
	wsManager := NewWebSocketManager(repos.Message, repos.Conversation, presence, clock)
	handoff := NewHandoffService(repos.Tx, repos.Conversation, notifier, wsManager, clock, cfg.ConfirmationWindow)
	scheduler := NewExpiryScheduler(repos.Notification, handoff, clock, cfg.SweepInterval)

	return &Services{
		User:             NewUserService(repos.User),
		Item:             NewItemService(repos.Item),
		Conversation:     NewConversationService(repos.Conversation),
		Handoff:          handoff,
		Presence:         presence,
		WebSocketManager: wsManager,
		Scheduler:        scheduler,
	}
}
