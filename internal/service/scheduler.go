package service

import (
	"log"
	"time"

	"foodshare_web/internal/repository"
)

// ExpiryScheduler 定期掃描逾期的確認通知並驅動狀態機的到期轉換
// 掃描與任何連接無關，單筆失敗只記錄日誌並繼續處理下一筆；
// 每筆的處理本身是冪等的，程序重啟後重跑不會重複發出提醒
type ExpiryScheduler struct {
	notifications repository.NotificationRepository
	handoff       *HandoffService
	clock         Clock
	interval      time.Duration
	stop          chan struct{}
}

// NewExpiryScheduler 創建並初始化 ExpiryScheduler
func NewExpiryScheduler(notifications repository.NotificationRepository, handoff *HandoffService, clock Clock, interval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		notifications: notifications,
		handoff:       handoff,
		clock:         clock,
		interval:      interval,
		stop:          make(chan struct{}),
	}
}

// Start 啟動背景掃描迴圈，應以 goroutine 呼叫
func (s *ExpiryScheduler) Start() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("expiry scheduler started, interval %s", s.interval)
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			log.Printf("expiry scheduler stopped")
			return
		}
	}
}

// Stop 停止背景掃描迴圈
func (s *ExpiryScheduler) Stop() {
	close(s.stop)
}

// Sweep 執行一次完整掃描，回傳成功處理的筆數
func (s *ExpiryScheduler) Sweep() int {
	now := s.clock.Now()

	expired, err := s.notifications.FindExpiredConfirmations(now)
	if err != nil {
		log.Printf("expiry sweep query failed: %v", err)
		return 0
	}

	processed := 0
	for _, n := range expired {
		if err := s.handoff.ExpireConfirmation(n.ID); err != nil {
			log.Printf("expiry sweep failed for notification %d (item %d): %v", n.ID, n.ItemID, err)
			continue
		}
		processed++
	}

	if len(expired) > 0 {
		log.Printf("expiry sweep processed %d/%d notifications", processed, len(expired))
	}
	return processed
}
